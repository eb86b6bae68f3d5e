package kerberos

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longkeyy/go-dsloader/common/plugin"
	"github.com/longkeyy/go-dsloader/common/source"
)

func TestSplitPrincipal(t *testing.T) {
	name, realm, err := SplitPrincipal("hdfs/nn1.example.com@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, "hdfs/nn1.example.com", name)
	assert.Equal(t, "EXAMPLE.COM", realm)

	for _, bad := range []string{"", "hdfs", "@EXAMPLE.COM", "hdfs@", "a@b@c"} {
		_, _, err := SplitPrincipal(bad)
		require.ErrorIs(t, err, plugin.ErrInvalidSource, bad)
	}
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(&source.KerberosConfig{})
	require.ErrorIs(t, err, plugin.ErrInvalidSource)

	_, err = NewClient(&source.KerberosConfig{Keytab: "x.keytab", Principal: "nouser"})
	require.ErrorIs(t, err, plugin.ErrInvalidSource)

	_, err = NewClient(&source.KerberosConfig{
		Krb5Conf:  filepath.Join(t.TempDir(), "missing.conf"),
		Keytab:    "x.keytab",
		Principal: "user@EXAMPLE.COM",
	})
	require.Error(t, err)
}

func TestKrb5ConfPath(t *testing.T) {
	assert.Equal(t, "/opt/krb5.conf", krb5ConfPath(&source.KerberosConfig{Krb5Conf: "/opt/krb5.conf"}))

	t.Setenv("KRB5_CONFIG", "/env/krb5.conf")
	assert.Equal(t, "/env/krb5.conf", krb5ConfPath(&source.KerberosConfig{}))

	t.Setenv("KRB5_CONFIG", "")
	assert.Equal(t, DefaultKrb5Conf, krb5ConfPath(&source.KerberosConfig{}))
}

func TestPrincipalsMissingKeytab(t *testing.T) {
	_, err := Principals(filepath.Join(t.TempDir(), "none.keytab"))
	require.Error(t, err)
}
