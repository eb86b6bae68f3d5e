package hdfs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longkeyy/go-dsloader/common/plugin"
	"github.com/longkeyy/go-dsloader/common/source"
)

func TestClientOptions(t *testing.T) {
	options, err := clientOptions(&source.HdfsSource{
		DefaultFS: "hdfs://nn1:8020,nn2:8020/",
		User:      "etl",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"nn1:8020", "nn2:8020"}, options.Addresses)
	assert.Equal(t, "etl", options.User)
	assert.Nil(t, options.KerberosClient)

	options, err = clientOptions(&source.HdfsSource{
		User: "etl",
		Config: map[string]string{
			"dfs.ha.namenodes.cluster":             "nn1",
			"dfs.namenode.rpc-address.cluster.nn1": "10.0.0.1:8020",
			"hadoop.security.authentication":       "kerberos",
		},
		Kerberos: &source.KerberosConfig{Keytab: "/etc/etl.keytab", Principal: "etl@EXAMPLE.COM"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.1:8020"}, options.Addresses)
	assert.Equal(t, DefaultNamenodePrincipal, options.KerberosServicePrincipleName)
	assert.Nil(t, options.KerberosClient)

	_, err = clientOptions(&source.HdfsSource{User: "etl"})
	require.ErrorIs(t, err, plugin.ErrInvalidSource)
}

func TestCacheKeySeparatesPrincipals(t *testing.T) {
	plain := cacheKey(&source.HdfsSource{DefaultFS: "hdfs://nn:8020", User: "etl"})
	secured := cacheKey(&source.HdfsSource{
		DefaultFS: "hdfs://nn:8020",
		User:      "etl",
		Kerberos:  &source.KerberosConfig{Keytab: "k", Principal: "etl@EXAMPLE.COM"},
	})
	assert.NotEqual(t, plain, secured)
}

func TestRejectsForeignSource(t *testing.T) {
	c := NewFileClient().(*FileClient)
	_, err := c.TestCon(context.Background(), &source.FtpSource{Host: "ftp.example.com"})
	require.ErrorIs(t, err, plugin.ErrInvalidSource)
}
