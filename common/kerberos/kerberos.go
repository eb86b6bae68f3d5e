package kerberos

import (
	"fmt"
	"os"
	"sort"
	"strings"

	krbclient "github.com/jcmturner/gokrb5/v8/client"
	krbconfig "github.com/jcmturner/gokrb5/v8/config"
	"github.com/jcmturner/gokrb5/v8/keytab"

	"github.com/longkeyy/go-dsloader/common/plugin"
	"github.com/longkeyy/go-dsloader/common/source"
)

// DefaultKrb5Conf 未指定 krb5.conf 时的路径，可被 KRB5_CONFIG 覆盖
const DefaultKrb5Conf = "/etc/krb5.conf"

// SplitPrincipal 拆分 primary[/instance]@REALM
func SplitPrincipal(principal string) (name, realm string, err error) {
	name, realm, ok := strings.Cut(strings.TrimSpace(principal), "@")
	if !ok || name == "" || realm == "" || strings.Contains(realm, "@") {
		return "", "", fmt.Errorf("%w: malformed kerberos principal %q", plugin.ErrInvalidSource, principal)
	}
	return name, realm, nil
}

func krb5ConfPath(conf *source.KerberosConfig) string {
	if conf.Krb5Conf != "" {
		return conf.Krb5Conf
	}
	if env := os.Getenv("KRB5_CONFIG"); env != "" {
		return env
	}
	return DefaultKrb5Conf
}

// NewClient 依据 keytab 创建未登录的 Kerberos 客户端
func NewClient(conf *source.KerberosConfig) (*krbclient.Client, error) {
	if !conf.Enabled() {
		return nil, fmt.Errorf("%w: kerberos needs keytab and principal", plugin.ErrInvalidSource)
	}
	name, realm, err := SplitPrincipal(conf.Principal)
	if err != nil {
		return nil, err
	}

	cfg, err := krbconfig.Load(krb5ConfPath(conf))
	if err != nil {
		return nil, fmt.Errorf("failed to load krb5 config: %w", err)
	}
	kt, err := keytab.Load(conf.Keytab)
	if err != nil {
		return nil, fmt.Errorf("failed to load keytab %s: %w", conf.Keytab, err)
	}
	return krbclient.NewWithKeytab(name, realm, kt, cfg, krbclient.DisablePAFXFAST(true)), nil
}

// Login 创建客户端并完成 AS 交换
func Login(conf *source.KerberosConfig) (*krbclient.Client, error) {
	cl, err := NewClient(conf)
	if err != nil {
		return nil, err
	}
	if err := cl.Login(); err != nil {
		return nil, fmt.Errorf("kerberos login as %s failed: %w", conf.Principal, err)
	}
	return cl, nil
}

// Principals 列出 keytab 中的全部 principal，去重后排序
func Principals(keytabPath string) ([]string, error) {
	kt, err := keytab.Load(keytabPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load keytab %s: %w", keytabPath, err)
	}

	seen := make(map[string]struct{})
	var principals []string
	for _, entry := range kt.Entries {
		p := strings.Join(entry.Principal.Components, "/") + "@" + entry.Principal.Realm
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		principals = append(principals, p)
	}
	sort.Strings(principals)
	return principals, nil
}
