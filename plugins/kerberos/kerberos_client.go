package kerberos

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/longkeyy/go-dsloader/common/client"
	"github.com/longkeyy/go-dsloader/common/kerberos"
	"github.com/longkeyy/go-dsloader/common/logger"
	"github.com/longkeyy/go-dsloader/common/plugin"
	"github.com/longkeyy/go-dsloader/common/source"
)

// AuthClient 基于 keytab 的 Kerberos 认证
type AuthClient struct {
	log logger.PluginLogger
}

var _ client.AuthClient = (*AuthClient)(nil)

func NewAuthClient() any {
	return &AuthClient{log: logger.Nop().Plugin()}
}

func (c *AuthClient) Init(env *plugin.Env) error {
	if env.Logger != nil {
		c.log = env.Logger
	}
	return nil
}

func kerberosConfig(src source.Source) (*source.KerberosConfig, error) {
	ks, err := source.As[*source.KerberosSource](src)
	if err != nil {
		return nil, err
	}
	return &ks.KerberosConfig, nil
}

func (c *AuthClient) TestCon(ctx context.Context, src source.Source) (bool, error) {
	if _, err := c.Login(ctx, src); err != nil {
		return false, err
	}
	return true, nil
}

// Login 完成 AS 交换后立即销毁会话，只返回认证结果
func (c *AuthClient) Login(ctx context.Context, src source.Source) (*client.AuthTicket, error) {
	conf, err := kerberosConfig(src)
	if err != nil {
		return nil, err
	}
	cl, err := kerberos.Login(conf)
	if err != nil {
		return nil, err
	}
	defer cl.Destroy()

	name, realm, err := kerberos.SplitPrincipal(conf.Principal)
	if err != nil {
		return nil, err
	}
	c.log.Info("Kerberos login succeeded", zap.String("principal", conf.Principal))
	return &client.AuthTicket{Principal: name, Realm: realm}, nil
}

func (c *AuthClient) ListPrincipals(ctx context.Context, src source.Source) ([]string, error) {
	conf, err := kerberosConfig(src)
	if err != nil {
		return nil, err
	}
	if conf.Keytab == "" {
		return nil, fmt.Errorf("%w: keytab is empty", plugin.ErrInvalidSource)
	}
	return kerberos.Principals(conf.Keytab)
}
