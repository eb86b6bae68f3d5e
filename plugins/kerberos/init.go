package kerberos

import (
	"github.com/longkeyy/go-dsloader/common/plugin"
)

func init() {
	plugin.Register("kerberos", plugin.Auth, NewAuthClient)
}
