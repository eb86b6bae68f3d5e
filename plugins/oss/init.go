package oss

import (
	"github.com/longkeyy/go-dsloader/common/plugin"
)

func init() {
	plugin.Register("oss", plugin.File, NewFileClient)
}
