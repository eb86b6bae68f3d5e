package ftp

import (
	"github.com/longkeyy/go-dsloader/common/plugin"
)

func init() {
	plugin.Register("ftp", plugin.File, NewFileClient)
}
