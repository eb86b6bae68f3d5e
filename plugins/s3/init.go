package s3

import (
	"github.com/longkeyy/go-dsloader/common/plugin"
)

func init() {
	plugin.Register("s3", plugin.File, NewFileClient)
}
