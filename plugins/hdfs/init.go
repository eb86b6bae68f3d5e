package hdfs

import (
	"github.com/longkeyy/go-dsloader/common/plugin"
)

func init() {
	plugin.Register("hdfs", plugin.File, NewFileClient)
}
