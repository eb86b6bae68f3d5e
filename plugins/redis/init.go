package redis

import (
	"github.com/longkeyy/go-dsloader/common/plugin"
)

func init() {
	plugin.Register("redis", plugin.KeyValue, NewKeyValueClient)
}
