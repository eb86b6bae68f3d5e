package kafka

import (
	"github.com/longkeyy/go-dsloader/common/plugin"
)

func init() {
	plugin.Register("kafka", plugin.Queue, NewQueueClient)
}
