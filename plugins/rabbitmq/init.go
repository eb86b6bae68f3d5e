package rabbitmq

import (
	"github.com/longkeyy/go-dsloader/common/plugin"
)

func init() {
	plugin.Register("rabbitmq", plugin.Queue, NewQueueClient)
}
