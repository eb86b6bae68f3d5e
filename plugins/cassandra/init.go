package cassandra

import (
	"github.com/longkeyy/go-dsloader/common/plugin"
)

func init() {
	plugin.Register("cassandra", plugin.WideColumn, NewWideColumnClient)
}
