package clickhouse

import (
	"github.com/longkeyy/go-dsloader/common/plugin"
)

func init() {
	plugin.Register("clickhouse", plugin.SQL, NewSQLClient)
}
