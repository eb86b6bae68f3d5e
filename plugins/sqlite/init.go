package sqlite

import (
	"github.com/longkeyy/go-dsloader/common/plugin"
)

func init() {
	plugin.Register("sqlite", plugin.SQL, NewSQLClient)
	plugin.Register("sqlite", plugin.Table, NewTableClient)
}
