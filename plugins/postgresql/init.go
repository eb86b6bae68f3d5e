package postgresql

import (
	"github.com/longkeyy/go-dsloader/common/plugin"
)

func init() {
	plugin.Register("postgresql", plugin.SQL, NewSQLClient)
	plugin.Register("postgresql", plugin.Table, NewTableClient)
}
