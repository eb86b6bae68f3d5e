package oceanbase

import (
	"github.com/longkeyy/go-dsloader/common/plugin"
)

func init() {
	plugin.Register("oceanBase", plugin.SQL, NewSQLClient)
	plugin.Register("oceanBase", plugin.Table, NewTableClient)
}
