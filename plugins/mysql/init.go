package mysql

import (
	"github.com/longkeyy/go-dsloader/common/plugin"
)

func init() {
	for _, name := range []string{"mysql5", "mysql8"} {
		plugin.Register(name, plugin.SQL, NewSQLClient)
		plugin.Register(name, plugin.Table, NewTableClient)
	}
	plugin.Register("doris", plugin.SQL, NewSQLClient)
	plugin.Register("starrocks", plugin.SQL, NewSQLClient)
}
