package sqlserver

import (
	"github.com/longkeyy/go-dsloader/common/plugin"
)

func init() {
	plugin.Register("sqlServer", plugin.SQL, NewSQLClient)
}
