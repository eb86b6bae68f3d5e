package oracle

import (
	"github.com/longkeyy/go-dsloader/common/plugin"
)

func init() {
	plugin.Register("oracle", plugin.SQL, NewSQLClient)
}
