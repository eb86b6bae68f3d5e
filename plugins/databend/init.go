package databend

import (
	"github.com/longkeyy/go-dsloader/common/plugin"
)

func init() {
	plugin.Register("databend", plugin.SQL, NewSQLClient)
}
