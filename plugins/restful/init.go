package restful

import (
	"github.com/longkeyy/go-dsloader/common/plugin"
)

func init() {
	plugin.Register("restful", plugin.Http, NewHttpClient)
}
