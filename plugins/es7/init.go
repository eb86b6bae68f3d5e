package es7

import (
	"github.com/longkeyy/go-dsloader/common/plugin"
)

func init() {
	plugin.Register("es7", plugin.Search, NewSearchClient)
}
