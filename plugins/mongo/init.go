package mongo

import (
	"github.com/longkeyy/go-dsloader/common/plugin"
)

func init() {
	plugin.Register("mongo", plugin.Document, NewDocumentClient)
}
