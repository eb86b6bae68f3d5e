package neo4j

import (
	"github.com/longkeyy/go-dsloader/common/plugin"
)

func init() {
	plugin.Register("neo4j", plugin.Graph, NewGraphClient)
	plugin.Register("neo4j40", plugin.GraphV2, NewGraphV2Client)
}
