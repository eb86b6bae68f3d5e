package all

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longkeyy/go-dsloader/common/client"
	"github.com/longkeyy/go-dsloader/common/plugin"
	"github.com/longkeyy/go-dsloader/common/source"
)

// 类型表中的每个 (插件, 类别) 都有链接入口，且构造出的实例满足类别接口
func TestEveryTableEntryIsLinked(t *testing.T) {
	entrypoints := plugin.Entrypoints()
	for _, entry := range source.DefaultTable().Entries() {
		for _, category := range entry.Categories {
			ctor, ok := entrypoints.Lookup(entry.PluginName, category)
			require.True(t, ok, "%s/%s", entry.PluginName, category)

			instance := ctor()
			require.NotNil(t, instance)
			assert.NoError(t, client.Conforms(category, instance), "%s/%s", entry.PluginName, category)
		}
	}
}

func TestNoOrphanEntrypoints(t *testing.T) {
	known := make(map[string]bool)
	for _, entry := range source.DefaultTable().Entries() {
		known[entry.PluginName] = true
	}
	for _, name := range plugin.Entrypoints().Plugins() {
		assert.True(t, known[name], "plugin %s is linked but not in the type table", name)
	}
}
