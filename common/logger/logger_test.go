package logger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeAndSetLevel(t *testing.T) {
	out := filepath.Join(t.TempDir(), "dsloader.log")
	require.NoError(t, Initialize(&LoggerConfig{Level: LevelWarn, OutputPath: out}))

	l := GetLogger()
	assert.Equal(t, LevelWarn, l.Level())

	SetLevel(LevelDebug)
	assert.Equal(t, LevelDebug, l.Level())

	ComponentWithName("registry").Info("component")
	PluginWithName("kafka").WithCategory("queue").Debug("plugin")
	_ = Sync()
}

func TestNop(t *testing.T) {
	l := Nop()
	l.App().Info("dropped")
	l.Plugin().WithPlugin("redis").Error("dropped")
	assert.NoError(t, l.Sync())
}

func TestPluginContext(t *testing.T) {
	ctx := WithCategory(WithPluginName(context.Background(), "mongo"), "document")

	name, ok := GetPluginName(ctx)
	require.True(t, ok)
	assert.Equal(t, "mongo", name)

	category, ok := GetCategory(ctx)
	require.True(t, ok)
	assert.Equal(t, "document", category)

	assert.NotNil(t, PluginLoggerFromContext(ctx))
}

func TestPerformanceTimer(t *testing.T) {
	ml := NewMetricsLoggerWith(Nop().Component())
	timer := ml.StartTimer("load")
	assert.GreaterOrEqual(t, timer.Stop(), time.Duration(0))

	ml.LogLoad("sql", "mysql5", time.Millisecond, nil)
	ml.LogLoad("sql", "mysql5", time.Millisecond, errors.New("boom"))
	ml.LogCacheStats("sql", 1, 1, 0)
}
