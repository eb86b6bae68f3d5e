package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longkeyy/go-dsloader/common/logger"
)

const sourceJSON = `{
  "sourceType": 26,
  "parameter": {
    "brokers": ["b1:9092", "b2:9092"],
    "timeout": "3s",
    "port": "2121",
    "tls": "true",
    "headers": {"X-Token": "abc", "Retry": 3}
  }
}`

func TestConfigurationGetters(t *testing.T) {
	c, err := FromJSON(sourceJSON)
	require.NoError(t, err)

	assert.Equal(t, 26, c.GetInt("sourceType"))
	assert.Equal(t, "26", c.GetString("sourceType"))
	assert.Equal(t, []string{"b1:9092", "b2:9092"}, c.GetStringList("parameter.brokers"))
	assert.Equal(t, 3*time.Second, c.GetDuration("parameter.timeout", time.Second))
	assert.Equal(t, time.Second, c.GetDuration("parameter.missing", time.Second))
	assert.Equal(t, 2121, c.GetInt("parameter.port"))
	assert.True(t, c.GetBool("parameter.tls"))
	assert.Equal(t, "fallback", c.GetStringWithDefault("parameter.user", "fallback"))
	assert.Equal(t, map[string]string{"X-Token": "abc", "Retry": "3"}, c.GetStringMap("parameter.headers"))
	assert.False(t, c.IsExists("parameter.nope"))
	assert.Equal(t, []string{"parameter", "sourceType"}, c.Keys())
}

func TestConfigurationSetAndClone(t *testing.T) {
	c := NewConfiguration()
	c.Set("a.b.c", "v")
	c.Set("list", []interface{}{"x"})
	assert.Equal(t, "v", c.GetString("a.b.c"))

	clone := c.Clone()
	clone.Set("a.b.c", "changed")
	clone.GetConfiguration("a").Set("d", 1)

	assert.Equal(t, "v", c.GetString("a.b.c"))
	assert.False(t, c.IsExists("a.d"))
	assert.Equal(t, 1, clone.GetInt("a.d"))

	assert.Equal(t, []string{"a", "b"}, NewConfigurationFromMap(map[string]interface{}{"s": "a, b"}).GetStringList("s"))
}

func TestFromJSONError(t *testing.T) {
	_, err := FromJSON("{")
	require.Error(t, err)

	_, err = FromFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestLoadSettingsPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dsloader.toml")
	content := `
plugin_root = "/opt/from-file/"

[log]
level = "warn"

[plugins.kafka]
client_id = "file-client"

[plugins.redis]
db = 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("DSLOADER_STRICT_VERIFY", "true")
	t.Setenv("DSLOADER_LOG__LEVEL", "debug")
	t.Setenv("DSLOADER_PLUGINS__KAFKA__CLIENT_ID", "env-client")

	s, err := LoadSettings(path, map[string]any{
		"plugin_root": "/opt/from-flag/",
		"log.level":   "",
	})
	require.NoError(t, err)

	assert.Equal(t, "/opt/from-flag/", s.PluginRoot)
	assert.True(t, s.StrictVerify)
	assert.Equal(t, logger.LevelDebug, s.Log.Level)

	kafka := s.PluginSettings("kafka")
	assert.Equal(t, "env-client", kafka.GetString("client_id"))

	redis := s.PluginSettings("redis")
	assert.Equal(t, 2, redis.GetInt("db"))

	// 副本互相隔离
	redis.Set("db", 9)
	assert.Equal(t, 2, s.PluginSettings("redis").GetInt("db"))

	assert.Empty(t, s.PluginSettings("mongo").Keys())
}

func TestLoadSettingsDefaults(t *testing.T) {
	s, err := LoadSettings("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultPluginRoot(), s.PluginRoot)
	assert.False(t, s.StrictVerify)
	assert.Equal(t, logger.LevelInfo, s.Log.Level)
}

func TestLoadSettingsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("plugin_root = ["), 0o600))

	_, err := LoadSettings(path, nil)
	require.ErrorIs(t, err, ErrInvalidSettings)
}
