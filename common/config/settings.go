package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tomlparser "github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/longkeyy/go-dsloader/common/logger"
)

// EnvPrefix 环境变量前缀；双下划线表示层级，例如 DSLOADER_LOG__LEVEL → log.level
const EnvPrefix = "DSLOADER_"

// DefaultPluginDir 插件根目录的默认目录名，位于当前工作目录下
const DefaultPluginDir = "pluginLibs"

var ErrInvalidSettings = errors.New("invalid settings")

// Settings 进程级设置
type Settings struct {
	PluginRoot   string              `koanf:"plugin_root"`
	StrictVerify bool                `koanf:"strict_verify"`
	Log          logger.LoggerConfig `koanf:"log"`

	k *koanf.Koanf
}

// DefaultPluginRoot 返回 <cwd>/pluginLibs/
func DefaultPluginRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return filepath.ToSlash(wd) + "/" + DefaultPluginDir + "/"
}

func defaults() map[string]any {
	return map[string]any{
		"plugin_root":     DefaultPluginRoot(),
		"strict_verify":   false,
		"log.level":       string(logger.LevelInfo),
		"log.development": true,
		"log.console":     true,
		"log.output_path": "",
	}
}

// LoadSettings 依次加载 默认值 → TOML 文件 → 环境变量 → 命令行参数，后者覆盖前者。
// path 为空时跳过文件；flags 中为 nil 或空字符串的值被忽略。
func LoadSettings(path string, flags map[string]any) (*Settings, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), tomlparser.Parser()); err != nil {
			return nil, fmt.Errorf("%w: load %s: %w", ErrInvalidSettings, path, err)
		}
	}

	envOpt := env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envTransform,
	}
	if err := k.Load(env.Provider(".", envOpt), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	if overrides := nonEmpty(flags); len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	s := &Settings{k: k}
	if err := k.UnmarshalWithConf("", s, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	s.k = k
	return s, nil
}

// PluginSettings 返回 plugins.<name> 子树的独立副本，插件之间互不可见
func (s *Settings) PluginSettings(name string) Configuration {
	if s == nil || s.k == nil {
		return NewConfiguration()
	}
	for _, key := range []string{name, strings.ToLower(name)} {
		path := "plugins." + key
		if s.k.Exists(path) {
			return NewConfigurationFromMap(s.k.Cut(path).Raw())
		}
	}
	return NewConfiguration()
}

// String 返回扁平化的全部键值，便于调试输出
func (s *Settings) String() string {
	if s == nil || s.k == nil {
		return ""
	}
	return s.k.Sprint()
}

// DSLOADER_PLUGINS__KAFKA__CLIENT_ID → plugins.kafka.client_id
func envTransform(key, value string) (string, any) {
	key = strings.TrimPrefix(key, EnvPrefix)
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, "__", ".")
	return key, value
}

func nonEmpty(flags map[string]any) map[string]any {
	out := make(map[string]any, len(flags))
	for k, v := range flags {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		out[k] = v
	}
	return out
}
