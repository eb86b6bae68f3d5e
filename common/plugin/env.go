package plugin

import (
	"path/filepath"

	"github.com/longkeyy/go-dsloader/common/config"
	"github.com/longkeyy/go-dsloader/common/logger"
)

// ManifestFile 插件目录下的描述文件名
const ManifestFile = "plugin.yaml"

// Manifest 插件描述文件
type Manifest struct {
	Name        string            `yaml:"name"`
	Version     string            `yaml:"version"`
	HostVersion string            `yaml:"hostVersion"`
	Categories  []string          `yaml:"categories"`
	Library     string            `yaml:"library"`
	Files       map[string]string `yaml:"files"`
}

// Declares 描述文件是否声明了该类别；未声明任何类别时视为不限制
func (m *Manifest) Declares(category Category) bool {
	if len(m.Categories) == 0 {
		return true
	}
	for _, c := range m.Categories {
		if parsed, err := ParseCategory(c); err == nil && parsed == category {
			return true
		}
	}
	return false
}

// Env 单个插件的加载环境；插件只能通过它看到自己的目录与设置
type Env struct {
	PluginName string
	Category   Category
	Dir        string
	// Manifest 可能为 nil
	Manifest *Manifest
	Settings config.Configuration
	Logger   logger.PluginLogger
}

// Path 解析插件目录内的相对路径
func (e *Env) Path(rel string) string {
	return filepath.Join(e.Dir, filepath.FromSlash(rel))
}

// Initializer 客户端可选实现，加载完成后由加载器调用一次
type Initializer interface {
	Init(env *Env) error
}
