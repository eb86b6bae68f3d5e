package plugin

import (
	"fmt"
	"sort"
	"sync"
)

// Constructor 无参构造函数，加载器以此创建插件客户端实例
type Constructor func() any

// EntrypointRegistry 入口注册表接口：插件包在 init() 中按 (插件名, 类别) 注册构造函数
type EntrypointRegistry interface {
	Register(pluginName string, category Category, ctor Constructor) error
	Lookup(pluginName string, category Category) (Constructor, bool)
	Plugins() []string
	Categories(pluginName string) []Category
}

type entrypointKey struct {
	plugin   string
	category Category
}

// DefaultEntrypointRegistry 默认入口注册表实现
type DefaultEntrypointRegistry struct {
	entries map[entrypointKey]Constructor
	mutex   sync.RWMutex
}

func NewEntrypointRegistry() *DefaultEntrypointRegistry {
	return &DefaultEntrypointRegistry{
		entries: make(map[entrypointKey]Constructor),
	}
}

func (r *DefaultEntrypointRegistry) Register(pluginName string, category Category, ctor Constructor) error {
	if pluginName == "" || ctor == nil || !category.Valid() {
		return fmt.Errorf("%w: register entrypoint plugin=%q category=%s", ErrInvalidArgument, pluginName, category)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	key := entrypointKey{plugin: pluginName, category: category}
	if _, exists := r.entries[key]; exists {
		return fmt.Errorf("%w: %s/%s", ErrDuplicateEntrypoint, pluginName, category.Entrypoint())
	}
	r.entries[key] = ctor
	return nil
}

func (r *DefaultEntrypointRegistry) Lookup(pluginName string, category Category) (Constructor, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	ctor, ok := r.entries[entrypointKey{plugin: pluginName, category: category}]
	return ctor, ok
}

func (r *DefaultEntrypointRegistry) Plugins() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	seen := make(map[string]struct{})
	var plugins []string
	for key := range r.entries {
		if _, ok := seen[key.plugin]; ok {
			continue
		}
		seen[key.plugin] = struct{}{}
		plugins = append(plugins, key.plugin)
	}
	sort.Strings(plugins)
	return plugins
}

func (r *DefaultEntrypointRegistry) Categories(pluginName string) []Category {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var categories []Category
	for key := range r.entries {
		if key.plugin == pluginName {
			categories = append(categories, key.category)
		}
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })
	return categories
}

// 全局入口注册表实例
var globalEntrypoints = NewEntrypointRegistry()

// Entrypoints 返回全局入口注册表
func Entrypoints() EntrypointRegistry {
	return globalEntrypoints
}

// Register 向全局注册表注册入口，重复注册直接 panic，只应在 init() 中调用
func Register(pluginName string, category Category, ctor Constructor) {
	if err := globalEntrypoints.Register(pluginName, category, ctor); err != nil {
		panic(err)
	}
}
