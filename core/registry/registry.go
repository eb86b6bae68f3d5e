package registry

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/longkeyy/go-dsloader/common/config"
	"github.com/longkeyy/go-dsloader/common/logger"
	"github.com/longkeyy/go-dsloader/common/plugin"
	"github.com/longkeyy/go-dsloader/common/source"
	"github.com/longkeyy/go-dsloader/core/loader"
)

var (
	defaultRegistry *ClientRegistry
	defaultOnce     sync.Once
)

// Default 进程级共享的客户端注册表，首次使用时创建
func Default() *ClientRegistry {
	defaultOnce.Do(func() {
		defaultRegistry = New()
	})
	return defaultRegistry
}

// partition 单个类别的缓存分区，各分区之间互不阻塞
type partition struct {
	category plugin.Category
	// clients pluginName → 客户端实例，读路径无锁
	clients sync.Map
	// mu 串行化同一类别的首次加载
	mu    sync.Mutex
	stats Stats
}

// ClientRegistry 按 (类别, 插件名) 缓存客户端实例，同一组合最多加载一次，失败不缓存
type ClientRegistry struct {
	table      *source.Table
	loader     loader.Loader
	partitions map[plugin.Category]*partition

	root   atomic.Value
	strict atomic.Bool
	log    logger.ComponentLogger
}

// Option 注册表选项
type Option func(*ClientRegistry)

// WithLoader 替换插件加载器
func WithLoader(l loader.Loader) Option {
	return func(r *ClientRegistry) {
		r.loader = l
	}
}

// WithTable 替换数据源类型表
func WithTable(t *source.Table) Option {
	return func(r *ClientRegistry) {
		r.table = t
	}
}

// WithPluginRoot 设置初始插件根目录
func WithPluginRoot(root string) Option {
	return func(r *ClientRegistry) {
		r.root.Store(root)
	}
}

// WithStrictVerify 设置初始严格校验开关
func WithStrictVerify(strict bool) Option {
	return func(r *ClientRegistry) {
		r.strict.Store(strict)
	}
}

// WithSettings 使用宿主设置初始化插件根目录、严格校验开关与默认加载器
func WithSettings(s *config.Settings) Option {
	return func(r *ClientRegistry) {
		if s.PluginRoot != "" {
			r.root.Store(s.PluginRoot)
		}
		r.strict.Store(s.StrictVerify)
		r.loader = loader.New(loader.WithSettings(s))
	}
}

// WithLogger 指定日志器
func WithLogger(lg *logger.Logger) Option {
	return func(r *ClientRegistry) {
		r.log = lg.Component().WithComponent("ClientRegistry")
	}
}

// New 创建客户端注册表
func New(opts ...Option) *ClientRegistry {
	r := &ClientRegistry{
		table:      source.DefaultTable(),
		partitions: make(map[plugin.Category]*partition, len(plugin.Categories())),
		log:        logger.ComponentWithName("ClientRegistry"),
	}
	r.root.Store(config.DefaultPluginRoot())
	for _, c := range plugin.Categories() {
		r.partitions[c] = &partition{category: c}
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.loader == nil {
		r.loader = loader.New()
	}
	return r
}

// SetPluginRoot 修改插件根目录，只影响之后的加载，已缓存的实例保持不变
func (r *ClientRegistry) SetPluginRoot(root string) {
	r.root.Store(root)
	r.log.Info("Plugin root changed", zap.String("root", root))
}

// PluginRoot 当前插件根目录
func (r *ClientRegistry) PluginRoot() string {
	return r.root.Load().(string)
}

// SetStrictVerify 打开或关闭加载前的完整性校验
func (r *ClientRegistry) SetStrictVerify(strict bool) {
	r.strict.Store(strict)
}

// StrictVerify 是否启用完整性校验
func (r *ClientRegistry) StrictVerify() bool {
	return r.strict.Load()
}

// SourceTable 注册表使用的数据源类型表
func (r *ClientRegistry) SourceTable() *source.Table {
	return r.table
}

// Client 获取类别 c 下数据源类型 t 对应的客户端实例
func (r *ClientRegistry) Client(category plugin.Category, t source.Type) (any, error) {
	p, ok := r.partitions[category]
	if !ok {
		return nil, &plugin.AccessError{
			Category: category,
			Err:      fmt.Errorf("%w: unknown category %s", plugin.ErrInvalidArgument, category),
		}
	}

	name, err := r.table.PluginName(t, category)
	if err != nil {
		return nil, err
	}
	return r.get(p, name)
}

func (r *ClientRegistry) get(p *partition, name string) (any, error) {
	if v, ok := p.clients.Load(name); ok {
		p.stats.hit()
		return v, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if v, ok := p.clients.Load(name); ok {
		p.stats.hit()
		return v, nil
	}

	instance, err := r.loader.Load(loader.Request{
		Root:       r.PluginRoot(),
		PluginName: name,
		Category:   p.category,
		Strict:     r.StrictVerify(),
	})
	if err != nil {
		p.stats.failure()
		return nil, &plugin.AccessError{Category: p.category, PluginName: name, Err: err}
	}
	if instance == nil {
		p.stats.failure()
		return nil, &plugin.AccessError{
			Category:   p.category,
			PluginName: name,
			Err:        errors.New("loader returned no instance"),
		}
	}

	p.clients.Store(name, instance)
	p.stats.load()
	return instance, nil
}

// Cached 类别下已缓存的插件名
func (r *ClientRegistry) Cached(category plugin.Category) []string {
	p, ok := r.partitions[category]
	if !ok {
		return nil
	}
	var names []string
	p.clients.Range(func(key, _ any) bool {
		names = append(names, key.(string))
		return true
	})
	return sortedCopy(names)
}

// Reset 清空全部分区的缓存与计数，不关闭已缓存的实例
func (r *ClientRegistry) Reset() {
	for _, p := range r.partitions {
		p.mu.Lock()
		p.clients.Range(func(key, _ any) bool {
			p.clients.Delete(key)
			return true
		})
		p.stats.reset()
		p.mu.Unlock()
	}
	r.log.Info("Client cache reset")
}
