package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/longkeyy/go-dsloader/common/client"
	"github.com/longkeyy/go-dsloader/common/config"
	"github.com/longkeyy/go-dsloader/common/logger"
	"github.com/longkeyy/go-dsloader/common/pathutil"
	"github.com/longkeyy/go-dsloader/common/plugin"
	"github.com/longkeyy/go-dsloader/version"
)

// Request 一次加载请求
type Request struct {
	Root       string
	PluginName string
	Category   plugin.Category
	// Strict 为 true 时在实例化前做完整性校验
	Strict bool
}

// Loader 按请求加载插件并返回满足类别接口的客户端实例
type Loader interface {
	Load(req Request) (any, error)
}

// IsolatedLoader 每个插件在独立的加载环境中实例化，
// 环境只暴露该插件自己的目录、描述文件、设置子树和日志器。
type IsolatedLoader struct {
	entrypoints plugin.EntrypointRegistry
	settings    *config.Settings
	log         logger.ComponentLogger
	pluginLog   logger.PluginLogger
	metrics     *logger.MetricsLogger
	hostVersion string

	openShared func(path string, category plugin.Category) (plugin.Constructor, error)
}

// Option 加载器选项
type Option func(*IsolatedLoader)

// WithEntrypoints 指定编译期链接的入口注册表，默认使用全局注册表
func WithEntrypoints(r plugin.EntrypointRegistry) Option {
	return func(l *IsolatedLoader) {
		l.entrypoints = r
	}
}

// WithSettings 指定宿主设置，插件只能看到 plugins.<name> 子树
func WithSettings(s *config.Settings) Option {
	return func(l *IsolatedLoader) {
		l.settings = s
	}
}

// WithLogger 指定日志器
func WithLogger(lg *logger.Logger) Option {
	return func(l *IsolatedLoader) {
		l.log = lg.Component().WithComponent("Loader")
		l.pluginLog = lg.Plugin()
		l.metrics = logger.NewMetricsLoggerWith(l.log)
	}
}

// WithHostVersion 覆盖用于 hostVersion 约束校验的宿主版本
func WithHostVersion(v string) Option {
	return func(l *IsolatedLoader) {
		l.hostVersion = v
	}
}

// New 创建隔离加载器
func New(opts ...Option) *IsolatedLoader {
	l := &IsolatedLoader{
		entrypoints: plugin.Entrypoints(),
		hostVersion: version.Version,
		openShared:  openShared,
	}
	WithLogger(logger.GetLogger())(l)
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load 加载插件。失败时不产生任何副作用，错误链中保留原因
func (l *IsolatedLoader) Load(req Request) (any, error) {
	timer := l.metrics.StartTimer("load")
	instance, err := l.load(req)
	l.metrics.LogLoad(req.Category.String(), req.PluginName, timer.Stop(), err)
	return instance, err
}

func (l *IsolatedLoader) load(req Request) (any, error) {
	if req.PluginName == "" {
		return nil, fmt.Errorf("%w: empty plugin name", plugin.ErrPluginLoad)
	}
	if !req.Category.Valid() {
		return nil, fmt.Errorf("%w: invalid category %s", plugin.ErrPluginLoad, req.Category)
	}

	dir := pathutil.RemoveMultiSeparator(req.Root + pathutil.Separator + req.PluginName)
	if err := checkDir(dir); err != nil {
		return nil, err
	}

	manifest, err := ReadManifest(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", plugin.ErrPluginLoad, err)
	}

	if req.Strict {
		category := req.Category
		if err := verifyStrict(dir, req.PluginName, manifest, &category, l.hostVersion); err != nil {
			return nil, err
		}
	} else if err := CheckHostVersion(manifest, l.hostVersion); err != nil {
		return nil, fmt.Errorf("%w: %w", plugin.ErrPluginLoad, err)
	}

	env := l.newEnv(dir, req, manifest)

	ctor, err := l.resolve(dir, req, manifest)
	if err != nil {
		return nil, err
	}

	instance, err := construct(ctor)
	if err != nil {
		return nil, fmt.Errorf("%w: %s for plugin %s: %w", plugin.ErrPluginLoad, req.Category.Entrypoint(), req.PluginName, err)
	}

	if err := client.Conforms(req.Category, instance); err != nil {
		return nil, err
	}

	if initializer, ok := instance.(plugin.Initializer); ok {
		if err := initializer.Init(env); err != nil {
			return nil, fmt.Errorf("%w: init plugin %s: %w", plugin.ErrPluginLoad, req.PluginName, err)
		}
	}
	return instance, nil
}

func (l *IsolatedLoader) newEnv(dir string, req Request, manifest *plugin.Manifest) *plugin.Env {
	var settings config.Configuration = config.NewConfiguration()
	if l.settings != nil {
		settings = l.settings.PluginSettings(req.PluginName)
	}
	return &plugin.Env{
		PluginName: req.PluginName,
		Category:   req.Category,
		Dir:        dir,
		Manifest:   manifest,
		Settings:   settings,
		Logger:     l.pluginLog.WithPlugin(req.PluginName).WithCategory(req.Category.String()),
	}
}

// resolve 优先使用插件目录中的共享库，否则使用编译期链接的入口
func (l *IsolatedLoader) resolve(dir string, req Request, manifest *plugin.Manifest) (plugin.Constructor, error) {
	if lib := libraryFile(dir, req.PluginName, manifest); lib != "" {
		path := filepath.Join(dir, filepath.FromSlash(lib))
		l.log.Debug("Opening shared library",
			zap.String("plugin", req.PluginName),
			zap.String("path", path))
		ctor, err := l.openShared(path, req.Category)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", plugin.ErrPluginLoad, err)
		}
		return ctor, nil
	}

	ctor, ok := l.entrypoints.Lookup(req.PluginName, req.Category)
	if !ok {
		return nil, fmt.Errorf("%w: plugin %s has no %s entry point", plugin.ErrPluginLoad, req.PluginName, req.Category.Entrypoint())
	}
	return ctor, nil
}

func construct(ctor plugin.Constructor) (instance any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("constructor panicked: %v", r)
		}
	}()
	instance = ctor()
	if instance == nil {
		return nil, errors.New("constructor returned nil")
	}
	return instance, nil
}

func checkDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: plugin directory %s: %w", plugin.ErrPluginLoad, dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", plugin.ErrPluginLoad, dir)
	}
	return nil
}
