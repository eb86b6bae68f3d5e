package logger

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	globalLogger *Logger
	mu           sync.RWMutex
)

// LogLevel 日志级别
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level      LogLevel `json:"level" koanf:"level"`
	OutputPath string   `json:"output_path" koanf:"output_path"`
	// 开发模式：更易读的格式，生产模式：JSON格式
	Development bool `json:"development" koanf:"development"`
	// 是否输出到控制台
	Console bool `json:"console" koanf:"console"`
}

// DefaultConfig 默认配置
func DefaultConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:       LevelInfo,
		Development: true,
		Console:     true,
	}
}

// Logger 全局日志管理器
type Logger struct {
	appLogger       *zap.Logger // 应用级别日志
	componentLogger *zap.Logger // 组件级别日志
	pluginLogger    *zap.Logger // 插件级别日志
	level           zap.AtomicLevel
	config          *LoggerConfig
}

// Initialize 初始化全局日志管理器，重复调用会替换已有实例
func Initialize(config *LoggerConfig) error {
	if config == nil {
		config = DefaultConfig()
	}
	l, err := newLogger(config)
	if err != nil {
		return err
	}

	mu.Lock()
	globalLogger = l
	mu.Unlock()
	return nil
}

func newLogger(config *LoggerConfig) (*Logger, error) {
	zapConfig := zap.NewProductionConfig()
	if config.Development {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapConfig.DisableStacktrace = false
	zapConfig.EncoderConfig.StacktraceKey = "stacktrace"
	zapConfig.Level = zap.NewAtomicLevelAt(config.Level.zapLevel())

	var outputPaths []string
	if config.Console {
		outputPaths = append(outputPaths, "stderr")
	}
	if config.OutputPath != "" {
		outputPaths = append(outputPaths, config.OutputPath)
	}
	if len(outputPaths) == 0 {
		outputPaths = []string{"stderr"}
	}
	zapConfig.OutputPaths = outputPaths
	zapConfig.ErrorOutputPaths = outputPaths

	zapConfig.EncoderConfig.TimeKey = "timestamp"
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.EncoderConfig.MessageKey = "message"
	zapConfig.EncoderConfig.LevelKey = "level"

	// 调用者总是指向logger包内部
	zapConfig.DisableCaller = true

	baseLogger, err := zapConfig.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return fromBase(baseLogger, zapConfig.Level, config), nil
}

func fromBase(base *zap.Logger, level zap.AtomicLevel, config *LoggerConfig) *Logger {
	return &Logger{
		appLogger:       base.Named("APP"),
		componentLogger: base.Named("COMPONENT"),
		pluginLogger:    base.Named("PLUGIN"),
		level:           level,
		config:          config,
	}
}

// Nop 丢弃全部输出的日志器，供测试与嵌入方使用
func Nop() *Logger {
	return fromBase(zap.NewNop(), zap.NewAtomicLevel(), DefaultConfig())
}

// GetLogger 获取全局日志器，未初始化时使用默认配置
func GetLogger() *Logger {
	mu.RLock()
	l := globalLogger
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if globalLogger == nil {
		var err error
		if globalLogger, err = newLogger(DefaultConfig()); err != nil {
			globalLogger = Nop()
		}
	}
	return globalLogger
}

// ApplicationLogger 应用级日志接口
type ApplicationLogger interface {
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Debug(msg string, fields ...zap.Field)
}

// ComponentLogger 组件级日志接口
type ComponentLogger interface {
	ApplicationLogger
	WithComponent(component string) ComponentLogger
}

// PluginLogger 插件级日志接口，每个插件加载环境持有一个
type PluginLogger interface {
	ApplicationLogger
	WithPlugin(name string) PluginLogger
	WithCategory(category string) PluginLogger
	With(fields ...zap.Field) PluginLogger
}

// App 获取应用级日志器
func (l *Logger) App() ApplicationLogger {
	return &zapAdapter{logger: l.appLogger}
}

// Component 获取组件级日志器
func (l *Logger) Component() ComponentLogger {
	return &zapAdapter{logger: l.componentLogger}
}

// Plugin 获取插件级日志器
func (l *Logger) Plugin() PluginLogger {
	return &zapAdapter{logger: l.pluginLogger}
}

// zapAdapter 三层日志器的共同实现
type zapAdapter struct {
	logger *zap.Logger
}

func (a *zapAdapter) Info(msg string, fields ...zap.Field) {
	a.logger.Info(msg, fields...)
}

func (a *zapAdapter) Warn(msg string, fields ...zap.Field) {
	a.logger.Warn(msg, fields...)
}

func (a *zapAdapter) Error(msg string, fields ...zap.Field) {
	a.logger.Error(msg, fields...)
}

func (a *zapAdapter) Debug(msg string, fields ...zap.Field) {
	a.logger.Debug(msg, fields...)
}

func (a *zapAdapter) WithComponent(component string) ComponentLogger {
	return &zapAdapter{logger: a.logger.Named(component)}
}

func (a *zapAdapter) WithPlugin(name string) PluginLogger {
	return &zapAdapter{logger: a.logger.Named(name).With(zap.String("plugin", name))}
}

func (a *zapAdapter) WithCategory(category string) PluginLogger {
	return &zapAdapter{logger: a.logger.With(zap.String("category", category))}
}

func (a *zapAdapter) With(fields ...zap.Field) PluginLogger {
	return &zapAdapter{logger: a.logger.With(fields...)}
}

// Sync 同步所有缓冲的日志
func (l *Logger) Sync() error {
	for _, zl := range []*zap.Logger{l.appLogger, l.componentLogger, l.pluginLogger} {
		if err := zl.Sync(); err != nil {
			return err
		}
	}
	return nil
}

// SetLevel 动态调整日志级别
func (l *Logger) SetLevel(level LogLevel) {
	l.level.SetLevel(level.zapLevel())
}

// Level 当前日志级别
func (l *Logger) Level() LogLevel {
	return LogLevel(l.level.Level().String())
}

// 全局便捷方法

// App 获取应用级日志器
func App() ApplicationLogger {
	return GetLogger().App()
}

// Component 获取组件级日志器
func Component() ComponentLogger {
	return GetLogger().Component()
}

// Plugin 获取插件级日志器
func Plugin() PluginLogger {
	return GetLogger().Plugin()
}

// Sync 同步所有日志
func Sync() error {
	return GetLogger().Sync()
}

// SetLevel 动态设置全局日志级别
func SetLevel(level LogLevel) {
	GetLogger().SetLevel(level)
}

// ComponentWithName 创建带组件名的日志器
func ComponentWithName(component string) ComponentLogger {
	return Component().WithComponent(component)
}

// PluginWithName 创建带插件名的日志器
func PluginWithName(name string) PluginLogger {
	return Plugin().WithPlugin(name)
}
