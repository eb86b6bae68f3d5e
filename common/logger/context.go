package logger

import (
	"context"
)

type contextKey string

const (
	PluginNameKey contextKey = "pluginName"
	CategoryKey   contextKey = "category"
)

// WithPluginName 在context中添加插件名
func WithPluginName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, PluginNameKey, name)
}

// WithCategory 在context中添加客户端类别
func WithCategory(ctx context.Context, category string) context.Context {
	return context.WithValue(ctx, CategoryKey, category)
}

// GetPluginName 从context中获取插件名
func GetPluginName(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(PluginNameKey).(string)
	return name, ok
}

// GetCategory 从context中获取客户端类别
func GetCategory(ctx context.Context) (string, bool) {
	category, ok := ctx.Value(CategoryKey).(string)
	return category, ok
}

// PluginLoggerFromContext 从context创建带插件信息的日志器
func PluginLoggerFromContext(ctx context.Context) PluginLogger {
	l := Plugin()

	if name, ok := GetPluginName(ctx); ok {
		l = l.WithPlugin(name)
	}

	if category, ok := GetCategory(ctx); ok {
		l = l.WithCategory(category)
	}

	return l
}
