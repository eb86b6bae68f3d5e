package logger

import (
	"time"

	"go.uber.org/zap"
)

// MetricsLogger 性能和指标日志器
type MetricsLogger struct {
	logger ComponentLogger
}

// NewMetricsLogger 创建性能指标日志器
func NewMetricsLogger(component string) *MetricsLogger {
	return &MetricsLogger{
		logger: Component().WithComponent(component),
	}
}

// NewMetricsLoggerWith 基于给定组件日志器创建指标日志器
func NewMetricsLoggerWith(l ComponentLogger) *MetricsLogger {
	return &MetricsLogger{logger: l}
}

// LogLoad 记录一次插件加载的结果
func (ml *MetricsLogger) LogLoad(category, pluginName string, duration time.Duration, err error) {
	if err != nil {
		ml.logger.Warn("Plugin load failed",
			zap.String("category", category),
			zap.String("plugin", pluginName),
			zap.Duration("duration", duration),
			zap.Error(err))
		return
	}
	ml.logger.Info("Plugin loaded",
		zap.String("category", category),
		zap.String("plugin", pluginName),
		zap.Duration("duration", duration))
}

// LogCacheStats 记录某一类别缓存的统计值
func (ml *MetricsLogger) LogCacheStats(category string, hits, loads, failures int64) {
	ml.logger.Debug("Client cache stats",
		zap.String("category", category),
		zap.Int64("hits", hits),
		zap.Int64("loads", loads),
		zap.Int64("failures", failures))
}

// PerformanceTimer 性能计时器
type PerformanceTimer struct {
	startTime time.Time
	logger    *MetricsLogger
	operation string
}

// StartTimer 开始计时
func (ml *MetricsLogger) StartTimer(operation string) *PerformanceTimer {
	return &PerformanceTimer{
		startTime: time.Now(),
		logger:    ml,
		operation: operation,
	}
}

// Stop 停止计时并记录
func (pt *PerformanceTimer) Stop() time.Duration {
	duration := time.Since(pt.startTime)
	pt.logger.logger.Debug("Operation completed",
		zap.String("operation", pt.operation),
		zap.Duration("duration", duration))
	return duration
}

// Elapsed 返回已耗时，不输出日志
func (pt *PerformanceTimer) Elapsed() time.Duration {
	return time.Since(pt.startTime)
}

// Metrics 获取全局指标日志器
func Metrics(component string) *MetricsLogger {
	return NewMetricsLogger(component)
}
