// Package log 提供 hostrpc 统一日志接口
//
// 基于 log/slog。各包持有一个组件 logger：
//
//	var logger = log.Logger("core/dispatch")
//
// 每次调用都取当前的 slog.Default()，因此 SetOutput 之后已有的
// logger 立即生效；组件级别由 HOSTRPC_LOG_LEVEL 控制（见 config.go）。
package log

import (
	"context"
	"io"
	"log/slog"
)

// New 按 HOSTRPC_LOG_FORMAT 创建 text 或 json logger
func New(w io.Writer, opts *slog.HandlerOptions) *slog.Logger {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	if ConfigFromEnv().Format == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// SetOutput 将默认 logger 重定向到 w
//
// 级别下限取环境配置中最低的组件级别，具体过滤由 LazyLogger 完成。
func SetOutput(w io.Writer) {
	SetOutputWithLevel(w, ConfigFromEnv().MinLevel())
}

// SetOutputWithLevel 重定向并指定级别下限
func SetOutputWithLevel(w io.Writer, level slog.Level) {
	slog.SetDefault(New(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: ConfigFromEnv().AddSource,
	}))
}

// LazyLogger 组件 logger
type LazyLogger struct {
	component string
}

// Logger 返回组件 logger
func Logger(component string) *LazyLogger {
	return &LazyLogger{component: component}
}

// Component 返回组件名
func (l *LazyLogger) Component() string { return l.component }

func (l *LazyLogger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args) }
func (l *LazyLogger) Info(msg string, args ...any)  { l.log(slog.LevelInfo, msg, args) }
func (l *LazyLogger) Warn(msg string, args ...any)  { l.log(slog.LevelWarn, msg, args) }
func (l *LazyLogger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args) }

func (l *LazyLogger) log(level slog.Level, msg string, args []any) {
	if !ConfigFromEnv().Enabled(l.component, level) {
		return
	}
	slog.Default().With("component", l.component).Log(context.Background(), level, msg, args...)
}
