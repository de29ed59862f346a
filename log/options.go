package log

import (
	"github.com/rs/zerolog"

	"github.com/kochabx/phoneshop/log/desensitize"
)

// Option Logger 选项函数
type Option func(*Logger)

// WithLevel 设置日志级别
func WithLevel(level zerolog.Level) Option {
	return func(l *Logger) {
		l.Logger = l.Logger.Level(level)
	}
}

// WithCaller 记录调用位置
func WithCaller() Option {
	return func(l *Logger) {
		l.Logger = l.Logger.With().Caller().Logger()
	}
}

// WithComponent 为所有日志附加 component 字段
func WithComponent(name string) Option {
	return func(l *Logger) {
		l.Logger = l.Logger.With().Str("component", name).Logger()
	}
}

// WithDesensitize 设置脱敏钩子
func WithDesensitize(hook *desensitize.Hook) Option {
	return func(l *Logger) {
		l.desensitizeHook = hook
	}
}
