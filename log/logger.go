package log

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"

	"github.com/kochabx/phoneshop/log/desensitize"
	"github.com/kochabx/phoneshop/log/writer"
)

// Logger 日志记录器
type Logger struct {
	zerolog.Logger
	desensitizeHook *desensitize.Hook
	closer          io.Closer
}

func init() {
	zerolog.TimeFieldFormat = time.DateTime
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
}

// DesensitizeHook 返回脱敏钩子，未设置时为 nil
func (l *Logger) DesensitizeHook() *desensitize.Hook {
	return l.desensitizeHook
}

// Close 释放文件句柄
func (l *Logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

// Named 派生带有组件名的子日志
func (l *Logger) Named(component string) *Logger {
	return &Logger{
		Logger:          l.Logger.With().Str("component", component).Logger(),
		desensitizeHook: l.desensitizeHook,
	}
}

func newLogger(w io.Writer, opts ...Option) *Logger {
	staged := &Logger{Logger: zerolog.New(io.Discard)}
	for _, opt := range opts {
		opt(staged)
	}

	// 脱敏需要在 writer 层完成，先确定钩子再构建 Logger
	if staged.desensitizeHook != nil {
		w = desensitize.NewWriter(w, staged.desensitizeHook)
	}

	logger := &Logger{
		Logger:          zerolog.New(w).With().Timestamp().Logger(),
		desensitizeHook: staged.desensitizeHook,
	}
	for _, opt := range opts {
		opt(logger)
	}
	return logger
}

// New 创建输出到控制台的 Logger
func New(opts ...Option) *Logger {
	return newLogger(writer.Console(), opts...)
}

// NewWriter 创建输出到任意 writer 的 Logger，测试中常用
func NewWriter(w io.Writer, opts ...Option) *Logger {
	return newLogger(w, opts...)
}

// NewFile 创建输出到轮转文件的 Logger
func NewFile(c FileConfig, opts ...Option) (*Logger, error) {
	w, err := writer.File(c.withDefaults().toWriterConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create file writer: %w", err)
	}

	logger := newLogger(w, opts...)
	if closer, ok := w.(io.Closer); ok {
		logger.closer = closer
	}
	return logger, nil
}

// NewMulti 同时输出到文件和控制台
func NewMulti(c FileConfig, opts ...Option) (*Logger, error) {
	fw, err := writer.File(c.withDefaults().toWriterConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create file writer: %w", err)
	}

	logger := newLogger(zerolog.MultiLevelWriter(fw, writer.Console()), opts...)
	if closer, ok := fw.(io.Closer); ok {
		logger.closer = closer
	}
	return logger, nil
}

// FromConfig 根据配置构建 Logger
func FromConfig(c Config) (*Logger, error) {
	opts := []Option{WithLevel(ParseLevel(c.Level))}
	if c.Caller {
		opts = append(opts, WithCaller())
	}
	if c.Desensitize {
		opts = append(opts, WithDesensitize(desensitize.Default()))
	}

	switch c.Output {
	case OutputFile:
		return NewFile(c.File, opts...)
	case OutputMulti:
		return NewMulti(c.File, opts...)
	case OutputConsole, "":
		return New(opts...), nil
	default:
		return nil, fmt.Errorf("unsupported log output: %s", c.Output)
	}
}
