package redis

import (
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"github.com/kochabx/phoneshop/log"
)

// Option 客户端配置选项
type Option func(*clientOptions)

type clientOptions struct {
	hooks []redis.Hook

	enableTracing bool
	tracingOpts   []redisotel.TracingOption

	enableDebug     bool
	slowQueryThresh time.Duration

	logger *log.Logger
}

// WithHooks 添加自定义 Hooks
func WithHooks(hooks ...redis.Hook) Option {
	return func(o *clientOptions) {
		o.hooks = append(o.hooks, hooks...)
	}
}

// WithTracing 启用 OpenTelemetry 分布式追踪
func WithTracing(opts ...redisotel.TracingOption) Option {
	return func(o *clientOptions) {
		o.enableTracing = true
		o.tracingOpts = opts
	}
}

// WithDebug 记录每条命令，超过 slowQueryThreshold 的记为警告
func WithDebug(slowQueryThreshold time.Duration) Option {
	return func(o *clientOptions) {
		o.enableDebug = true
		o.slowQueryThresh = slowQueryThreshold
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}
