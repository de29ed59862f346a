package db

import (
	"time"

	"gorm.io/gorm"

	"github.com/kochabx/phoneshop/log"
)

// Option 客户端配置选项
type Option func(*clientOptions)

type clientOptions struct {
	logger          *log.Logger
	plugins         []gorm.Plugin
	connectTimeout  time.Duration
	slowQueryThresh time.Duration
}

func defaultOptions() *clientOptions {
	return &clientOptions{connectTimeout: 10 * time.Second}
}

func WithLogger(l *log.Logger) Option {
	return func(o *clientOptions) {
		o.logger = l
	}
}

// WithPlugins 添加 GORM 插件
func WithPlugins(plugins ...gorm.Plugin) Option {
	return func(o *clientOptions) {
		o.plugins = append(o.plugins, plugins...)
	}
}

func WithConnectTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		if d > 0 {
			o.connectTimeout = d
		}
	}
}

// WithSlowQuery 启用慢查询日志（threshold 为 0 表示禁用）
func WithSlowQuery(threshold time.Duration) Option {
	return func(o *clientOptions) {
		o.slowQueryThresh = threshold
	}
}
