// Package rate 基于 Redis Lua 脚本的分布式限流器，按调用方 key 独立计数。
package rate

import (
	"context"
	"errors"
	"time"
)

var ErrInvalidN = errors.New("rate: n must be positive")

// Limiter 限流器
type Limiter interface {
	// Allow 等价于 AllowN(ctx, key, time.Now(), 1)
	Allow(ctx context.Context, key string) (bool, error)
	AllowN(ctx context.Context, key string, t time.Time, n int) (bool, error)
}

func keyOf(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + key
}
