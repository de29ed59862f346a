package rate

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	//go:embed slidingwindow.lua
	slidingWindowLua       string
	slidingWindowLuaScript = redis.NewScript(slidingWindowLua)
)

// SlidingWindowLimiter 每个 key 在 window 内最多放行 limit 次
type SlidingWindowLimiter struct {
	client redis.UniversalClient
	prefix string
	window time.Duration
	limit  int
	script *redis.Script
}

func NewSlidingWindowLimiter(client redis.UniversalClient, prefix string, window time.Duration, limit int) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		client: client,
		prefix: prefix,
		window: window,
		limit:  limit,
		script: slidingWindowLuaScript,
	}
}

func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return l.AllowN(ctx, key, time.Now(), 1)
}

func (l *SlidingWindowLimiter) AllowN(ctx context.Context, key string, t time.Time, n int) (bool, error) {
	if n <= 0 {
		return false, ErrInvalidN
	}

	result, err := l.script.Run(ctx, l.client, []string{keyOf(l.prefix, key)},
		l.window.Milliseconds(), l.limit, t.UnixMilli(), n, uuid.NewString()).Int64()
	if err != nil {
		return false, fmt.Errorf("rate: sliding window: %w", err)
	}
	return result == 1, nil
}
