package rate

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	//go:embed tokenbucket.lua
	tokenBucketLua       string
	tokenBucketLuaScript = redis.NewScript(tokenBucketLua)
)

// TokenBucketLimiter 容量 capacity，每秒补充 rate 个令牌
type TokenBucketLimiter struct {
	client   redis.UniversalClient
	prefix   string
	capacity int
	rate     int
	script   *redis.Script
}

func NewTokenBucketLimiter(client redis.UniversalClient, prefix string, capacity, rate int) *TokenBucketLimiter {
	return &TokenBucketLimiter{
		client:   client,
		prefix:   prefix,
		capacity: capacity,
		rate:     rate,
		script:   tokenBucketLuaScript,
	}
}

func (l *TokenBucketLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return l.AllowN(ctx, key, time.Now(), 1)
}

func (l *TokenBucketLimiter) AllowN(ctx context.Context, key string, t time.Time, n int) (bool, error) {
	if n <= 0 {
		return false, ErrInvalidN
	}

	result, err := l.script.Run(ctx, l.client, []string{keyOf(l.prefix, key)},
		l.capacity, l.rate, t.UnixMilli(), n).Int64()
	if err != nil {
		return false, fmt.Errorf("rate: token bucket: %w", err)
	}
	return result == 1, nil
}
