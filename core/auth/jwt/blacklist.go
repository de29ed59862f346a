package jwt

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Blacklist Token 黑名单接口
type Blacklist interface {
	// Add 添加 jti，ttl 到期后自动移除
	Add(ctx context.Context, jti string, ttl time.Duration) error

	// Contains 检查 jti 是否在黑名单中
	Contains(ctx context.Context, jti string) (bool, error)
}

// MemoryBlacklist 进程内黑名单
type MemoryBlacklist struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (b *MemoryBlacklist) Add(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // 已过期的 token 不需要加入黑名单
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	for k, exp := range b.entries {
		if !now.Before(exp) {
			delete(b.entries, k)
		}
	}
	b.entries[jti] = now.Add(ttl)
	return nil
}

func (b *MemoryBlacklist) Contains(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	exp, ok := b.entries[jti]
	return ok && b.now().Before(exp), nil
}

// RedisBlacklist Redis 黑名单实现，多个 mock 实例共享吊销状态
type RedisBlacklist struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisBlacklist 创建 Redis 黑名单，prefix 为空时使用 "jwt:blacklist:"
func NewRedisBlacklist(client redis.UniversalClient, prefix string) *RedisBlacklist {
	if prefix == "" {
		prefix = "jwt:blacklist:"
	}
	return &RedisBlacklist{client: client, keyPrefix: prefix}
}

func (b *RedisBlacklist) Add(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return b.client.Set(ctx, b.keyPrefix+jti, "1", ttl).Err()
}

func (b *RedisBlacklist) Contains(ctx context.Context, jti string) (bool, error) {
	exists, err := b.client.Exists(ctx, b.keyPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
