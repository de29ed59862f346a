package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kochabx/phoneshop/store"
)

const scanCount = 100

// Storage store.Storage 的 Redis 实现，所有键带 KeyPrefix
type Storage struct {
	client *Client
	prefix string
	ttl    time.Duration
}

var _ store.Storage = (*Storage)(nil)

// NewStorage 基于已有客户端创建存储
func NewStorage(client *Client) *Storage {
	return &Storage{
		client: client,
		prefix: client.config.KeyPrefix,
		ttl:    client.config.TTL,
	}
}

// Open 创建客户端与存储，Close 时一并关闭客户端
func Open(cfg Config, opts ...Option) (*Storage, error) {
	client, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return NewStorage(client), nil
}

func (s *Storage) key(k string) string {
	return s.prefix + k
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.client.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	return v, err
}

func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	return s.client.client.Set(ctx, s.key(key), value, s.ttl).Err()
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	return s.client.client.Del(ctx, s.key(key)).Err()
}

func (s *Storage) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := s.scan(ctx, func(batch []string) error {
		for _, k := range batch {
			keys = append(keys, strings.TrimPrefix(k, s.prefix))
		}
		return nil
	})
	return keys, err
}

func (s *Storage) Clear(ctx context.Context) error {
	return s.scan(ctx, func(batch []string) error {
		if len(batch) == 0 {
			return nil
		}
		return s.client.client.Del(ctx, batch...).Err()
	})
}

// scan 遍历前缀下的全部键
func (s *Storage) scan(ctx context.Context, fn func([]string) error) error {
	var cursor uint64
	for {
		batch, next, err := s.client.client.Scan(ctx, cursor, s.prefix+"*", scanCount).Result()
		if err != nil {
			return err
		}
		if err := fn(batch); err != nil {
			return err
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (s *Storage) Close() error {
	return s.client.Close()
}
