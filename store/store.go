// Package store 客户端保存会话、购物车与 cookie 的键值存储，驱动位于子包
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// 约定的键
const (
	KeyAuth    = "auth"
	KeyCart    = "cartItems"
	KeyCookies = "cookies"
)

var (
	ErrNotFound = errors.New("store: key not found")
	ErrClosed   = errors.New("store: closed")
	ErrNotJSON  = errors.New("store: value is not valid JSON")
)

// Storage 单个客户端配置下的扁平键值空间
type Storage interface {
	// Get 键不存在时返回 ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	// Clear 删除空间内所有键
	Clear(ctx context.Context) error
	Close() error
}

// GetJSON 把 key 对应的值解码到 v
func GetJSON(ctx context.Context, s Storage, key string, v any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("store: decode %q: %w", key, err)
	}
	return nil
}

// SetJSON 以 JSON 保存 v
func SetJSON(ctx context.Context, s Storage, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encode %q: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}
