package etcd

import (
	"context"
	"strings"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/kochabx/phoneshop/store"
)

// Storage store.Storage 的 etcd 实现
type Storage struct {
	etcd *Etcd
	root string
}

var _ store.Storage = (*Storage)(nil)

func NewStorage(e *Etcd) *Storage {
	return &Storage{etcd: e, root: e.config.root()}
}

// Open 创建客户端与存储，Close 时一并关闭客户端
func Open(cfg Config, opts ...Option) (*Storage, error) {
	e, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return NewStorage(e), nil
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.etcd.client.Get(ctx, s.root+key)
	if err != nil {
		return nil, err
	}
	if len(resp.Kvs) == 0 {
		return nil, store.ErrNotFound
	}
	return resp.Kvs[0].Value, nil
}

func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.etcd.client.Put(ctx, s.root+key, string(value))
	return err
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	_, err := s.etcd.client.Delete(ctx, s.root+key)
	return err
}

func (s *Storage) Keys(ctx context.Context) ([]string, error) {
	resp, err := s.etcd.client.Get(ctx, s.root, clientv3.WithPrefix(), clientv3.WithKeysOnly(),
		clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend))
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		keys = append(keys, strings.TrimPrefix(string(kv.Key), s.root))
	}
	return keys, nil
}

func (s *Storage) Clear(ctx context.Context) error {
	_, err := s.etcd.client.Delete(ctx, s.root, clientv3.WithPrefix())
	return err
}

// Watch 监听命名空间内的变更
func (s *Storage) Watch(ctx context.Context) clientv3.WatchChan {
	return s.etcd.client.Watch(ctx, s.root, clientv3.WithPrefix())
}

func (s *Storage) Close() error {
	return s.etcd.Close()
}
