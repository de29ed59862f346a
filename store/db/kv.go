package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kochabx/phoneshop/store"
)

// entry 键值表的一行
type entry struct {
	Namespace string    `gorm:"column:namespace;primaryKey;size:64"`
	Key       string    `gorm:"column:kv_key;primaryKey;size:128"`
	Value     []byte    `gorm:"column:kv_value"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// Storage store.Storage 的 SQL 实现
type Storage struct {
	client    *Client
	table     string
	namespace string
}

var _ store.Storage = (*Storage)(nil)

// NewStorage 确保键值表存在
func NewStorage(client *Client) (*Storage, error) {
	s := &Storage{
		client:    client,
		table:     client.config.Table,
		namespace: client.config.Namespace,
	}
	if err := s.db(context.Background()).AutoMigrate(&entry{}); err != nil {
		return nil, err
	}
	return s, nil
}

// Open 创建客户端与存储，Close 时一并关闭客户端
func Open(cfg Config, opts ...Option) (*Storage, error) {
	client, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	s, err := NewStorage(client)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return s, nil
}

func (s *Storage) db(ctx context.Context) *gorm.DB {
	return s.client.db.WithContext(ctx).Table(s.table)
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	var e entry
	err := s.db(ctx).Where("namespace = ? AND kv_key = ?", s.namespace, key).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e.Value, nil
}

func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	e := entry{Namespace: s.namespace, Key: key, Value: value, UpdatedAt: time.Now()}
	return s.db(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "kv_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"kv_value", "updated_at"}),
	}).Create(&e).Error
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	return s.db(ctx).Where("namespace = ? AND kv_key = ?", s.namespace, key).Delete(&entry{}).Error
}

func (s *Storage) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := s.db(ctx).Where("namespace = ?", s.namespace).Order("kv_key").Pluck("kv_key", &keys).Error
	return keys, err
}

func (s *Storage) Clear(ctx context.Context) error {
	return s.db(ctx).Where("namespace = ?", s.namespace).Delete(&entry{}).Error
}

func (s *Storage) Close() error {
	return s.client.Close()
}
