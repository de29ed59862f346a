package etcd

import (
	"context"
	"errors"
	"fmt"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/kochabx/phoneshop/log"
)

var (
	ErrNotInitialized   = errors.New("etcd: client not initialized")
	ErrConnectionFailed = errors.New("etcd: connection failed")
)

// Option Etcd 配置选项函数类型
type Option func(*Etcd)

func WithLogger(l *log.Logger) Option {
	return func(e *Etcd) {
		e.logger = l
	}
}

// Etcd ETCD 客户端
type Etcd struct {
	client *clientv3.Client
	config Config
	logger *log.Logger
}

// New 创建客户端并检查第一个节点状态
func New(cfg Config, opts ...Option) (*Etcd, error) {
	cfg = cfg.withDefaults()

	e := &Etcd{config: cfg, logger: log.G}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		Username:    cfg.Username,
		Password:    cfg.Password,
		DialTimeout: cfg.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	e.client = client

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := e.Ping(ctx); err != nil {
		_ = e.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	e.logger.Debug().Strs("endpoints", cfg.Endpoints).Msg("etcd client created")
	return e, nil
}

func (e *Etcd) Ping(ctx context.Context) error {
	if e.client == nil {
		return ErrNotInitialized
	}
	_, err := e.client.Status(ctx, e.config.Endpoints[0])
	return err
}

// Client 原始 etcd 客户端
func (e *Etcd) Client() *clientv3.Client {
	return e.client
}

func (e *Etcd) Close() error {
	if e.client == nil {
		return nil
	}
	err := e.client.Close()
	e.client = nil
	return err
}
