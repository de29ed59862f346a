package redis

import (
	"context"
	"runtime"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"github.com/kochabx/phoneshop/log"
)

// Client Redis 统一客户端（支持单机/集群/哨兵模式）
type Client struct {
	client redis.UniversalClient
	config Config
	logger *log.Logger
}

// New 根据配置自动选择单机/集群/哨兵模式，创建后立即 Ping
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &clientOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	logger := o.logger
	if logger == nil {
		logger = log.G
	}

	c := &Client{
		config: cfg,
		logger: logger,
		client: redis.NewUniversalClient(universalOptions(cfg)),
	}

	var ok bool
	defer func() {
		if !ok {
			_ = c.client.Close()
		}
	}()

	if err := c.setupHooks(o); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		return nil, err
	}

	ok = true
	c.logger.Debug().Str("mode", cfg.mode()).Strs("addrs", cfg.Addrs).Msg("redis client created")
	return c, nil
}

func universalOptions(cfg Config) *redis.UniversalOptions {
	poolSize := cfg.PoolSize
	if poolSize == 0 {
		poolSize = 10 * runtime.GOMAXPROCS(0)
	}

	return &redis.UniversalOptions{
		Addrs:        cfg.Addrs,
		MasterName:   cfg.MasterName,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Protocol:     cfg.Protocol,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     poolSize,
		MinIdleConns: cfg.MinIdleConns,
	}
}

func (c *Client) setupHooks(o *clientOptions) error {
	for _, hook := range o.hooks {
		c.client.AddHook(hook)
	}

	if o.enableTracing {
		if err := redisotel.InstrumentTracing(c.client, o.tracingOpts...); err != nil {
			return err
		}
	}

	if o.enableDebug {
		c.client.AddHook(NewDebugHook(c.logger, o.slowQueryThresh))
	}
	return nil
}

// UniversalClient 获取底层 redis.UniversalClient
func (c *Client) UniversalClient() redis.UniversalClient {
	return c.client
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Client) Close() error {
	err := c.client.Close()
	c.logger.Debug().Msg("redis client closed")
	return err
}

// Stats 连接池统计信息
func (c *Client) Stats() *redis.PoolStats {
	return c.client.PoolStats()
}
