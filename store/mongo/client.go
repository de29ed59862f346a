package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/kochabx/phoneshop/log"
)

var ErrConnectionFailed = errors.New("mongo: connection failed")

// Option 配置选项函数类型
type Option func(*Client)

func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// Client MongoDB 客户端包装器
type Client struct {
	client *mongo.Client
	config Config
	logger *log.Logger
}

// New 创建客户端并测试连接
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg = cfg.withDefaults()

	c := &Client{config: cfg, logger: log.G}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.connect(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	c.logger.Debug().Str("database", cfg.Database).Msg("mongo client created")
	return c, nil
}

func (c *Client) connect() error {
	opts := options.Client().
		ApplyURI(c.config.uri()).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
		SetBSONOptions(&options.BSONOptions{UseJSONStructTags: true, NilSliceAsEmpty: true}).
		SetMaxPoolSize(uint64(c.config.MaxPoolSize)).
		SetConnectTimeout(c.config.Timeout).
		SetServerSelectionTimeout(c.config.Timeout)

	client, err := mongo.Connect(context.Background(), opts)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	c.client = client
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Disconnect(context.Background())
}

// Database 配置中的数据库
func (c *Client) Database() *mongo.Database {
	return c.client.Database(c.config.Database)
}
