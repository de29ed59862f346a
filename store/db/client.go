package db

import (
	"context"
	"database/sql"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kochabx/phoneshop/log"
)

// Client 数据库客户端
type Client struct {
	config  Config
	db      *gorm.DB
	sqlDB   *sql.DB
	options *clientOptions
	logger  *log.Logger
}

// New 创建数据库客户端并测试连接
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg = cfg.withDefaults()

	options := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	c := &Client{
		config:  cfg,
		options: options,
		logger:  options.logger,
	}
	if c.logger == nil {
		c.logger = log.G
	}

	if err := c.connect(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), options.connectTimeout)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}

	c.logger.Debug().Str("driver", cfg.Driver.String()).Msg("database client created")
	return c, nil
}

func (c *Client) connect() error {
	dialector, err := c.dialector()
	if err != nil {
		return err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(gormLogWriter{logger: c.logger}, logger.Config{
			LogLevel:                  parseLevel(c.config.Level),
			SlowThreshold:             c.options.slowQueryThresh,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxIdleConns(c.config.MaxIdleConns)
	sqlDB.SetMaxOpenConns(c.config.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(c.config.ConnMaxLifetime)

	for _, plugin := range c.options.plugins {
		if err := db.Use(plugin); err != nil {
			return err
		}
	}

	c.db = db
	c.sqlDB = sqlDB
	return nil
}

func (c *Client) dialector() (gorm.Dialector, error) {
	dsn := c.config.dsn()

	switch c.config.Driver {
	case DriverMySQL:
		return mysql.Open(dsn), nil
	case DriverPostgres:
		return postgres.Open(dsn), nil
	case DriverSQLite:
		return sqlite.Open(dsn), nil
	default:
		return nil, ErrUnsupportedDriver
	}
}

// DB 获取 GORM 数据库实例
func (c *Client) DB() *gorm.DB {
	return c.db
}

func (c *Client) Ping(ctx context.Context) error {
	if c.sqlDB == nil {
		return ErrNotInitialized
	}
	return c.sqlDB.PingContext(ctx)
}

func (c *Client) Close() error {
	if c.sqlDB != nil {
		return c.sqlDB.Close()
	}
	return nil
}

// Stats 连接池统计信息
func (c *Client) Stats() sql.DBStats {
	if c.sqlDB == nil {
		return sql.DBStats{}
	}
	return c.sqlDB.Stats()
}

func parseLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return logger.Silent
	}
}

// gormLogWriter 适配 log 到 GORM logger.Writer
type gormLogWriter struct {
	logger *log.Logger
}

func (w gormLogWriter) Printf(format string, args ...any) {
	w.logger.Debug().Msgf(format, args...)
}
