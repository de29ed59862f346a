package db

import (
	"strconv"
	"strings"
	"time"
)

// Driver 数据库驱动类型
type Driver string

const (
	DriverMySQL    Driver = "mysql"
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

func (d Driver) String() string {
	return string(d)
}

// Config 数据库配置。DSN 非空时直接使用，否则按驱动拼接。
type Config struct {
	Driver Driver `json:"driver" mapstructure:"driver"`
	DSN    string `json:"dsn" mapstructure:"dsn"`

	// SQLite 文件路径，":memory:" 表示内存库
	Path string `json:"path" mapstructure:"path"`

	Host     string `json:"host" mapstructure:"host"`
	Port     int    `json:"port" mapstructure:"port"`
	User     string `json:"user" mapstructure:"user"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
	SSLMode  string `json:"sslMode" mapstructure:"ssl_mode"`

	// Table 键值表名
	Table string `json:"table" mapstructure:"table"`
	// Namespace 同一张表内区分不同客户端配置
	Namespace string `json:"namespace" mapstructure:"namespace"`

	// Level silent/error/warn/info
	Level string `json:"level" mapstructure:"level"`

	MaxIdleConns    int           `json:"maxIdleConns" mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `json:"maxOpenConns" mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime" mapstructure:"conn_max_lifetime"`
}

func (c Config) withDefaults() Config {
	if c.Driver == "" {
		c.Driver = DriverSQLite
	}
	if c.Table == "" {
		c.Table = "shopctl_kv"
	}
	if c.Namespace == "" {
		c.Namespace = "default"
	}
	if c.Level == "" {
		c.Level = "silent"
	}
	if c.ConnMaxLifetime <= 0 {
		c.ConnMaxLifetime = time.Hour
	}

	switch c.Driver {
	case DriverSQLite:
		if c.Path == "" {
			c.Path = "shopctl.db"
		}
		// SQLite 单文件，使用单连接
		c.MaxOpenConns, c.MaxIdleConns = 1, 1
	case DriverPostgres:
		c.Host = orDefault(c.Host, "localhost")
		c.Port = orDefaultInt(c.Port, 5432)
		c.SSLMode = orDefault(c.SSLMode, "disable")
	case DriverMySQL:
		c.Host = orDefault(c.Host, "localhost")
		c.Port = orDefaultInt(c.Port, 3306)
	}
	c.MaxIdleConns = orDefaultInt(c.MaxIdleConns, 10)
	c.MaxOpenConns = orDefaultInt(c.MaxOpenConns, 100)
	return c
}

// dsn 生成连接字符串
func (c Config) dsn() string {
	if c.DSN != "" {
		return c.DSN
	}

	var b strings.Builder
	b.Grow(128)

	switch c.Driver {
	case DriverSQLite:
		if c.Path == ":memory:" {
			return "file::memory:?cache=shared&_busy_timeout=5000"
		}
		b.WriteString("file:")
		b.WriteString(c.Path)
		b.WriteString("?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=true")
	case DriverPostgres:
		b.WriteString("host=")
		b.WriteString(c.Host)
		b.WriteString(" port=")
		b.WriteString(strconv.Itoa(c.Port))
		b.WriteString(" user=")
		b.WriteString(c.User)
		b.WriteString(" password=")
		b.WriteString(c.Password)
		b.WriteString(" dbname=")
		b.WriteString(c.Database)
		b.WriteString(" sslmode=")
		b.WriteString(c.SSLMode)
		b.WriteString(" TimeZone=UTC")
	case DriverMySQL:
		b.WriteString(c.User)
		b.WriteString(":")
		b.WriteString(c.Password)
		b.WriteString("@tcp(")
		b.WriteString(c.Host)
		b.WriteString(":")
		b.WriteString(strconv.Itoa(c.Port))
		b.WriteString(")/")
		b.WriteString(c.Database)
		b.WriteString("?charset=utf8mb4&parseTime=true&loc=UTC")
	}
	return b.String()
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orDefaultInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
