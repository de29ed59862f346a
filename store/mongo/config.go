package mongo

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Config MongoDB 配置
type Config struct {
	// URI 非空时忽略 Host/Port/User/Password
	URI         string        `json:"uri" mapstructure:"uri"`
	Host        string        `json:"host" mapstructure:"host"`
	Port        int           `json:"port" mapstructure:"port"`
	User        string        `json:"user" mapstructure:"user"`
	Password    string        `json:"password" mapstructure:"password"`
	Database    string        `json:"database" mapstructure:"database"`
	Collection  string        `json:"collection" mapstructure:"collection"`
	Namespace   string        `json:"namespace" mapstructure:"namespace"`
	MaxPoolSize int           `json:"maxPoolSize" mapstructure:"max_pool_size"`
	Timeout     time.Duration `json:"timeout" mapstructure:"timeout"`
}

func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 27017
	}
	if c.Database == "" {
		c.Database = "shopctl"
	}
	if c.Collection == "" {
		c.Collection = "kv"
	}
	if c.Namespace == "" {
		c.Namespace = "default"
	}
	if c.MaxPoolSize <= 0 {
		c.MaxPoolSize = 10
	}
	if c.Timeout <= 0 {
		c.Timeout = 3 * time.Second
	}
	return c
}

// uri 构建 MongoDB 连接字符串
func (c Config) uri() string {
	if c.URI != "" {
		return c.URI
	}

	var b strings.Builder
	b.Grow(128)

	b.WriteString("mongodb://")
	if c.User != "" && c.Password != "" {
		b.WriteString(url.QueryEscape(c.User))
		b.WriteString(":")
		b.WriteString(url.QueryEscape(c.Password))
		b.WriteString("@")
	}
	b.WriteString(c.Host)
	b.WriteString(":")
	b.WriteString(strconv.Itoa(c.Port))
	b.WriteString("/?maxPoolSize=")
	b.WriteString(strconv.Itoa(c.MaxPoolSize))

	return b.String()
}
