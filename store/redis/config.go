package redis

import (
	"time"
)

// Config Redis 统一配置（支持单机/集群/哨兵模式）
type Config struct {
	// Addrs 单机一个地址，集群多个地址，哨兵模式为哨兵地址
	Addrs []string `json:"addrs" mapstructure:"addrs"`

	// MasterName 哨兵模式的主节点名称
	MasterName string `json:"masterName" mapstructure:"master_name"`

	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`

	// DB 集群模式忽略
	DB int `json:"db" mapstructure:"db"`

	// Protocol 2: RESP2，3: RESP3
	Protocol int `json:"protocol" mapstructure:"protocol"`

	DialTimeout  time.Duration `json:"dialTimeout" mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `json:"readTimeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `json:"writeTimeout" mapstructure:"write_timeout"`

	// PoolSize 0 表示使用默认值: 10 * runtime.GOMAXPROCS
	PoolSize     int `json:"poolSize" mapstructure:"pool_size"`
	MinIdleConns int `json:"minIdleConns" mapstructure:"min_idle_conns"`

	// KeyPrefix 存储键前缀，用于隔离不同的客户端配置
	KeyPrefix string `json:"keyPrefix" mapstructure:"key_prefix"`

	// TTL 存储键过期时间，0 表示不过期
	TTL time.Duration `json:"ttl" mapstructure:"ttl"`
}

// withDefaults 应用默认值
func (c Config) withDefaults() Config {
	if c.Protocol == 0 {
		c.Protocol = 3
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 3 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 3 * time.Second
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "shopctl:"
	}
	return c
}

// Validate 验证配置是否有效
func (c Config) Validate() error {
	if len(c.Addrs) == 0 {
		return ErrEmptyAddrs
	}
	if c.DialTimeout < 0 || c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return ErrInvalidTimeout
	}
	return nil
}

func (c Config) IsSentinel() bool {
	return c.MasterName != ""
}

func (c Config) IsCluster() bool {
	return len(c.Addrs) > 1 && c.MasterName == ""
}

// mode 客户端模式
func (c Config) mode() string {
	switch {
	case c.IsSentinel():
		return "sentinel"
	case c.IsCluster():
		return "cluster"
	default:
		return "single"
	}
}
