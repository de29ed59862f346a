package etcd

import "time"

// Config ETCD 配置
type Config struct {
	Endpoints   []string      `json:"endpoints" mapstructure:"endpoints"`
	Username    string        `json:"username" mapstructure:"username"`
	Password    string        `json:"password" mapstructure:"password"`
	DialTimeout time.Duration `json:"dialTimeout" mapstructure:"dial_timeout"`
	// Prefix 所有键的前缀，末尾自动补 "/"
	Prefix    string `json:"prefix" mapstructure:"prefix"`
	Namespace string `json:"namespace" mapstructure:"namespace"`
}

func (c Config) withDefaults() Config {
	if len(c.Endpoints) == 0 {
		c.Endpoints = []string{"localhost:2379"}
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.Prefix == "" {
		c.Prefix = "/shopctl"
	}
	if c.Namespace == "" {
		c.Namespace = "default"
	}
	return c
}

// root 命名空间根路径，形如 /shopctl/default/
func (c Config) root() string {
	p := c.Prefix
	if p[len(p)-1] != '/' {
		p += "/"
	}
	return p + c.Namespace + "/"
}
