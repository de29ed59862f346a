package mockapi

import "time"

// Config 模拟后端配置
type Config struct {
	Addr       string        `json:"addr" mapstructure:"addr"`
	Secret     string        `json:"secret" mapstructure:"secret"`
	AccessTTL  time.Duration `json:"accessTTL" mapstructure:"access_ttl"`
	RefreshTTL time.Duration `json:"refreshTTL" mapstructure:"refresh_ttl"`
	// LoginLimit attempts per LoginWindow and client address. Only enforced
	// when a limiter is configured.
	LoginLimit  int           `json:"loginLimit" mapstructure:"login_limit"`
	LoginWindow time.Duration `json:"loginWindow" mapstructure:"login_window"`
	// AllowOrigins for CORS with credentials.
	AllowOrigins []string `json:"allowOrigins" mapstructure:"allow_origins"`
}

func DefaultConfig() Config {
	return Config{
		Addr:         ":8080",
		Secret:       "phoneshop-mock-secret",
		AccessTTL:    15 * time.Minute,
		RefreshTTL:   7 * 24 * time.Hour,
		LoginLimit:   5,
		LoginWindow:  time.Minute,
		AllowOrigins: []string{"http://localhost:3000"},
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Addr == "" {
		c.Addr = d.Addr
	}
	if c.Secret == "" {
		c.Secret = d.Secret
	}
	if c.AccessTTL <= 0 {
		c.AccessTTL = d.AccessTTL
	}
	if c.RefreshTTL <= 0 {
		c.RefreshTTL = d.RefreshTTL
	}
	if c.LoginLimit <= 0 {
		c.LoginLimit = d.LoginLimit
	}
	if c.LoginWindow <= 0 {
		c.LoginWindow = d.LoginWindow
	}
	if len(c.AllowOrigins) == 0 {
		c.AllowOrigins = d.AllowOrigins
	}
	return c
}
