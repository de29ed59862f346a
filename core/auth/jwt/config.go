package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Config JWT 配置
type Config struct {
	Secret          string        `json:"secret" mapstructure:"secret" validate:"required"`
	SigningMethod   string        `json:"signingMethod" mapstructure:"signing_method"`
	AccessTokenTTL  time.Duration `json:"accessTokenTTL" mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `json:"refreshTokenTTL" mapstructure:"refresh_token_ttl"`
	Issuer          string        `json:"issuer" mapstructure:"issuer"`
}

func (c *Config) withDefaults() {
	if c.SigningMethod == "" {
		c.SigningMethod = "HS256"
	}
	if c.AccessTokenTTL <= 0 {
		c.AccessTokenTTL = DefaultAccessTokenTTL
	}
	if c.RefreshTokenTTL <= 0 {
		c.RefreshTokenTTL = DefaultRefreshTokenTTL
	}
}

// GetSigningMethod 只支持 HMAC 系列
func (c *Config) GetSigningMethod() jwt.SigningMethod {
	switch c.SigningMethod {
	case "HS384":
		return jwt.SigningMethodHS384
	case "HS512":
		return jwt.SigningMethodHS512
	default:
		return jwt.SigningMethodHS256
	}
}

func (c *Config) GetSecret() []byte {
	return []byte(c.Secret)
}

// Option 配置选项
type Option func(*Authenticator)

// WithBlacklist 设置吊销列表，默认内存实现
func WithBlacklist(b Blacklist) Option {
	return func(a *Authenticator) {
		if b != nil {
			a.blacklist = b
		}
	}
}

// WithClock 替换时间源，测试用
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) {
		if now != nil {
			a.now = now
		}
	}
}
