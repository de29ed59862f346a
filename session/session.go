// Package session 维护当前登录状态：校验身份、按时刷新访问凭据，
// 并决定何时把调用方送回登录页
package session

import (
	"context"
	"time"

	"github.com/kochabx/phoneshop/api"
	"github.com/kochabx/phoneshop/errors"
)

// State 会话生命周期中的状态
type State string

const (
	Unauthenticated State = "unauthenticated"
	Verifying       State = "verifying"
	Authenticated   State = "authenticated"
	// Refreshing 属于 Authenticated 的子状态
	Refreshing State = "refreshing"
	Expired    State = "expired"
)

// ExpiredMessage 刷新彻底失败后展示给用户的提示
const ExpiredMessage = "Phiên đăng nhập đã hết hạn. Vui lòng đăng nhập lại."

var (
	ErrSessionExpired = errors.Session(ExpiredMessage)
	ErrNotSignedIn    = errors.Unauthorized("not signed in")
	// ErrSessionEnded 登出或过期之后才完成的操作返回此错误
	ErrSessionEnded = errors.Unauthorized("session ended")
)

// Config 会话参数，零值字段取默认值
type Config struct {
	// RefreshBuffer 距过期多久触发刷新
	RefreshBuffer   time.Duration `json:"refreshBuffer" mapstructure:"refresh_buffer"`
	CacheTTL        time.Duration `json:"cacheTTL" mapstructure:"cache_ttl"`
	RefreshAttempts int           `json:"refreshAttempts" mapstructure:"refresh_attempts" validate:"gte=0"`
	RefreshDelay    time.Duration `json:"refreshDelay" mapstructure:"refresh_delay"`
	LoginRoute      string        `json:"loginRoute" mapstructure:"login_route"`
	HomeRoute       string        `json:"homeRoute" mapstructure:"home_route"`
	ExpiredMessage  string        `json:"expiredMessage" mapstructure:"expired_message"`
}

func DefaultConfig() Config {
	return Config{
		RefreshBuffer:   5 * time.Minute,
		CacheTTL:        60 * time.Second,
		RefreshAttempts: 3,
		RefreshDelay:    time.Second,
		LoginRoute:      "/auth/login",
		HomeRoute:       "/",
		ExpiredMessage:  ExpiredMessage,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.RefreshBuffer <= 0 {
		c.RefreshBuffer = def.RefreshBuffer
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = def.CacheTTL
	}
	if c.RefreshAttempts <= 0 {
		c.RefreshAttempts = def.RefreshAttempts
	}
	if c.RefreshDelay < 0 {
		c.RefreshDelay = def.RefreshDelay
	}
	if c.LoginRoute == "" {
		c.LoginRoute = def.LoginRoute
	}
	if c.HomeRoute == "" {
		c.HomeRoute = def.HomeRoute
	}
	if c.ExpiredMessage == "" {
		c.ExpiredMessage = def.ExpiredMessage
	}
	return c
}

// Backend 会话所需的认证接口
type Backend interface {
	Login(ctx context.Context, cred api.Credentials) error
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*api.User, error)
	Refresh(ctx context.Context) error
}

// Navigator 跳转到指定路由，replace 为 true 时替换当前历史记录
type Navigator interface {
	Navigate(path string, replace bool)
}

// NavigatorFunc 函数适配为 Navigator
type NavigatorFunc func(path string, replace bool)

func (f NavigatorFunc) Navigate(path string, replace bool) {
	f(path, replace)
}

// CartClearer 登出时清空购物车
type CartClearer interface {
	Clear(ctx context.Context) error
}

// Timer 可取消的单次定时任务，*scheduler.Timer 实现了该接口
type Timer interface {
	Schedule(d time.Duration, fn func())
	Stop() bool
}

// NewBackend 把 api.AuthService 适配为 Backend
func NewBackend(s *api.AuthService) Backend {
	return authBackend{s}
}

type authBackend struct {
	auth *api.AuthService
}

func (b authBackend) Login(ctx context.Context, cred api.Credentials) error {
	_, err := b.auth.Login(ctx, cred)
	return err
}

func (b authBackend) Logout(ctx context.Context) error {
	return b.auth.Logout(ctx)
}

func (b authBackend) CurrentUser(ctx context.Context) (*api.User, error) {
	return b.auth.CurrentUser(ctx)
}

func (b authBackend) Refresh(ctx context.Context) error {
	return b.auth.Refresh(ctx)
}
