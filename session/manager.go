package session

import (
	"context"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kochabx/phoneshop/api"
	"github.com/kochabx/phoneshop/core/metrics"
	"github.com/kochabx/phoneshop/core/scheduler"
	"github.com/kochabx/phoneshop/errors"
	"github.com/kochabx/phoneshop/events"
	"github.com/kochabx/phoneshop/log"
	"github.com/kochabx/phoneshop/store"
)

// timerCallTimeout 定时器触发的刷新没有调用方 context，以此限制耗时
const timerCallTimeout = 30 * time.Second

type cacheEntry struct {
	user *api.User
	at   time.Time
}

// Manager 持有当前会话，所有方法并发安全
type Manager struct {
	backend   Backend
	storage   store.Storage
	navigator Navigator
	cart      CartClearer
	timer     Timer
	routes    *Routes
	config    Config
	logger    *log.Logger
	metrics   *metrics.Client
	publisher events.Publisher
	now       func() time.Time

	verifying atomic.Bool

	mu     sync.Mutex
	state  State
	user   *api.User
	cache  cacheEntry
	err    error
	reason string
	// epoch 每次会话被销毁时递增，旧 epoch 下发起的操作不得写回结果
	epoch uint64
}

type Option func(*Manager)

func WithConfig(c Config) Option {
	return func(m *Manager) {
		m.config = c
	}
}

func WithRoutes(r *Routes) Option {
	return func(m *Manager) {
		m.routes = r
	}
}

func WithNavigator(n Navigator) Option {
	return func(m *Manager) {
		m.navigator = n
	}
}

func WithCart(c CartClearer) Option {
	return func(m *Manager) {
		m.cart = c
	}
}

func WithTimer(t Timer) Option {
	return func(m *Manager) {
		m.timer = t
	}
}

func WithLogger(l *log.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

func WithMetrics(c *metrics.Client) Option {
	return func(m *Manager) {
		m.metrics = c
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(m *Manager) {
		m.publisher = p
	}
}

// WithClock 替换 time.Now，用于测试
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(backend Backend, storage store.Storage, opts ...Option) *Manager {
	m := &Manager{
		backend:   backend,
		storage:   storage,
		navigator: NavigatorFunc(func(string, bool) {}),
		routes:    DefaultRoutes(),
		config:    DefaultConfig(),
		logger:    log.G,
		publisher: events.Nop{},
		now:       time.Now,
		state:     Unauthenticated,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.config = m.config.withDefaults()
	if m.timer == nil {
		m.timer = scheduler.NewTimer()
	}
	return m
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// User 返回当前用户的副本，未登录时为 nil
func (m *Manager) User() *api.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

func (m *Manager) Authenticated() bool {
	s := m.State()
	return s == Authenticated || s == Refreshing
}

// Err 最近一次展示给用户的认证错误
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Reason Err 对应的提示文本
func (m *Manager) Reason() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reason
}

// Routes 当前使用的公开路由表
func (m *Manager) Routes() *Routes {
	return m.routes
}

// Verify 在展示 path 之前确定会话状态。已有校验在进行时直接返回 nil
func (m *Manager) Verify(ctx context.Context, path string) error {
	if !m.verifying.CompareAndSwap(false, true) {
		m.logger.Debug().Str("path", path).Msg("verification already in progress")
		return nil
	}
	defer m.verifying.Store(false)

	if m.routes.IsPublic(path) {
		return m.verifyPublic(ctx)
	}
	return m.verifyProtected(ctx, path)
}

func (m *Manager) verifyPublic(ctx context.Context) error {
	m.mu.Lock()
	if m.user != nil {
		m.mu.Unlock()
		return nil
	}
	epoch := m.epoch
	m.mu.Unlock()

	var u api.User
	err := store.GetJSON(ctx, m.storage, store.KeyAuth, &u)
	switch {
	case errors.Is(err, store.ErrNotFound):
		m.setState(Unauthenticated)
		return nil
	case err != nil:
		m.logger.Warn().Err(err).Msg("discarding unreadable stored session")
		_ = m.storage.Delete(ctx, store.KeyAuth)
		m.setState(Unauthenticated)
		return nil
	}

	if !m.fresh(&u) {
		if err := m.storage.Delete(ctx, store.KeyAuth); err != nil {
			m.logger.Warn().Err(err).Msg("remove stale session")
		}
		m.setState(Unauthenticated)
		return nil
	}

	m.adopt(&u, epoch, true)
	return nil
}

func (m *Manager) verifyProtected(ctx context.Context, path string) error {
	epoch := m.currentEpoch()
	if u, ok := m.cached(); ok {
		// 命中缓存不续期，窗口从上一次拉取算起
		m.adopt(u, epoch, false)
		return nil
	}

	m.mu.Lock()
	if m.user != nil && m.fresh(m.user) {
		u := m.user
		m.cache = cacheEntry{user: u, at: m.now()}
		m.state = Authenticated
		m.arm(u)
		m.mu.Unlock()
		return nil
	}
	prev := m.state
	m.state = Verifying
	m.mu.Unlock()
	m.metrics.ObserveSession(string(Verifying))

	u, err := m.backend.CurrentUser(ctx)
	if err == nil {
		return m.authenticate(ctx, u, epoch)
	}

	if errors.IsAuth(err) || errors.IsSession(err) {
		err := m.refreshCycle(ctx, epoch)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrSessionEnded):
			return err
		}
		return m.expire(ctx, path, err)
	}

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return ErrSessionEnded
	}
	m.err = err
	m.reason = errors.FromError(err).Message
	if prev == Verifying {
		prev = Unauthenticated
	}
	if m.user == nil {
		prev = Unauthenticated
	}
	m.state = prev
	m.mu.Unlock()
	m.logger.Warn().Err(err).Str("path", path).Msg("session verification failed")
	return err
}

// Login 登录并加载用户。失败时丢弃原有会话，Reason 为后端返回的提示
func (m *Manager) Login(ctx context.Context, cred api.Credentials) (*api.User, error) {
	epoch := m.currentEpoch()
	if err := m.backend.Login(ctx, cred); err != nil {
		m.failLogin(ctx, err)
		return nil, err
	}

	u, err := m.backend.CurrentUser(ctx)
	if err != nil {
		m.failLogin(ctx, err)
		return nil, err
	}
	if err := m.authenticate(ctx, u, epoch); err != nil {
		return nil, err
	}
	m.publish(ctx, events.SessionLogin, u)
	return m.User(), nil
}

// Logout 无论处于何种状态都结束会话，后端失败只记录日志，本地照常清理
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	u := m.user
	m.epoch++
	m.timer.Stop()
	m.user = nil
	m.cache = cacheEntry{}
	m.err = nil
	m.reason = ""
	m.state = Unauthenticated
	m.mu.Unlock()

	if err := m.backend.Logout(ctx); err != nil {
		m.logger.Warn().Err(err).Msg("backend logout failed")
	}

	var errs []error
	if m.cart != nil {
		if err := m.cart.Clear(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := m.storage.Clear(ctx); err != nil {
		errs = append(errs, err)
	}

	m.metrics.ObserveSession(string(Unauthenticated))
	if u != nil {
		m.publish(ctx, events.SessionLogout, u)
	}
	m.navigator.Navigate(m.config.HomeRoute, true)
	return errors.Join(errs...)
}

// Refresh 立即执行一次刷新流程
func (m *Manager) Refresh(ctx context.Context) error {
	return m.refreshCycle(ctx, m.currentEpoch())
}

// refreshCycle 用刷新凭据换取新的访问凭据并重新加载用户，最多尝试
// RefreshAttempts 次，间隔 RefreshDelay。epoch 之后会话已被销毁时返回 ErrSessionEnded
func (m *Manager) refreshCycle(ctx context.Context, epoch uint64) error {
	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return ErrSessionEnded
	}
	prev := m.state
	m.state = Refreshing
	m.mu.Unlock()
	m.metrics.ObserveSession(string(Refreshing))

	var user *api.User
	err := scheduler.Retry(ctx, m.config.RefreshAttempts, scheduler.NewFixedDelay(m.config.RefreshDelay),
		func(ctx context.Context) error {
			if err := m.backend.Refresh(ctx); err != nil {
				return err
			}
			if u, ok := m.cached(); ok {
				user = u
				return nil
			}
			u, err := m.backend.CurrentUser(ctx)
			if err != nil {
				return err
			}
			user = u
			return nil
		},
		scheduler.OnFailure(func(a scheduler.Attempt) {
			m.logger.Warn().Err(a.Err).Int("attempt", a.Number).Int("of", m.config.RefreshAttempts).
				Dur("next", a.Next).Msg("session refresh failed")
		}),
	)
	m.metrics.ObserveRefresh(err)

	if err != nil {
		m.mu.Lock()
		if m.epoch == epoch && m.state == Refreshing {
			m.state = prev
		}
		m.mu.Unlock()
		return err
	}

	if err := m.authenticate(ctx, user, epoch); err != nil {
		return err
	}
	m.publish(ctx, events.SessionRefreshed, user)
	return nil
}

// expire 刷新彻底失败后清理会话，非公开路由跳转登录页并带上返回地址
func (m *Manager) expire(ctx context.Context, path string, cause error) error {
	m.mu.Lock()
	m.epoch++
	m.timer.Stop()
	u := m.user
	m.user = nil
	m.cache = cacheEntry{}
	m.state = Expired
	m.err = ErrSessionExpired.WithCause(cause)
	m.reason = m.config.ExpiredMessage
	err := m.err
	m.mu.Unlock()

	if derr := m.storage.Delete(ctx, store.KeyAuth); derr != nil {
		m.logger.Warn().Err(derr).Msg("remove expired session")
	}
	m.logger.Error().Err(cause).Str("path", path).Msg("session expired")
	m.metrics.ObserveSession(string(Expired))
	m.publish(ctx, events.SessionExpired, u)

	if path != "" && !m.routes.IsPublic(path) {
		m.navigator.Navigate(m.LoginURL(path), false)
	}
	return err
}

// LoginURL 带 reason 与 returnUrl 的登录地址
func (m *Manager) LoginURL(returnURL string) string {
	q := url.Values{}
	if r := m.Reason(); r != "" {
		q.Set("reason", r)
	}
	if returnURL != "" {
		q.Set("returnUrl", returnURL)
	}
	if len(q) == 0 {
		return m.config.LoginRoute
	}
	return m.config.LoginRoute + "?" + q.Encode()
}

func (m *Manager) authenticate(ctx context.Context, u *api.User, epoch uint64) error {
	if u == nil {
		return ErrNotSignedIn
	}
	if !m.adopt(u, epoch, true) {
		m.logger.Debug().Int64("user_id", u.ID).Msg("session ended while loading user, result dropped")
		return ErrSessionEnded
	}
	if err := store.SetJSON(ctx, m.storage, store.KeyAuth, u); err != nil {
		m.logger.Warn().Err(err).Msg("persist session")
		return err
	}
	// 写入期间发生登出时撤回刚写入的凭据
	if m.currentEpoch() != epoch {
		if err := m.storage.Delete(ctx, store.KeyAuth); err != nil {
			m.logger.Warn().Err(err).Msg("remove superseded session")
		}
		return ErrSessionEnded
	}
	return nil
}

// adopt 设 u 为当前用户并启动刷新定时器，stamp 为 true 时重新计算缓存窗口。
// epoch 之后会话已被销毁时不做任何修改并返回 false
func (m *Manager) adopt(u *api.User, epoch uint64, stamp bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch {
		return false
	}
	m.user = u
	if stamp {
		m.cache = cacheEntry{user: u, at: m.now()}
	}
	m.state = Authenticated
	m.err = nil
	m.reason = ""
	m.arm(u)
	m.metrics.ObserveSession(string(Authenticated))
	return true
}

// failLogin 登录失败时清理本地会话并记录 err
func (m *Manager) failLogin(ctx context.Context, err error) {
	m.mu.Lock()
	m.epoch++
	m.timer.Stop()
	m.user = nil
	m.cache = cacheEntry{}
	m.state = Unauthenticated
	m.err = err
	m.reason = errors.FromError(err).Message
	m.mu.Unlock()
	m.metrics.ObserveSession(string(Unauthenticated))

	if derr := m.storage.Delete(ctx, store.KeyAuth); derr != nil {
		m.logger.Warn().Err(derr).Msg("remove session after failed login")
	}
}

// arm 在过期前 RefreshBuffer 处安排刷新，已进入缓冲区的凭据立即刷新。调用方需持有 mu
func (m *Manager) arm(u *api.User) {
	if u == nil || u.ExpiresAt == nil {
		m.timer.Stop()
		return
	}
	delay := max(u.ExpiresAt.Sub(m.now())-m.config.RefreshBuffer, 0)
	m.timer.Schedule(delay, m.onTimer)
}

func (m *Manager) onTimer() {
	ctx, cancel := context.WithTimeout(context.Background(), timerCallTimeout)
	defer cancel()

	err := m.refreshCycle(ctx, m.currentEpoch())
	if err == nil || errors.Is(err, ErrSessionEnded) {
		return
	}

	m.logger.Error().Err(err).Msg("scheduled refresh failed, signing out")
	if lerr := m.Logout(ctx); lerr != nil {
		m.logger.Warn().Err(lerr).Msg("forced logout")
	}

	m.mu.Lock()
	m.state = Expired
	m.err = ErrSessionExpired.WithCause(err)
	m.reason = m.config.ExpiredMessage
	m.mu.Unlock()
	m.metrics.ObserveSession(string(Expired))
}

func (m *Manager) currentEpoch() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epoch
}

// cached 缓存未超过 CacheTTL 时返回缓存的用户
func (m *Manager) cached() (*api.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cache.user == nil || m.now().Sub(m.cache.at) >= m.config.CacheTTL {
		return nil, false
	}
	return m.cache.user, true
}

// fresh 判断 u 在刷新缓冲区之外是否仍然有效
func (m *Manager) fresh(u *api.User) bool {
	return u.ExpiresAt != nil && u.ExpiresAt.After(m.now().Add(m.config.RefreshBuffer))
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
	m.metrics.ObserveSession(string(s))
}

func (m *Manager) publish(ctx context.Context, t events.Type, u *api.User) {
	var subject string
	data := map[string]any{}
	if u != nil {
		subject = u.Email
		data["userId"] = u.ID
	}
	if err := m.publisher.Publish(ctx, events.New(t, subject, data)); err != nil {
		m.logger.Warn().Err(err).Str("event", string(t)).Msg("publish session event")
	}
}
