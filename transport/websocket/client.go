// Package websocket 自动重连的 WebSocket 客户端
package websocket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kochabx/phoneshop/core/scheduler"
	"github.com/kochabx/phoneshop/log"
)

var (
	ErrNotConnected  = errors.New("websocket: not connected")
	ErrSendTimeout   = errors.New("websocket: send timeout")
	ErrMaxRetries    = errors.New("websocket: max reconnection attempts reached")
	ErrAlreadyActive = errors.New("websocket: client already running")
)

// Target 每次拨号前解析目标地址，便于携带最新的 token
type Target func() (string, error)

// Static 固定地址
func Static(rawURL string) Target {
	return func() (string, error) { return rawURL, nil }
}

// Client WebSocket 客户端。Run 负责拨号、收发与断线重连。
type Client struct {
	config  Config
	target  Target
	header  http.Header
	dialer  *websocket.Dialer
	backoff scheduler.RetryStrategy
	breaker *scheduler.CircuitBreaker
	logger  *log.Logger

	incoming chan []byte
	outgoing chan []byte

	running   atomic.Bool
	connected atomic.Bool
	attempts  atomic.Int64
	onConnect []func()
	mu        sync.Mutex
}

// Option 配置选项
type Option func(*Client)

func WithConfig(cfg Config) Option {
	return func(c *Client) {
		c.config = cfg
	}
}

func WithHeader(h http.Header) Option {
	return func(c *Client) {
		c.header = h
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithBackoff 替换重连退避策略
func WithBackoff(s scheduler.RetryStrategy) Option {
	return func(c *Client) {
		c.backoff = s
	}
}

// OnConnect 每次连接（含重连）成功后回调
func OnConnect(fn func()) Option {
	return func(c *Client) {
		c.onConnect = append(c.onConnect, fn)
	}
}

// NewClient 创建客户端，不会立即连接
func NewClient(target Target, opts ...Option) *Client {
	c := &Client{
		config: DefaultConfig(),
		target: target,
		logger: log.G,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.config = c.config.withDefaults()

	rc := c.config.Reconnect
	if c.backoff == nil {
		c.backoff = scheduler.NewExponentialBackoff(rc.Interval, rc.MaxInterval, rc.Multiplier, true)
	}
	c.breaker = scheduler.NewCircuitBreaker(rc.BreakerFailures, rc.BreakerTimeout)
	c.dialer = &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: c.config.HandshakeTimeout,
	}
	c.incoming = make(chan []byte, c.config.BufferSize)
	c.outgoing = make(chan []byte, c.config.BufferSize)
	return c
}

// Messages 收到的数据帧。Run 返回后关闭。
func (c *Client) Messages() <-chan []byte {
	return c.incoming
}

// Connected 当前是否有可用连接
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// Attempts 当前连续失败的重连次数
func (c *Client) Attempts() int {
	return int(c.attempts.Load())
}

// Send 发送文本帧
func (c *Client) Send(ctx context.Context, data []byte) error {
	if !c.Connected() {
		return ErrNotConnected
	}

	timer := time.NewTimer(c.config.WriteTimeout)
	defer timer.Stop()

	select {
	case c.outgoing <- data:
		return nil
	case <-timer.C:
		return ErrSendTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run 阻塞直到 ctx 取消（返回 nil）或者放弃重连（返回错误）
func (c *Client) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyActive
	}
	defer close(c.incoming)

	for {
		err := c.breaker.Do(func() error {
			conn, err := c.dial(ctx)
			if err != nil {
				return err
			}
			c.attempts.Store(0)
			c.serve(ctx, conn)
			return nil
		})

		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			err = errors.New("connection closed")
		}
		if !c.config.Reconnect.Enable {
			return err
		}

		n := int(c.attempts.Add(1))
		if limit := c.config.Reconnect.MaxRetries; limit > 0 && n > limit {
			return fmt.Errorf("%w: %v", ErrMaxRetries, err)
		}

		delay := c.backoff.NextRetry(n - 1)
		if errors.Is(err, scheduler.ErrCircuitBreakerOpen) {
			delay = max(delay, c.config.Reconnect.BreakerTimeout)
		}
		c.logger.Warn().Err(err).Int("attempt", n).Dur("delay", delay).Msg("websocket reconnecting")

		if err := sleep(ctx, delay); err != nil {
			return nil
		}
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	target, err := c.target()
	if err != nil {
		return nil, fmt.Errorf("resolve websocket url: %w", err)
	}

	conn, resp, err := c.dialer.DialContext(ctx, target, c.header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial: %w", err)
	}
	return conn, nil
}

// serve 在连接断开或 ctx 取消时返回
func (c *Client) serve(ctx context.Context, conn *websocket.Conn) {
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.connected.Store(true)
	defer c.connected.Store(false)
	for _, fn := range c.onConnect {
		fn()
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		<-connCtx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		conn.Close()
	}()
	go func() {
		defer wg.Done()
		defer cancel()
		c.writeLoop(connCtx, conn)
	}()

	c.readLoop(connCtx, conn)
	cancel()
	wg.Wait()
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	conn.SetReadLimit(c.config.MaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				c.logger.Debug().Err(err).Msg("websocket read failed")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(c.config.PongWait))

		select {
		case c.incoming <- data:
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) writeLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case data := <-c.outgoing:
			_ = conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug().Err(err).Msg("websocket write failed")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.config.WriteTimeout)); err != nil {
				return
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
