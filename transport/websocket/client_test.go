package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/phoneshop/core/scheduler"
)

// echoServer 回显文本帧；dropAfter > 0 时每个连接收到 dropAfter 条消息后断开
func echoServer(t *testing.T, dropAfter int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var conns atomic.Int32
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conns.Add(1)

		for n := 1; ; n++ {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(mt, data); err != nil {
				return
			}
			if dropAfter > 0 && n >= dropAfter {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &conns
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.Reconnect.Interval = 10 * time.Millisecond
	cfg.Reconnect.MaxInterval = 20 * time.Millisecond
	return cfg
}

func waitConnected(t *testing.T, c *Client) {
	t.Helper()
	require.Eventually(t, c.Connected, 2*time.Second, 5*time.Millisecond)
}

func receive(t *testing.T, c *Client) string {
	t.Helper()
	select {
	case data, ok := <-c.Messages():
		require.True(t, ok, "messages channel closed")
		return string(data)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return ""
	}
}

func TestEcho(t *testing.T) {
	srv, _ := echoServer(t, 0)
	c := NewClient(Static(wsURL(srv)), WithConfig(fastConfig()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	waitConnected(t, c)
	require.NoError(t, c.Send(ctx, []byte("xin chào")))
	assert.Equal(t, "xin chào", receive(t, c))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, c.Connected())
}

func TestSendWhileDisconnected(t *testing.T) {
	c := NewClient(Static("ws://127.0.0.1:1/ws"))
	assert.ErrorIs(t, c.Send(context.Background(), []byte("x")), ErrNotConnected)
}

func TestReconnectAfterDrop(t *testing.T) {
	srv, conns := echoServer(t, 1)

	var connects atomic.Int32
	c := NewClient(Static(wsURL(srv)), WithConfig(fastConfig()), OnConnect(func() { connects.Add(1) }))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	waitConnected(t, c)
	require.NoError(t, c.Send(ctx, []byte("one")))
	assert.Equal(t, "one", receive(t, c))

	// 服务端断开后自动重连
	require.Eventually(t, func() bool { return conns.Load() >= 2 && c.Connected() }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, c.Send(ctx, []byte("two")))
	assert.Equal(t, "two", receive(t, c))
	assert.GreaterOrEqual(t, connects.Load(), int32(2))
}

func TestGiveUpAfterMaxRetries(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	cfg := fastConfig()
	cfg.Reconnect.MaxRetries = 2
	cfg.Reconnect.BreakerFailures = 10
	c := NewClient(Static(wsURL(srv)), WithConfig(cfg), WithBackoff(scheduler.NewFixedDelay(time.Millisecond)))

	err := c.Run(context.Background())
	assert.ErrorIs(t, err, ErrMaxRetries)
	assert.Equal(t, 3, c.Attempts())

	_, ok := <-c.Messages()
	assert.False(t, ok)
}

func TestRunTwice(t *testing.T) {
	srv, _ := echoServer(t, 0)
	c := NewClient(Static(wsURL(srv)), WithConfig(fastConfig()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)
	waitConnected(t, c)

	assert.ErrorIs(t, c.Run(ctx), ErrAlreadyActive)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{PongWait: 10 * time.Second}.withDefaults()
	assert.Equal(t, 9*time.Second, cfg.PingInterval)
	assert.Equal(t, DefaultConfig().BufferSize, cfg.BufferSize)
	assert.False(t, cfg.Reconnect.Enable)
}
