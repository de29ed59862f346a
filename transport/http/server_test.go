package http

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/phoneshop/core/metrics"
	"github.com/kochabx/phoneshop/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestServerHandlers(t *testing.T) {
	prom := metrics.New()
	metrics.NewClient(prom.Registry()).ObserveRetry()

	s := NewServer(":0", gin.New(), WithMetrics(prom, ""), WithHealth(""))

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "phoneshop_")
}

func TestServerServeAndShutdown(t *testing.T) {
	r := gin.New()
	r.GET("/ping", func(c *gin.Context) { GinMessage(c, "pong") })
	s := NewServer("127.0.0.1:0", r)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Serve(l) }()

	resp, err := http.Get("http://" + l.Addr().String() + "/ping")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.JSONEq(t, `{"message":"pong"}`, string(body))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	assert.NoError(t, <-done)
}

func TestGinJSONE(t *testing.T) {
	cases := []struct {
		err    error
		status int
		body   string
	}{
		{errors.Unauthorized("Token đã hết hạn"), 401, `{"message":"Token đã hết hạn"}`},
		{errors.NotFound("Không tìm thấy sản phẩm"), 404, `{"message":"Không tìm thấy sản phẩm"}`},
		{io.EOF, 500, `{"message":"EOF"}`},
		{errors.Transport(io.EOF, "offline"), 500, `{"message":"offline"}`},
		{nil, 500, `{"message":"Internal Server Error"}`},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		GinJSONE(c, tc.err)
		assert.Equal(t, tc.status, w.Code)
		assert.JSONEq(t, tc.body, w.Body.String())
	}
}

func TestGinText(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	GinText(c, "Cập nhật trạng thái thành công")
	assert.Equal(t, "Cập nhật trạng thái thành công", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
}
