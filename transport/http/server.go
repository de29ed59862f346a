// Package http 基于 gin 的 HTTP 服务，附带 /metrics 与 /health
package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/phoneshop/core/metrics"
	"github.com/kochabx/phoneshop/log"
	"github.com/kochabx/phoneshop/transport"
)

var _ transport.Server = (*Server)(nil)

const (
	defaultName = "http"
	defaultAddr = ":8080"
)

type Server struct {
	name    string
	server  *http.Server
	engine  *gin.Engine
	logger  *log.Logger
	metrics *metrics.Prometheus

	metricsPath string
	healthPath  string
}

type Option func(*Server)

func WithName(name string) Option {
	return func(s *Server) {
		s.name = name
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithMetrics 在 path 上暴露 Prometheus 指标，path 为空时使用 /metrics
func WithMetrics(p *metrics.Prometheus, path string) Option {
	return func(s *Server) {
		if path == "" {
			path = "/metrics"
		}
		s.metrics = p
		s.metricsPath = path
	}
}

// WithHealth 在 path 上返回 {"status":"ok"}
func WithHealth(path string) Option {
	return func(s *Server) {
		if path == "" {
			path = "/health"
		}
		s.healthPath = path
	}
}

func NewServer(addr string, engine *gin.Engine, opts ...Option) *Server {
	s := &Server{
		name:   defaultName,
		engine: engine,
		logger: log.G,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.metrics != nil {
		engine.GET(s.metricsPath, gin.WrapH(s.metrics.Handler()))
	}
	if s.healthPath != "" {
		engine.GET(s.healthPath, func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
	}

	s.server = &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler 返回路由，测试中可直接交给 httptest
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Run() error {
	if !transport.ValidateAddress(s.server.Addr) {
		s.logger.Warn().Msgf("invalid address %q, using %s", s.server.Addr, defaultAddr)
		s.server.Addr = defaultAddr
	}

	l, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Serve 在已有监听上提供服务。正常关闭时返回 nil。
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info().Msgf("%s server listening on %s", s.name, l.Addr())
	if err := s.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
