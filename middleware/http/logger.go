package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/phoneshop/log"
)

// HeaderRequestID 客户端携带的逻辑请求 ID，重试时保持不变
const HeaderRequestID = "X-Request-Id"

// LoggerConfig 日志中间件配置。请求体和响应体可能含密码与令牌，一律不记录。
type LoggerConfig struct {
	HandlerName bool                    // 是否记录处理器名称
	SkipPaths   []string                // 跳过记录的路径
	SkipFunc    func(*gin.Context) bool // 动态跳过判断函数
	Logger      *log.Logger
}

// Logger 创建日志中间件
func Logger(cfgs ...LoggerConfig) gin.HandlerFunc {
	var cfg LoggerConfig
	if len(cfgs) > 0 {
		cfg = cfgs[0]
	}
	if cfg.Logger == nil {
		cfg.Logger = log.G
	}
	matcher := NewPathMatcher(cfg.SkipPaths)

	return func(c *gin.Context) {
		if shouldSkip(c, matcher, cfg.SkipFunc) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := cfg.Logger.Info()
		switch {
		case status >= 500:
			event = cfg.Logger.Error()
		case status >= 400:
			event = cfg.Logger.Warn()
		}

		event = event.
			Int("status", status).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP())

		if id := c.GetHeader(HeaderRequestID); id != "" {
			event = event.Str("request_id", id)
		}
		if cfg.HandlerName {
			event = event.Str("handler", c.HandlerName())
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.ByType(gin.ErrorTypePrivate).String())
		}
		event.Msg("request")
	}
}
