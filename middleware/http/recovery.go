package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"runtime/debug"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/phoneshop/log"
)

// RecoveryConfig Recovery 中间件配置
type RecoveryConfig struct {
	StackTrace bool // 是否记录堆栈信息
	Logger     *log.Logger
}

// Recovery 捕获 panic 并返回 500
func Recovery(cfgs ...RecoveryConfig) gin.HandlerFunc {
	cfg := RecoveryConfig{StackTrace: true}
	if len(cfgs) > 0 {
		cfg = cfgs[0]
	}
	if cfg.Logger == nil {
		cfg.Logger = log.G
	}

	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			// 只记录请求行和头部，Cookie 由日志脱敏 hook 处理
			dump, _ := httputil.DumpRequest(c.Request, false)

			if isBrokenPipe(rec) {
				cfg.Logger.Warn().Str("error", fmt.Sprint(rec)).Bytes("request", dump).Msg("broken pipe")
				_ = c.Error(fmt.Errorf("%v", rec))
				c.Abort()
				return
			}

			event := cfg.Logger.Error().Str("error", fmt.Sprint(rec)).Bytes("request", dump)
			if cfg.StackTrace {
				event = event.Bytes("stack", debug.Stack())
			}
			event.Msg("panic recovered")
			abort(c, http.StatusInternalServerError, "Lỗi hệ thống")
		}()
		c.Next()
	}
}

func isBrokenPipe(rec any) bool {
	err, ok := rec.(error)
	if !ok {
		return false
	}
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET)
}
