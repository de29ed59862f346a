package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// CorsConfig CORS 配置。认证依赖 Cookie，所以源必须逐个列出才能携带凭证。
type CorsConfig struct {
	AllowOrigins     []string // 支持 "*" 与 "*.example.com"
	AllowMethods     []string
	AllowHeaders     []string
	AllowCredentials bool
	MaxAge           int // 秒
}

func DefaultCorsConfig() CorsConfig {
	return CorsConfig{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           43200,
	}
}

// Cors 创建 CORS 中间件
func Cors(cfgs ...CorsConfig) gin.HandlerFunc {
	cfg := DefaultCorsConfig()
	if len(cfgs) > 0 {
		cfg = cfgs[0]
	}

	wildcard := slices.Contains(cfg.AllowOrigins, "*")
	methods := strings.Join(cfg.AllowMethods, ", ")
	headers := strings.Join(cfg.AllowHeaders, ", ")
	maxAge := strconv.Itoa(cfg.MaxAge)

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" || !(wildcard || originAllowed(origin, cfg.AllowOrigins)) {
			c.Next()
			return
		}

		h := c.Writer.Header()
		if wildcard && !cfg.AllowCredentials {
			h.Set("Access-Control-Allow-Origin", "*")
		} else {
			// 携带凭证时浏览器不接受 "*"
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
		}
		if cfg.AllowCredentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}
		h.Set("Access-Control-Allow-Methods", methods)
		h.Set("Access-Control-Allow-Headers", headers)
		h.Set("Access-Control-Max-Age", maxAge)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func originAllowed(origin string, allowed []string) bool {
	for _, a := range allowed {
		if a == origin {
			return true
		}
		if suffix, ok := strings.CutPrefix(a, "*"); ok && strings.HasPrefix(suffix, ".") && strings.HasSuffix(origin, suffix) {
			return true
		}
	}
	return false
}
