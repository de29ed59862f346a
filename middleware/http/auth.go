package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/phoneshop/core/auth/jwt"
	"github.com/kochabx/phoneshop/errors"
)

const claimsKey = "auth.claims"

// AuthConfig 认证中间件配置
type AuthConfig struct {
	// Validate 从请求中解析出用户声明，失败时返回 401
	Validate  func(c *gin.Context) (*jwt.UserClaims, error)
	SkipPaths []string
	SkipFunc  func(*gin.Context) bool
}

// Auth 校验请求身份，并把声明放入 gin 上下文
func Auth(cfg AuthConfig) gin.HandlerFunc {
	matcher := NewPathMatcher(cfg.SkipPaths)

	return func(c *gin.Context) {
		if cfg.Validate == nil || shouldSkip(c, matcher, cfg.SkipFunc) {
			c.Next()
			return
		}

		claims, err := cfg.Validate(c)
		if err != nil {
			abort(c, http.StatusUnauthorized, errors.FromError(err).Message)
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// CookieValidator 从指定 Cookie 读取访问令牌
func CookieValidator(auth *jwt.Authenticator, cookie string) func(*gin.Context) (*jwt.UserClaims, error) {
	return func(c *gin.Context) (*jwt.UserClaims, error) {
		token, err := c.Cookie(cookie)
		if err != nil || token == "" {
			return nil, errors.Unauthorized("Chưa đăng nhập")
		}
		return auth.Verify(c.Request.Context(), token, jwt.TokenAccess)
	}
}

// Claims 取出 Auth 写入的声明
func Claims(c *gin.Context) (*jwt.UserClaims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*jwt.UserClaims)
	return claims, ok
}

// RequireRoles 要求至少拥有其中一个角色，否则返回 403
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "Chưa đăng nhập")
			return
		}
		if !slices.ContainsFunc(roles, claims.HasRole) {
			abort(c, http.StatusForbidden, "Không có quyền truy cập")
			return
		}
		c.Next()
	}
}
