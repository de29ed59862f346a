package jwt

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// RegisteredClaims JWT 标准 Claims 类型别名
type RegisteredClaims = jwt.RegisteredClaims

// TokenType 区分 access 与 refresh token
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// UserClaims 用户 token 载荷
type UserClaims struct {
	UserID int64     `json:"userId"`
	Email  string    `json:"email"`
	Roles  []string  `json:"roles,omitempty"`
	Type   TokenType `json:"type"`
	RegisteredClaims
}

// HasRole 是否拥有角色
func (c *UserClaims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// TokenPair Access Token 和 Refresh Token 对
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	AccessTTL    int64  `json:"accessTTL"`  // seconds
	RefreshTTL   int64  `json:"refreshTTL"` // seconds
}
