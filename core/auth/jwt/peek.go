package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Peek 不校验签名读取载荷。客户端没有密钥，只用它读取过期时间与角色。
func Peek(tokenString string) (*UserClaims, error) {
	claims := &UserClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// ExpiresAt 返回 token 的 exp
func ExpiresAt(tokenString string) (time.Time, error) {
	claims, err := Peek(tokenString)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}
	return claims.ExpiresAt.Time, nil
}
