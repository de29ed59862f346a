package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Authenticator 签发、校验、轮换用户 token
type Authenticator struct {
	config    Config
	blacklist Blacklist
	now       func() time.Time
}

// New 创建认证器
func New(config Config, opts ...Option) (*Authenticator, error) {
	if config.Secret == "" {
		return nil, ErrEmptySecret
	}
	config.withDefaults()

	a := &Authenticator{
		config:    config,
		blacklist: NewMemoryBlacklist(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Config 返回生效配置
func (a *Authenticator) Config() Config {
	return a.config
}

// Generate 为同一用户签发 token 对，各自有独立 JTI
func (a *Authenticator) Generate(ctx context.Context, claims UserClaims) (*TokenPair, error) {
	access, err := a.sign(claims, TokenAccess, a.config.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refresh, err := a.sign(claims, TokenRefresh, a.config.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessTTL:    int64(a.config.AccessTokenTTL / time.Second),
		RefreshTTL:   int64(a.config.RefreshTokenTTL / time.Second),
	}, nil
}

// SignAccess 只签发 access token，用于测试构造特定过期时间
func (a *Authenticator) SignAccess(claims UserClaims, ttl time.Duration) (string, error) {
	return a.sign(claims, TokenAccess, ttl)
}

func (a *Authenticator) sign(claims UserClaims, typ TokenType, ttl time.Duration) (string, error) {
	now := a.now()
	claims.Type = typ
	claims.RegisteredClaims = RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   fmt.Sprint(claims.UserID),
		Issuer:    a.config.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(a.config.GetSigningMethod(), &claims)
	return token.SignedString(a.config.GetSecret())
}

// Verify 校验签名、过期、类型与吊销状态
func (a *Authenticator) Verify(ctx context.Context, tokenString string, want TokenType) (*UserClaims, error) {
	claims := &UserClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != a.config.GetSigningMethod().Alg() {
			return nil, ErrInvalidSignature
		}
		return a.config.GetSecret(), nil
	}, jwt.WithTimeFunc(a.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != want {
		return nil, ErrWrongTokenType
	}

	revoked, err := a.blacklist.Contains(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check blacklist: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	return claims, nil
}

// Refresh 校验 refresh token，吊销它并签发新的 token 对
func (a *Authenticator) Refresh(ctx context.Context, refreshToken string) (*TokenPair, *UserClaims, error) {
	claims, err := a.Verify(ctx, refreshToken, TokenRefresh)
	if err != nil {
		return nil, nil, fmt.Errorf("verify refresh token: %w", err)
	}

	if err := a.revoke(ctx, claims); err != nil {
		return nil, nil, err
	}

	pair, err := a.Generate(ctx, *claims)
	if err != nil {
		return nil, nil, err
	}
	return pair, claims, nil
}

// Revoke 吊销 token 直到其自然过期，无效 token 直接忽略
func (a *Authenticator) Revoke(ctx context.Context, tokenString string) error {
	claims := &UserClaims{}
	if _, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return a.config.GetSecret(), nil
	}, jwt.WithTimeFunc(a.now)); err != nil {
		return nil
	}
	return a.revoke(ctx, claims)
}

func (a *Authenticator) revoke(ctx context.Context, claims *UserClaims) error {
	if claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(a.now())
	if err := a.blacklist.Add(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}
