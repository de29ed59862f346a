package api

import (
	"context"
	"net/url"
	"strings"

	"github.com/kochabx/phoneshop/core/auth/jwt"
	khttp "github.com/kochabx/phoneshop/core/net/http"
	"github.com/kochabx/phoneshop/errors"
)

// 后端设置的 cookie 名
const (
	CookieAccessToken  = "auth_token"
	CookieRefreshToken = "refresh_token"
)

type AuthService service

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	FullName string `json:"fullName" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,vnphone"`
}

// Login 提交登录信息，后端通过 cookie 返回凭据
func (s *AuthService) Login(ctx context.Context, cred Credentials) (*Message, error) {
	if err := s.client.validate(ctx, cred); err != nil {
		return nil, err
	}
	var out Message
	if err := s.client.do(ctx, khttp.MethodPost, "/auth/login", cred, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*Message, error) {
	if err := s.client.validate(ctx, req); err != nil {
		return nil, err
	}
	var out Message
	if err := s.client.do(ctx, khttp.MethodPost, "/auth/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Verify 确认邮箱验证 token，"已验证" 不视为错误
func (s *AuthService) Verify(ctx context.Context, token string) (*Message, error) {
	if token == "" {
		return nil, errors.Validation("verification token is required")
	}

	var out Message
	err := s.client.get(ctx, "/auth/verify", url.Values{"token": {token}}, &out)
	if err != nil {
		if msg := errors.FromError(err).Message; strings.Contains(msg, "xác minh") {
			return &Message{Message: msg}, nil
		}
		return nil, err
	}
	return &out, nil
}

func (s *AuthService) ForgotPassword(ctx context.Context, email string) (*Message, error) {
	return s.postEmail(ctx, "/auth/forgot-password", email)
}

func (s *AuthService) ResendVerification(ctx context.Context, email string) (*Message, error) {
	return s.postEmail(ctx, "/auth/resend-verification", email)
}

func (s *AuthService) postEmail(ctx context.Context, path, email string) (*Message, error) {
	if err := s.client.validator.Var(email, "required,email"); err != nil {
		return nil, errors.Validation("invalid email: %v", err)
	}
	var out Message
	if err := s.client.do(ctx, khttp.MethodPost, path, map[string]string{"email": email}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) (*Message, error) {
	if token == "" || len(newPassword) < 6 {
		return nil, errors.Validation("token and a password of at least 6 characters are required")
	}
	var out Message
	body := map[string]string{"token": token, "newPassword": newPassword}
	if err := s.client.do(ctx, khttp.MethodPost, "/auth/reset-password", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh 轮换认证 cookie。请求接口自带共享刷新（khttp 客户端即是）时使用它，
// 主动刷新与 401 恢复不会同时进行
func (s *AuthService) Refresh(ctx context.Context) error {
	if r, ok := s.client.doer.(interface{ Refresh(context.Context) error }); ok {
		return r.Refresh(ctx)
	}
	return s.client.do(ctx, khttp.MethodPost, khttp.DefaultRefreshPath, nil, nil)
}

func (s *AuthService) Logout(ctx context.Context) error {
	return s.client.do(ctx, khttp.MethodPost, "/auth/logout", nil, nil)
}

// CheckCookie 后端看到的认证 cookie 状态
func (s *AuthService) CheckCookie(ctx context.Context) (map[string]any, error) {
	out := map[string]any{}
	if err := s.client.get(ctx, "/auth/check-cookie", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CurrentUser 请求 /users/me，响应中没有 expiresAt 时从访问凭据 cookie 读取
func (s *AuthService) CurrentUser(ctx context.Context) (*User, error) {
	var u User
	if err := s.client.get(ctx, "/users/me", nil, &u); err != nil {
		return nil, err
	}

	if u.ExpiresAt == nil {
		if token, ok := s.accessToken(); ok {
			if exp, err := jwt.ExpiresAt(token); err == nil {
				u.ExpiresAt = &exp
			}
		}
	}
	return &u, nil
}

// AccessToken 请求接口暴露 cookie 时返回当前访问凭据
func (s *AuthService) AccessToken() (string, bool) {
	return s.accessToken()
}

func (s *AuthService) accessToken() (string, bool) {
	jar, ok := s.client.doer.(interface{ Cookie(string) (string, bool) })
	if !ok {
		return "", false
	}
	return jar.Cookie(CookieAccessToken)
}
