package mockapi

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/kochabx/phoneshop/api"
	"github.com/kochabx/phoneshop/core/auth/jwt"
	"github.com/kochabx/phoneshop/errors"
	transporthttp "github.com/kochabx/phoneshop/transport/http"
)

func (s *Server) login(c *gin.Context) {
	if s.limiter != nil {
		ok, err := s.limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			s.logger.Warn().Err(err).Msg("login limiter unavailable")
		} else if !ok {
			s.metrics.ObserveLogin("limited")
			transporthttp.GinJSONE(c, errors.TooManyRequests("Quá nhiều lần đăng nhập. Vui lòng thử lại sau."))
			return
		}
	}

	var cred api.Credentials
	if !s.bind(c, &cred) {
		return
	}

	s.data.mu.RLock()
	acc, ok := s.data.accountByEmail(cred.Email)
	var user api.User
	var hash []byte
	if ok {
		user, hash = acc.user, acc.hash
	}
	s.data.mu.RUnlock()

	if !ok || bcrypt.CompareHashAndPassword(hash, []byte(cred.Password)) != nil {
		s.metrics.ObserveLogin("failure")
		transporthttp.GinJSONE(c, errors.BadRequest("Email hoặc mật khẩu không đúng"))
		return
	}
	if !user.Verified {
		s.metrics.ObserveLogin("failure")
		transporthttp.GinJSONE(c, errors.Forbidden("Tài khoản chưa được xác minh. Vui lòng kiểm tra email."))
		return
	}

	pair, err := s.auth.Generate(c.Request.Context(), jwt.UserClaims{UserID: user.ID, Email: user.Email, Roles: user.Roles})
	if err != nil {
		transporthttp.GinJSONE(c, err)
		return
	}
	s.setAuthCookies(c, pair)
	s.metrics.ObserveLogin("success")
	transporthttp.GinMessage(c, "Đăng nhập thành công")
}

func (s *Server) refresh(c *gin.Context) {
	s.faults.refreshCalls.Add(1)
	s.metrics.ObserveRefresh()

	if take(&s.faults.failRefresh) {
		transporthttp.GinJSONE(c, errors.Unauthorized("Refresh token không hợp lệ"))
		return
	}

	token, err := c.Cookie(api.CookieRefreshToken)
	if err != nil || token == "" {
		transporthttp.GinJSONE(c, errors.Unauthorized("Không tìm thấy refresh token"))
		return
	}

	pair, claims, err := s.auth.Refresh(c.Request.Context(), token)
	if err != nil {
		transporthttp.GinJSONE(c, errors.Unauthorized("Refresh token không hợp lệ hoặc đã hết hạn").WithCause(err))
		return
	}

	s.data.mu.RLock()
	_, exists := s.data.accounts[claims.UserID]
	s.data.mu.RUnlock()
	if !exists {
		transporthttp.GinJSONE(c, errors.Unauthorized("Tài khoản không tồn tại"))
		return
	}

	s.faults.expireAccess.Store(false)
	s.setAuthCookies(c, pair)
	transporthttp.GinMessage(c, "Làm mới token thành công")
}

// logout revokes whatever tokens the caller still holds. It never fails.
func (s *Server) logout(c *gin.Context) {
	for _, name := range []string{api.CookieAccessToken, api.CookieRefreshToken} {
		if token, err := c.Cookie(name); err == nil && token != "" {
			if err := s.auth.Revoke(c.Request.Context(), token); err != nil {
				s.logger.Warn().Err(err).Str("cookie", name).Msg("revoke token")
			}
		}
	}
	s.clearAuthCookies(c)
	transporthttp.GinMessage(c, "Đăng xuất thành công")
}

func (s *Server) checkCookie(c *gin.Context) {
	access, _ := c.Cookie(api.CookieAccessToken)
	refresh, _ := c.Cookie(api.CookieRefreshToken)
	out := gin.H{
		"hasAuthToken":    access != "",
		"hasRefreshToken": refresh != "",
	}
	if access != "" {
		_, err := s.verifyAccess(c.Request.Context(), access)
		out["authTokenValid"] = err == nil
	}
	transporthttp.GinJSON(c, out)
}

func (s *Server) register(c *gin.Context) {
	var req api.RegisterRequest
	if !s.bind(c, &req) {
		return
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	if _, taken := s.data.accountByEmail(req.Email); taken {
		transporthttp.GinJSONE(c, errors.Conflict("Email đã được sử dụng"))
		return
	}
	acc, err := s.data.addAccount(api.User{
		FullName:  strings.TrimSpace(req.FullName),
		Email:     req.Email,
		Phone:     req.Phone,
		Roles:     []string{api.RoleCustomer},
		Provider:  "LOCAL",
		CreatedAt: api.NewTime(s.now()),
	}, req.Password)
	if err != nil {
		transporthttp.GinJSONE(c, err)
		return
	}
	acc.verifyToken = uuid.NewString()
	s.logger.Info().Str("email", acc.user.Email).Str("token", acc.verifyToken).Msg("verification mail queued")
	transporthttp.GinMessage(c, "Đăng ký thành công. Vui lòng kiểm tra email để xác minh tài khoản.")
}

// VerificationToken 返回 email 待确认的验证 token，在测试和演示中代替邮箱
func (s *Server) VerificationToken(email string) (string, bool) {
	s.data.mu.RLock()
	defer s.data.mu.RUnlock()
	acc, ok := s.data.accountByEmail(email)
	if !ok || acc.verifyToken == "" {
		return "", false
	}
	return acc.verifyToken, true
}

// ResetToken 与 VerificationToken 对应的重置密码 token
func (s *Server) ResetToken(email string) (string, bool) {
	s.data.mu.RLock()
	defer s.data.mu.RUnlock()
	acc, ok := s.data.accountByEmail(email)
	if !ok || acc.resetToken == "" {
		return "", false
	}
	return acc.resetToken, true
}

func (s *Server) verify(c *gin.Context) {
	token := c.Query("token")

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	for _, acc := range s.data.accounts {
		if token == "" || acc.verifyToken != token {
			continue
		}
		if acc.user.Verified {
			transporthttp.GinJSONE(c, errors.BadRequest("Tài khoản đã được xác minh trước đó"))
			return
		}
		acc.user.Verified = true
		transporthttp.GinMessage(c, "Xác minh tài khoản thành công")
		return
	}
	transporthttp.GinJSONE(c, errors.BadRequest("Mã xác minh không hợp lệ"))
}

type emailBody struct {
	Email string `json:"email" validate:"required,email"`
}

func (s *Server) forgotPassword(c *gin.Context) {
	var body emailBody
	if !s.bind(c, &body) {
		return
	}

	s.data.mu.Lock()
	if acc, ok := s.data.accountByEmail(body.Email); ok {
		acc.resetToken = uuid.NewString()
	}
	s.data.mu.Unlock()

	// same answer for unknown emails
	transporthttp.GinMessage(c, "Nếu email tồn tại, hướng dẫn đặt lại mật khẩu đã được gửi.")
}

func (s *Server) resendVerification(c *gin.Context) {
	var body emailBody
	if !s.bind(c, &body) {
		return
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	acc, ok := s.data.accountByEmail(body.Email)
	if !ok {
		transporthttp.GinJSONE(c, errors.NotFound("Không tìm thấy tài khoản"))
		return
	}
	if acc.user.Verified {
		transporthttp.GinJSONE(c, errors.BadRequest("Tài khoản đã được xác minh trước đó"))
		return
	}
	acc.verifyToken = uuid.NewString()
	transporthttp.GinMessage(c, "Đã gửi lại email xác minh")
}

type resetBody struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

func (s *Server) resetPassword(c *gin.Context) {
	var body resetBody
	if !s.bind(c, &body) {
		return
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	for _, acc := range s.data.accounts {
		if acc.resetToken != body.Token {
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), s.data.cost)
		if err != nil {
			transporthttp.GinJSONE(c, err)
			return
		}
		acc.hash, acc.resetToken = hash, ""
		transporthttp.GinMessage(c, "Đặt lại mật khẩu thành công")
		return
	}
	transporthttp.GinJSONE(c, errors.BadRequest("Mã đặt lại mật khẩu không hợp lệ hoặc đã hết hạn"))
}
