package mockapi

import (
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/phoneshop/api"
	"github.com/kochabx/phoneshop/errors"
	transporthttp "github.com/kochabx/phoneshop/transport/http"
)

func (s *Server) me(c *gin.Context) {
	if take(&s.faults.failCurrent) {
		transporthttp.GinJSONE(c, errors.Internal("Lỗi hệ thống"))
		return
	}

	claims := claimsOf(c)
	s.data.mu.RLock()
	acc, ok := s.data.accounts[claims.UserID]
	var user api.User
	if ok {
		user = acc.user
	}
	s.data.mu.RUnlock()

	if !ok {
		transporthttp.GinJSONE(c, errors.Unauthorized("Tài khoản không tồn tại"))
		return
	}
	transporthttp.GinJSON(c, user)
}

func (s *Server) updateMe(c *gin.Context) {
	var req api.UpdateUserRequest
	if !s.bind(c, &req) {
		return
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	acc, ok := s.data.accounts[claimsOf(c).UserID]
	if !ok {
		transporthttp.GinJSONE(c, errors.NotFound("Không tìm thấy người dùng"))
		return
	}
	acc.user.FullName = req.FullName
	acc.user.Phone = req.Phone
	acc.user.Address = req.Address
	if req.AvatarURL != "" {
		acc.user.AvatarURL = req.AvatarURL
	}
	transporthttp.GinJSON(c, acc.user)
}

func (s *Server) users(role string) []api.User {
	s.data.mu.RLock()
	defer s.data.mu.RUnlock()

	out := make([]api.User, 0, len(s.data.accounts))
	for _, acc := range s.data.accounts {
		if role == "" || acc.user.HasRole(role) {
			out = append(out, acc.user)
		}
	}
	slices.SortFunc(out, func(a, b api.User) int { return int(a.ID - b.ID) })
	return out
}

func (s *Server) listUsers(c *gin.Context) {
	transporthttp.GinJSON(c, paginate(s.users(""), queryInt(c, "page", 0), queryInt(c, "size", 10)))
}

func (s *Server) listCustomers(c *gin.Context) {
	transporthttp.GinJSON(c, s.users(api.RoleCustomer))
}

func (s *Server) loyaltyPoints(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if claims := claimsOf(c); claims.UserID != id && !isStaff(claims) {
		transporthttp.GinJSONE(c, errors.Forbidden("Không có quyền truy cập"))
		return
	}

	s.data.mu.RLock()
	acc, found := s.data.accounts[id]
	var points int64
	if found {
		points = acc.points
	}
	s.data.mu.RUnlock()

	if !found {
		transporthttp.GinJSONE(c, errors.NotFound("Không tìm thấy người dùng"))
		return
	}
	transporthttp.GinJSON(c, api.LoyaltyPoints{UserID: id, Points: points})
}
