package api

import (
	"bytes"
	"context"
	"mime/multipart"

	khttp "github.com/kochabx/phoneshop/core/net/http"
	"github.com/kochabx/phoneshop/errors"
)

type UserService service

// Me 与会话校验使用同一个接口
func (s *UserService) Me(ctx context.Context) (*User, error) {
	return (*AuthService)(s).CurrentUser(ctx)
}

func (s *UserService) UpdateMe(ctx context.Context, req UpdateUserRequest) (*User, error) {
	if err := s.client.validate(ctx, req); err != nil {
		return nil, err
	}
	var out User
	if err := s.client.do(ctx, khttp.MethodPut, "/users/me", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadAvatar 以 multipart 字段 "file" 上传头像
func (s *UserService) UploadAvatar(ctx context.Context, filename string, data []byte) (*User, error) {
	if len(data) == 0 {
		return nil, errors.Validation("avatar image is empty")
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	var out User
	err = s.client.do(ctx, khttp.MethodPost, "/users/me/avatar", &buf, &out, khttp.WithContentType(w.FormDataContentType()))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *UserService) List(ctx context.Context, page, size int) (*Page[User], error) {
	var out Page[User]
	if err := s.client.get(ctx, "/users", pageQuery(page, size), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *UserService) Customers(ctx context.Context) ([]User, error) {
	var out []User
	if err := s.client.get(ctx, "/users/customers", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	return s.client.do(ctx, khttp.MethodDelete, pathf("/users/%d", id), nil, nil)
}

func (s *UserService) LoyaltyPoints(ctx context.Context, id int64) (*LoyaltyPoints, error) {
	var out LoyaltyPoints
	if err := s.client.get(ctx, pathf("/users/%d/loyalty-points", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
