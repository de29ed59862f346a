package api

import (
	"context"
	"strings"

	khttp "github.com/kochabx/phoneshop/core/net/http"
	"github.com/kochabx/phoneshop/errors"
)

type CategoryService service

func (s *CategoryService) List(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := s.client.get(ctx, "/categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *CategoryService) Products(ctx context.Context, id int64) ([]Product, error) {
	var out []Product
	if err := s.client.get(ctx, pathf("/categories/%d/products", id), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *CategoryService) Create(ctx context.Context, name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.Validation("category name is required")
	}
	var out Category
	if err := s.client.do(ctx, khttp.MethodPost, "/admin/categories", Category{Name: name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CategoryService) Update(ctx context.Context, id int64, name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.Validation("category name is required")
	}
	var out Category
	if err := s.client.do(ctx, khttp.MethodPut, pathf("/admin/categories/%d", id), Category{ID: id, Name: name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	return s.client.do(ctx, khttp.MethodDelete, pathf("/admin/categories/%d", id), nil, nil)
}
