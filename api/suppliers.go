package api

import (
	"context"
	"net/url"

	khttp "github.com/kochabx/phoneshop/core/net/http"
)

type SupplierService service

func (s *SupplierService) List(ctx context.Context) ([]Supplier, error) {
	var out []Supplier
	if err := s.client.get(ctx, "/suppliers", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SupplierService) Get(ctx context.Context, id int64) (*Supplier, error) {
	var out Supplier
	if err := s.client.get(ctx, pathf("/suppliers/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *SupplierService) Create(ctx context.Context, sup Supplier) (*Supplier, error) {
	if err := s.client.validate(ctx, sup); err != nil {
		return nil, err
	}
	var out Supplier
	if err := s.client.do(ctx, khttp.MethodPost, "/suppliers", sup, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *SupplierService) Update(ctx context.Context, id int64, sup Supplier) (*Supplier, error) {
	if err := s.client.validate(ctx, sup); err != nil {
		return nil, err
	}
	var out Supplier
	if err := s.client.do(ctx, khttp.MethodPut, pathf("/suppliers/%d", id), sup, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *SupplierService) Delete(ctx context.Context, id int64) error {
	return s.client.do(ctx, khttp.MethodDelete, pathf("/suppliers/%d", id), nil, nil)
}

func (s *SupplierService) Search(ctx context.Context, name string) ([]Supplier, error) {
	var out []Supplier
	if err := s.client.get(ctx, "/suppliers/search", url.Values{"name": {name}}, &out); err != nil {
		return nil, err
	}
	return out, nil
}
