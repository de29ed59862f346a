package api

import (
	"context"
	"net/url"
	"strconv"

	khttp "github.com/kochabx/phoneshop/core/net/http"
	"github.com/kochabx/phoneshop/errors"
)

type ProductService service

func (s *ProductService) Search(ctx context.Context, keyword string, page, size int) (*Page[Product], error) {
	q := pageQuery(page, size)
	q.Set("searchKeyword", keyword)

	var out Page[Product]
	if err := s.client.get(ctx, "/products", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ProductService) Newest(ctx context.Context) ([]Product, error) {
	return s.list(ctx, "/products/newest")
}

func (s *ProductService) Bestselling(ctx context.Context) ([]Product, error) {
	return s.list(ctx, "/products/bestselling")
}

func (s *ProductService) Featured(ctx context.Context) ([]Product, error) {
	return s.list(ctx, "/products/featured")
}

func (s *ProductService) Related(ctx context.Context, id int64) ([]Product, error) {
	return s.list(ctx, pathf("/products/%d/related", id))
}

func (s *ProductService) list(ctx context.Context, path string) ([]Product, error) {
	var out []Product
	if err := s.client.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ProductService) Get(ctx context.Context, id int64) (*Product, error) {
	var out Product
	if err := s.client.get(ctx, pathf("/products/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Values 编码查询条件，零值字段省略
func (f ProductFilter) Values() url.Values {
	q := pageQuery(f.Page, f.Size)
	if f.CategoryID > 0 {
		q.Set("categoryId", strconv.FormatInt(f.CategoryID, 10))
	}
	if f.MinPrice > 0 {
		q.Set("minPrice", strconv.FormatFloat(f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice > 0 {
		q.Set("maxPrice", strconv.FormatFloat(f.MaxPrice, 'f', -1, 64))
	}
	q.Set("brand", f.Brand)
	q.Set("sortBy", f.SortBy)
	return q
}

func (s *ProductService) Filtered(ctx context.Context, f ProductFilter) (*Page[Product], error) {
	var out Page[Product]
	if err := s.client.get(ctx, "/products/filtered", f.Values(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ProductService) Create(ctx context.Context, p *Product) (*Product, error) {
	if err := s.client.validate(ctx, p); err != nil {
		return nil, err
	}
	var out Product
	if err := s.client.do(ctx, khttp.MethodPost, "/products", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ProductService) Update(ctx context.Context, id int64, p *Product) (*Product, error) {
	if err := s.client.validate(ctx, p); err != nil {
		return nil, err
	}
	var out Product
	if err := s.client.do(ctx, khttp.MethodPut, pathf("/products/%d", id), p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ProductService) Delete(ctx context.Context, id int64) error {
	return s.client.do(ctx, khttp.MethodDelete, pathf("/products/%d", id), nil, nil)
}

// DiscountAll 对所有商品打折，忽略 ProductIDs
func (s *ProductService) DiscountAll(ctx context.Context, d ProductDiscount) (*Message, error) {
	d.ProductIDs = nil
	return s.discount(ctx, "/products/discount/all", d)
}

func (s *ProductService) DiscountSelected(ctx context.Context, d ProductDiscount) (*Message, error) {
	if len(d.ProductIDs) == 0 {
		return nil, errors.Validation("at least one product id is required")
	}
	return s.discount(ctx, "/products/discount/selected", d)
}

func (s *ProductService) discount(ctx context.Context, path string, d ProductDiscount) (*Message, error) {
	if err := s.client.validate(ctx, d); err != nil {
		return nil, err
	}
	var out Message
	if err := s.client.do(ctx, khttp.MethodPost, path, d, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
