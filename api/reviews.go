package api

import (
	"context"

	khttp "github.com/kochabx/phoneshop/core/net/http"
)

type ReviewService service

func (s *ReviewService) Add(ctx context.Context, req ReviewRequest) (*Review, error) {
	if err := s.client.validate(ctx, req); err != nil {
		return nil, err
	}
	var out Review
	if err := s.client.do(ctx, khttp.MethodPost, "/reviews", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ReviewService) ForProduct(ctx context.Context, productID int64, page, size int) (*Page[Review], error) {
	var out Page[Review]
	if err := s.client.get(ctx, pathf("/reviews/product/%d", productID), pageQuery(page, size), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ReviewService) Average(ctx context.Context, productID int64) (float64, error) {
	var out float64
	if err := s.client.get(ctx, pathf("/reviews/product/%d/average", productID), nil, &out); err != nil {
		return 0, err
	}
	return out, nil
}

func (s *ReviewService) Count(ctx context.Context, productID int64) (int64, error) {
	var out int64
	if err := s.client.get(ctx, pathf("/reviews/product/%d/count", productID), nil, &out); err != nil {
		return 0, err
	}
	return out, nil
}
