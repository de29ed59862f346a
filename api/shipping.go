package api

import (
	"context"

	khttp "github.com/kochabx/phoneshop/core/net/http"
)

type ShippingService service

func (s *ShippingService) Estimate(ctx context.Context, req ShippingEstimateRequest) (*ShippingEstimate, error) {
	if err := s.client.validate(ctx, req); err != nil {
		return nil, err
	}
	var out ShippingEstimate
	if err := s.client.do(ctx, khttp.MethodPost, "/shipping/estimate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
