package api

import (
	"context"

	khttp "github.com/kochabx/phoneshop/core/net/http"
	"github.com/kochabx/phoneshop/errors"
)

type OrderService service

func (s *OrderService) List(ctx context.Context) ([]Order, error) {
	var out []Order
	if err := s.client.get(ctx, "/orders", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *OrderService) Paginated(ctx context.Context, page, size int) (*Page[Order], error) {
	var out Page[Order]
	if err := s.client.get(ctx, "/orders/paginated", pageQuery(page, size), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create 下单，支付方式转为大写，为空时使用 COD
func (s *OrderService) Create(ctx context.Context, req OrderRequest) (*Order, error) {
	req.PaymentMethod = NormalizePaymentMethod(string(req.PaymentMethod))
	if !req.PaymentMethod.Valid() {
		return nil, errors.Validation("unsupported payment method %q", req.PaymentMethod)
	}
	if len(req.ProductIDs) != len(req.Quantities) {
		return nil, errors.Validation("got %d products but %d quantities", len(req.ProductIDs), len(req.Quantities))
	}
	if err := s.client.validate(ctx, req); err != nil {
		return nil, err
	}

	var out Order
	if err := s.client.do(ctx, khttp.MethodPost, "/orders", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *OrderService) Get(ctx context.Context, id int64) (*Order, error) {
	var out Order
	if err := s.client.get(ctx, pathf("/orders/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateStatus 以 text/plain 发送状态名
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, status OrderStatus) (*Order, error) {
	if !status.Valid() {
		return nil, errors.Validation("unknown order status %q", status)
	}

	var out Order
	err := s.client.do(ctx, khttp.MethodPut, pathf("/orders/%d/status", id), string(status), &out,
		khttp.WithContentType(khttp.ContentTypeText))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *OrderService) Delete(ctx context.Context, id int64) error {
	return s.client.do(ctx, khttp.MethodDelete, pathf("/orders/%d", id), nil, nil)
}

func (s *OrderService) Cancel(ctx context.Context, id int64) (*Order, error) {
	var out Order
	if err := s.client.do(ctx, khttp.MethodPut, pathf("/orders/%d/cancel", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
