package api

import (
	"context"

	khttp "github.com/kochabx/phoneshop/core/net/http"
	"github.com/kochabx/phoneshop/errors"
)

type PaymentService service

func (s *PaymentService) Create(ctx context.Context, req PaymentRequest) (*Payment, error) {
	req.PaymentMethod = NormalizePaymentMethod(string(req.PaymentMethod))
	if err := s.client.validate(ctx, req); err != nil {
		return nil, err
	}
	var out Payment
	if err := s.client.do(ctx, khttp.MethodPost, "/payments", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *PaymentService) Get(ctx context.Context, id int64) (*Payment, error) {
	var out Payment
	if err := s.client.get(ctx, pathf("/payments/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *PaymentService) ByTransaction(ctx context.Context, tx string) (*Payment, error) {
	if tx == "" {
		return nil, errors.Validation("transaction id is required")
	}
	var out Payment
	if err := s.client.get(ctx, pathf("/payments/by-transaction/%s", tx), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// URL 在线支付订单的网关跳转地址
func (s *PaymentService) URL(ctx context.Context, orderID int64) (*PaymentURL, error) {
	var out PaymentURL
	if err := s.client.get(ctx, pathf("/payments/url/%d", orderID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *PaymentService) UpdateStatus(ctx context.Context, orderID int64, status PaymentStatus) (*Payment, error) {
	if !status.Valid() {
		return nil, errors.Validation("unknown payment status %q", status)
	}
	var out Payment
	body := map[string]PaymentStatus{"status": status}
	if err := s.client.do(ctx, khttp.MethodPut, pathf("/payments/%d", orderID), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
