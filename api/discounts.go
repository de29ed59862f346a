package api

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	khttp "github.com/kochabx/phoneshop/core/net/http"
	"github.com/kochabx/phoneshop/errors"
)

type DiscountService service

// NormalizeCode 去除首尾空白并转为大写
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *DiscountService) checkCode(code string) error {
	if err := s.client.validator.Var(code, "required,discountcode"); err != nil {
		return errors.Validation("malformed discount code %q", code).WithCause(err)
	}
	return nil
}

func (s *DiscountService) List(ctx context.Context) ([]Discount, error) {
	var out []Discount
	if err := s.client.get(ctx, "/discounts", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *DiscountService) Create(ctx context.Context, d Discount) (*Discount, error) {
	d.Code = NormalizeCode(d.Code)
	if err := s.client.validate(ctx, d); err != nil {
		return nil, err
	}
	var out Discount
	if err := s.client.do(ctx, khttp.MethodPost, "/discounts", d, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *DiscountService) ByCode(ctx context.Context, code string) (*Discount, error) {
	code = NormalizeCode(code)
	if err := s.checkCode(code); err != nil {
		return nil, err
	}
	var out Discount
	if err := s.client.get(ctx, pathf("/discounts/%s", url.PathEscape(code)), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *DiscountService) Update(ctx context.Context, id int64, d Discount) (*Discount, error) {
	d.Code = NormalizeCode(d.Code)
	if err := s.client.validate(ctx, d); err != nil {
		return nil, err
	}
	var out Discount
	if err := s.client.do(ctx, khttp.MethodPut, pathf("/discounts/%d", id), d, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *DiscountService) Delete(ctx context.Context, id int64) error {
	return s.client.do(ctx, khttp.MethodDelete, pathf("/discounts/%d", id), nil, nil)
}

// Spin 幸运转盘抽取优惠码，按 probabilityWeight 加权
func (s *DiscountService) Spin(ctx context.Context) (*Discount, error) {
	var out Discount
	if err := s.client.do(ctx, khttp.MethodPost, "/discounts/spin", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *DiscountService) Active(ctx context.Context, minPercentage float64) ([]Discount, error) {
	q := url.Values{}
	if minPercentage > 0 {
		q.Set("minPercentage", strconv.FormatFloat(minPercentage, 'f', -1, 64))
	}
	var out []Discount
	if err := s.client.get(ctx, "/discounts/active", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *DiscountService) Apply(ctx context.Context, req DiscountApplyRequest) (*DiscountApplyResponse, error) {
	req.DiscountCode = NormalizeCode(req.DiscountCode)
	if err := s.checkCode(req.DiscountCode); err != nil {
		return nil, err
	}
	if err := s.client.validate(ctx, req); err != nil {
		return nil, err
	}
	var out DiscountApplyResponse
	if err := s.client.do(ctx, khttp.MethodPost, "/discounts/apply-discount", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
