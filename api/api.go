// Package api 商城后端各资源的类型化客户端
package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	khttp "github.com/kochabx/phoneshop/core/net/http"
	"github.com/kochabx/phoneshop/core/validator"
	"github.com/kochabx/phoneshop/errors"
	"github.com/kochabx/phoneshop/log"
)

// Client 汇总各资源服务，所有服务共用同一个请求接口，一次刷新对全部生效
type Client struct {
	doer      khttp.Clienter
	validator validator.Validator
	logger    *log.Logger
	batchSize int
	common    service

	Auth       *AuthService
	Users      *UserService
	Products   *ProductService
	Categories *CategoryService
	Orders     *OrderService
	Payments   *PaymentService
	Reviews    *ReviewService
	Inventory  *InventoryService
	Discounts  *DiscountService
	Suppliers  *SupplierService
	Shipping   *ShippingService
	Reports    *ReportService
	Admin      *AdminService
	Chat       *ChatService
}

type service struct {
	client *Client
}

type Option func(*Client)

func WithValidator(v validator.Validator) Option {
	return func(c *Client) {
		c.validator = v
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithBatchConcurrency 批量操作的并发上限
func WithBatchConcurrency(n int) Option {
	return func(c *Client) {
		c.batchSize = n
	}
}

// New 包装 doer，通常是 *khttp.Client
func New(doer khttp.Clienter, opts ...Option) *Client {
	c := &Client{
		doer:      doer,
		validator: validator.Validate,
		logger:    log.G,
		batchSize: 4,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.common.client = c
	s := &c.common
	c.Auth = (*AuthService)(s)
	c.Users = (*UserService)(s)
	c.Products = (*ProductService)(s)
	c.Categories = (*CategoryService)(s)
	c.Orders = (*OrderService)(s)
	c.Payments = (*PaymentService)(s)
	c.Reviews = (*ReviewService)(s)
	c.Inventory = (*InventoryService)(s)
	c.Discounts = (*DiscountService)(s)
	c.Suppliers = (*SupplierService)(s)
	c.Shipping = (*ShippingService)(s)
	c.Reports = (*ReportService)(s)
	c.Admin = (*AdminService)(s)
	c.Chat = (*ChatService)(s)
	return c
}

// Doer 返回底层请求接口
func (c *Client) Doer() khttp.Clienter {
	return c.doer
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, opts ...func(*khttp.RequestOption)) error {
	all := make([]func(*khttp.RequestOption), 0, len(opts)+2)
	all = append(all, khttp.WithContext(ctx))
	if out != nil {
		all = append(all, khttp.WithResponse(out))
	}
	all = append(all, opts...)

	_, err := c.doer.Request(method, path, body, all...)
	return err
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, khttp.MethodGet, path, nil, out, khttp.WithQuery(query))
}

func (c *Client) validate(ctx context.Context, v any) error {
	if err := c.validator.StructCtx(ctx, v); err != nil {
		return errors.Validation("%v", err).WithCause(err)
	}
	return nil
}

func pageQuery(page, size int) url.Values {
	q := url.Values{}
	if page >= 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if size > 0 {
		q.Set("size", strconv.Itoa(size))
	}
	return q
}

func pathf(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}
