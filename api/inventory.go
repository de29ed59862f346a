package api

import (
	"context"
	"net/url"
	"strconv"

	khttp "github.com/kochabx/phoneshop/core/net/http"
	"github.com/kochabx/phoneshop/core/scheduler"
)

type InventoryService service

func (s *InventoryService) Get(ctx context.Context, productID int64) (*Inventory, error) {
	var out Inventory
	if err := s.client.get(ctx, pathf("/inventory/%d", productID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *InventoryService) Summary(ctx context.Context) (*InventorySummary, error) {
	var out InventorySummary
	if err := s.client.get(ctx, "/inventory/summary", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Adjust 按带符号的数量调整库存
func (s *InventoryService) Adjust(ctx context.Context, adj Adjustment) (*Inventory, error) {
	if err := s.client.validate(ctx, adj); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("quantityChange", strconv.Itoa(adj.QuantityChange))
	q.Set("reason", adj.Reason)

	var out Inventory
	err := s.client.do(ctx, khttp.MethodPut, pathf("/inventory/adjust/%d", adj.ProductID), nil, &out, khttp.WithQuery(q))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AdjustBatch 在有界协程池中并发执行调整，返回的切片与 adjs 一一对应，nil 表示成功
func (s *InventoryService) AdjustBatch(ctx context.Context, adjs []Adjustment) ([]error, error) {
	if len(adjs) == 0 {
		return nil, nil
	}

	pool, err := scheduler.NewPool(min(s.client.batchSize, len(adjs)), s.client.logger)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	errs := pool.Run(ctx, len(adjs), func(ctx context.Context, i int) error {
		_, err := s.Adjust(ctx, adjs[i])
		if err != nil {
			s.client.logger.Warn().Err(err).Int64("product_id", adjs[i].ProductID).Msg("inventory adjustment failed")
		}
		return err
	})
	return errs, nil
}

func (s *InventoryService) Logs(ctx context.Context, page, size int) (*Page[InventoryLog], error) {
	var out Page[InventoryLog]
	if err := s.client.get(ctx, "/inventory/logs", pageQuery(page, size), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Report 按商品返回库存
func (s *InventoryService) Report(ctx context.Context) ([]Inventory, error) {
	var out []Inventory
	if err := s.client.get(ctx, "/inventory/report", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
