package api

import (
	"context"
	"net/url"
	"strconv"
)

type AdminService service

// Stats 统计最近 days 天，0 由后端决定
func (s *AdminService) Stats(ctx context.Context, days int) (*Stats, error) {
	q := url.Values{}
	if days > 0 {
		q.Set("days", strconv.Itoa(days))
	}
	var out Stats
	if err := s.client.get(ctx, "/admin/stats", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *AdminService) RecentOrders(ctx context.Context) ([]Order, error) {
	var out []Order
	if err := s.client.get(ctx, "/admin/recent-orders", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *AdminService) TopProducts(ctx context.Context) ([]TopProductRow, error) {
	var out []TopProductRow
	if err := s.client.get(ctx, "/admin/top-products", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *AdminService) RecentUsers(ctx context.Context) ([]User, error) {
	var out []User
	if err := s.client.get(ctx, "/admin/recent-users", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *AdminService) OrdersByStatus(ctx context.Context) ([]StatusCountRow, error) {
	var out []StatusCountRow
	if err := s.client.get(ctx, "/admin/orders-by-status", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *AdminService) LowStock(ctx context.Context) ([]LowStockRow, error) {
	var out []LowStockRow
	if err := s.client.get(ctx, "/admin/low-stock", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *AdminService) UsersByRegion(ctx context.Context) ([]RegionCount, error) {
	var out []RegionCount
	if err := s.client.get(ctx, "/admin/users-by-region", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
