package api

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/kochabx/phoneshop/errors"
)

type ReportService service

// Range 按自然日限定报表范围，零值省略
type Range struct {
	From time.Time
	To   time.Time
}

// LastDays 截至今天的 n 天
func LastDays(n int) Range {
	now := time.Now()
	return Range{From: now.AddDate(0, 0, -n), To: now}
}

func (r Range) values() url.Values {
	q := url.Values{}
	if !r.From.IsZero() {
		q.Set("startDate", r.From.Format(time.DateOnly))
	}
	if !r.To.IsZero() {
		q.Set("endDate", r.To.Format(time.DateOnly))
	}
	return q
}

// ExportFormat 报表导出格式
type ExportFormat string

const (
	ExportPDF   ExportFormat = "pdf"
	ExportExcel ExportFormat = "excel"
	ExportWord  ExportFormat = "word"
)

// Extension 对应的文件后缀
func (f ExportFormat) Extension() string {
	switch f {
	case ExportExcel:
		return ".xlsx"
	case ExportWord:
		return ".docx"
	default:
		return ".pdf"
	}
}

func (f ExportFormat) Valid() bool {
	return f == ExportPDF || f == ExportExcel || f == ExportWord
}

func (s *ReportService) Profit(ctx context.Context, r Range) ([]ProfitRow, error) {
	var out []ProfitRow
	if err := s.client.get(ctx, "/reports/profit", r.values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ReportService) Revenue(ctx context.Context, r Range) ([]RevenueRow, error) {
	var out []RevenueRow
	if err := s.client.get(ctx, "/reports/revenue", r.values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ReportService) DailyRevenue(ctx context.Context, r Range) ([]RevenueRow, error) {
	var out []RevenueRow
	if err := s.client.get(ctx, "/reports/daily-revenue-optimized", r.values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ReportService) TopProducts(ctx context.Context, r Range, limit int) ([]TopProductRow, error) {
	q := r.values()
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []TopProductRow
	if err := s.client.get(ctx, "/reports/top-products", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ReportService) OrdersByStatus(ctx context.Context, r Range) ([]StatusCountRow, error) {
	var out []StatusCountRow
	if err := s.client.get(ctx, "/reports/orders-by-status", r.values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ReportService) LowStock(ctx context.Context, threshold int) ([]LowStockRow, error) {
	q := url.Values{}
	if threshold > 0 {
		q.Set("threshold", strconv.Itoa(threshold))
	}
	var out []LowStockRow
	if err := s.client.get(ctx, "/reports/low-stock", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ReportService) RevenueByCategory(ctx context.Context, r Range) ([]CategoryRevenueRow, error) {
	var out []CategoryRevenueRow
	if err := s.client.get(ctx, "/reports/revenue-by-category", r.values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Export 下载生成好的报表
func (s *ReportService) Export(ctx context.Context, format ExportFormat, r Range) ([]byte, error) {
	if !format.Valid() {
		return nil, errors.Validation("unknown export format %q", format)
	}
	var out []byte
	if err := s.client.get(ctx, "/reports/export/"+string(format), r.values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}
