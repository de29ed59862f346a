package mockapi

import (
	"bytes"
	"cmp"
	"encoding/csv"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-pdf/fpdf"

	"github.com/kochabx/phoneshop/api"
	"github.com/kochabx/phoneshop/errors"
	transporthttp "github.com/kochabx/phoneshop/transport/http"
)

// window reads startDate and endDate (yyyy-mm-dd, both inclusive).
func window(c *gin.Context) (from, to time.Time) {
	if v, err := time.Parse(time.DateOnly, c.Query("startDate")); err == nil {
		from = v
	}
	if v, err := time.Parse(time.DateOnly, c.Query("endDate")); err == nil {
		to = v.AddDate(0, 0, 1)
	}
	return from, to
}

// completed returns the completed orders inside the request window.
func (s *Server) completed(c *gin.Context) []api.Order {
	from, to := window(c)
	s.data.mu.RLock()
	all := s.data.sortedOrders(0)
	s.data.mu.RUnlock()

	out := all[:0]
	for _, o := range all {
		at := o.CreatedAt.Time
		if o.Status != api.OrderCompleted || (!from.IsZero() && at.Before(from)) || (!to.IsZero() && !at.Before(to)) {
			continue
		}
		out = append(out, o)
	}
	return out
}

func (s *Server) costOf(productID int64) float64 {
	s.data.mu.RLock()
	defer s.data.mu.RUnlock()
	if p, ok := s.data.products[productID]; ok {
		return p.CostPrice
	}
	return 0
}

func (s *Server) revenueRows(c *gin.Context) []api.RevenueRow {
	byDay := map[string]*api.RevenueRow{}
	for _, o := range s.completed(c) {
		day := o.CreatedAt.Format(time.DateOnly)
		row, ok := byDay[day]
		if !ok {
			row = &api.RevenueRow{Date: day}
			byDay[day] = row
		}
		row.Revenue += o.TotalPrice
		row.OrderCount++
	}
	out := make([]api.RevenueRow, 0, len(byDay))
	for _, row := range byDay {
		out = append(out, *row)
	}
	slices.SortFunc(out, func(a, b api.RevenueRow) int { return cmp.Compare(a.Date, b.Date) })
	return out
}

func (s *Server) revenueReport(c *gin.Context) {
	transporthttp.GinJSON(c, s.revenueRows(c))
}

func (s *Server) profitReport(c *gin.Context) {
	byDay := map[string]*api.ProfitRow{}
	for _, o := range s.completed(c) {
		day := o.CreatedAt.Format(time.DateOnly)
		row, ok := byDay[day]
		if !ok {
			row = &api.ProfitRow{Date: day}
			byDay[day] = row
		}
		for _, it := range o.OrderDetails {
			row.Revenue += it.Total()
			row.Cost += s.costOf(it.ProductID) * float64(it.Quantity)
		}
		row.Profit = row.Revenue - row.Cost
	}
	out := make([]api.ProfitRow, 0, len(byDay))
	for _, row := range byDay {
		out = append(out, *row)
	}
	slices.SortFunc(out, func(a, b api.ProfitRow) int { return cmp.Compare(a.Date, b.Date) })
	transporthttp.GinJSON(c, out)
}

func (s *Server) topProducts(c *gin.Context) []api.TopProductRow {
	byID := map[int64]*api.TopProductRow{}
	for _, o := range s.completed(c) {
		for _, it := range o.OrderDetails {
			row, ok := byID[it.ProductID]
			if !ok {
				row = &api.TopProductRow{ProductID: it.ProductID, ProductName: it.ProductName}
				byID[it.ProductID] = row
			}
			row.Quantity += int64(it.Quantity)
			row.Revenue += it.Total()
		}
	}
	out := make([]api.TopProductRow, 0, len(byID))
	for _, row := range byID {
		out = append(out, *row)
	}
	slices.SortFunc(out, func(a, b api.TopProductRow) int {
		return cmp.Or(cmp.Compare(b.Quantity, a.Quantity), cmp.Compare(a.ProductID, b.ProductID))
	})
	if limit := queryInt(c, "limit", 10); limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *Server) topProductsReport(c *gin.Context) {
	transporthttp.GinJSON(c, s.topProducts(c))
}

func (s *Server) ordersByStatusReport(c *gin.Context) {
	from, to := window(c)
	counts := map[api.OrderStatus]int64{}
	s.data.mu.RLock()
	for _, o := range s.data.orders {
		at := o.CreatedAt.Time
		if (!from.IsZero() && at.Before(from)) || (!to.IsZero() && !at.Before(to)) {
			continue
		}
		counts[o.Status]++
	}
	s.data.mu.RUnlock()

	out := make([]api.StatusCountRow, 0, len(counts))
	for _, st := range api.OrderStatuses() {
		if n := counts[st]; n > 0 {
			out = append(out, api.StatusCountRow{Status: st, Count: n})
		}
	}
	transporthttp.GinJSON(c, out)
}

func (s *Server) lowStockReport(c *gin.Context) {
	threshold := queryInt(c, "threshold", LowStockThreshold)
	var out []api.LowStockRow
	for _, p := range s.products(func(p *api.Product) bool { return p.Stock < threshold }) {
		out = append(out, api.LowStockRow{ProductID: p.ID, ProductName: p.Name, Stock: p.Stock})
	}
	transporthttp.GinJSON(c, out)
}

func (s *Server) revenueByCategoryReport(c *gin.Context) {
	s.data.mu.RLock()
	categoryOf := map[int64]string{}
	for _, p := range s.data.products {
		if p.Category != nil {
			categoryOf[p.ID] = p.Category.Name
		}
	}
	s.data.mu.RUnlock()

	rows := map[string]*api.CategoryRevenueRow{}
	products := map[string]map[int64]bool{}
	for _, o := range s.completed(c) {
		seen := map[string]bool{}
		for _, it := range o.OrderDetails {
			name := cmp.Or(categoryOf[it.ProductID], "Khác")
			row, ok := rows[name]
			if !ok {
				row = &api.CategoryRevenueRow{Category: name}
				rows[name] = row
				products[name] = map[int64]bool{}
			}
			row.TotalRevenue += it.Total()
			row.TotalProfit += it.Total() - s.costOf(it.ProductID)*float64(it.Quantity)
			products[name][it.ProductID] = true
			if !seen[name] {
				row.OrderCount++
				seen[name] = true
			}
		}
	}
	out := make([]api.CategoryRevenueRow, 0, len(rows))
	for name, row := range rows {
		row.ProductCount = int64(len(products[name]))
		out = append(out, *row)
	}
	slices.SortFunc(out, func(a, b api.CategoryRevenueRow) int { return cmp.Compare(b.TotalRevenue, a.TotalRevenue) })
	transporthttp.GinJSON(c, out)
}

// exportReport renders the revenue rows. pdf is a real document; excel and
// word answer CSV, which both open.
func (s *Server) exportReport(c *gin.Context) {
	format := api.ExportFormat(c.Param("format"))
	if !format.Valid() {
		transporthttp.GinJSONE(c, errors.BadRequest("Định dạng không hỗ trợ: %s", format))
		return
	}
	rows := s.revenueRows(c)

	var (
		body []byte
		err  error
		ct   string
	)
	if format == api.ExportPDF {
		body, err = revenuePDF(rows)
		ct = "application/pdf"
	} else {
		body, err = revenueCSV(rows)
		ct = "text/csv; charset=utf-8"
	}
	if err != nil {
		transporthttp.GinJSONE(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="bao-cao-doanh-thu%s"`, format.Extension()))
	c.Data(200, ct, body)
}

func revenueCSV(rows []api.RevenueRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"date", "revenue", "orderCount"})
	for _, r := range rows {
		_ = w.Write([]string{r.Date, strconv.FormatFloat(r.Revenue, 'f', 0, 64), strconv.FormatInt(r.OrderCount, 10)})
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func revenuePDF(rows []api.RevenueRow) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, "Bao cao doanh thu", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 10)
	for _, h := range []string{"Ngay", "Doanh thu (VND)", "So don"} {
		pdf.CellFormat(60, 8, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, r := range rows {
		pdf.CellFormat(60, 7, r.Date, "1", 0, "", false, 0, "")
		pdf.CellFormat(60, 7, strconv.FormatFloat(r.Revenue, 'f', 0, 64), "1", 0, "R", false, 0, "")
		pdf.CellFormat(60, 7, strconv.FormatInt(r.OrderCount, 10), "1", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Server) stats(c *gin.Context) {
	from, _ := window(c)
	var st api.Stats
	st.RevenueByTime = map[string]float64{}
	st.OrdersByTime = map[string]int64{}
	for _, o := range s.completed(c) {
		day := o.CreatedAt.Format(time.DateOnly)
		st.TotalRevenue += o.TotalPrice
		st.RevenueByTime[day] += o.TotalPrice
		st.OrdersByTime[day]++
	}

	s.data.mu.RLock()
	st.TotalOrders = int64(len(s.data.orders))
	for _, p := range s.data.products {
		if p.SoldQuantity > 0 {
			st.TopSellingProductsCount++
		}
	}
	for _, acc := range s.data.accounts {
		if from.IsZero() || !acc.user.CreatedAt.Before(from) {
			st.NewUsersCount++
		}
	}
	s.data.mu.RUnlock()
	transporthttp.GinJSON(c, st)
}

func (s *Server) recentOrders(c *gin.Context) {
	s.data.mu.RLock()
	out := s.data.sortedOrders(0)
	s.data.mu.RUnlock()
	transporthttp.GinJSON(c, out[:min(len(out), 5)])
}
