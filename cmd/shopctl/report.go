package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/phoneshop/api"
	"github.com/kochabx/phoneshop/app"
	"github.com/kochabx/phoneshop/core/scheduler"
	"github.com/kochabx/phoneshop/errors"
	transporthttp "github.com/kochabx/phoneshop/transport/http"
)

const lowStockThreshold = 10

func runReport(ctx context.Context, e *env, args []string) error {
	if len(args) == 0 {
		return errors.Validation("usage: report {revenue|profit|top|status|lowstock|category|export} [-days n]")
	}
	kind := args[0]

	fs := flag.NewFlagSet("report "+kind, flag.ContinueOnError)
	fs.SetOutput(e.out)
	days := fs.Int("days", e.cfg.Watch.Days, "days back from today")
	limit := fs.Int("limit", 5, "rows for top")
	threshold := fs.Int("threshold", lowStockThreshold, "stock level for lowstock")
	format := fs.String("format", string(api.ExportPDF), "pdf, excel or word")
	output := fs.String("o", "", "export file, default report-<date><ext>")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	r := api.LastDays(*days)
	reports := e.api.Reports

	tw := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', tabwriter.AlignRight)
	switch kind {
	case "revenue":
		rows, err := reports.Revenue(ctx, r)
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "NGÀY\tĐƠN\tDOANH THU\t")
		for _, row := range rows {
			fmt.Fprintf(tw, "%s\t%d\t%s\t\n", row.Date, row.OrderCount, vnd(row.Revenue))
		}
	case "profit":
		rows, err := reports.Profit(ctx, r)
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "NGÀY\tDOANH THU\tGIÁ VỐN\tLỢI NHUẬN\t")
		for _, row := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", row.Date, vnd(row.Revenue), vnd(row.Cost), vnd(row.Profit))
		}
	case "top":
		rows, err := reports.TopProducts(ctx, r, *limit)
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "ID\tSẢN PHẨM\tSL\tDOANH THU\t")
		for _, row := range rows {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t\n", row.ProductID, row.ProductName, row.Quantity, vnd(row.Revenue))
		}
	case "status":
		rows, err := reports.OrdersByStatus(ctx, r)
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "TRẠNG THÁI\tSỐ ĐƠN\t")
		for _, row := range rows {
			fmt.Fprintf(tw, "%s\t%d\t\n", row.Status.Text(), row.Count)
		}
	case "lowstock":
		rows, err := reports.LowStock(ctx, *threshold)
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "ID\tSẢN PHẨM\tTỒN KHO\t")
		for _, row := range rows {
			fmt.Fprintf(tw, "%d\t%s\t%d\t\n", row.ProductID, row.ProductName, row.Stock)
		}
	case "category":
		rows, err := reports.RevenueByCategory(ctx, r)
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "DANH MỤC\tĐƠN\tSẢN PHẨM\tDOANH THU\tLỢI NHUẬN\t")
		for _, row := range rows {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t\n", row.Category, row.OrderCount, row.ProductCount, vnd(row.TotalRevenue), vnd(row.TotalProfit))
		}
	case "export":
		f := api.ExportFormat(*format)
		if !f.Valid() {
			return errors.Validation("unknown export format %q", *format)
		}
		data, err := reports.Export(ctx, f, r)
		if err != nil {
			return err
		}
		path := *output
		if path == "" {
			path = "report-" + time.Now().Format(time.DateOnly) + f.Extension()
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		e.printf("Đã xuất báo cáo: %s (%d bytes)\n", path, len(data))
		return nil
	default:
		return errors.Validation("unknown report %q", kind)
	}
	return tw.Flush()
}

// runWatch 定时拉取管理后台概览并记录日志，运行期间暴露客户端指标
func runWatch(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(e.out)
	schedule := fs.String("schedule", e.cfg.Watch.Schedule, "cron spec or @every duration")
	days := fs.Int("days", e.cfg.Watch.Days, "stats window in days")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := e.session.Verify(ctx, "/admin"); err != nil {
		return err
	}

	cron := scheduler.NewCron(e.logger)
	poll := func(ctx context.Context) error { return e.pollDashboard(ctx, *days) }
	if _, err := cron.Add("dashboard", *schedule, poll); err != nil {
		return err
	}

	opts := []app.Option{
		app.WithContext(ctx),
		app.WithLogger(e.logger),
		app.WithWorker("cron", func(ctx context.Context) error {
			if err := poll(ctx); err != nil {
				e.logger.Error().Err(err).Msg("initial dashboard poll")
			}
			cron.Start()
			<-ctx.Done()
			return nil
		}),
		app.WithClose("cron", cron.Stop, 5*time.Second),
	}
	if m := e.cfg.Metrics; m.Enabled {
		gin.SetMode(gin.ReleaseMode)
		opts = append(opts, app.WithServer(transporthttp.NewServer(m.Addr, gin.New(),
			transporthttp.WithName("metrics"),
			transporthttp.WithLogger(e.logger),
			transporthttp.WithMetrics(e.prom, m.Path),
			transporthttp.WithHealth("/health"),
		)))
	}
	return app.New(opts...).Start()
}

func (e *env) pollDashboard(ctx context.Context, days int) error {
	stats, err := e.api.Admin.Stats(ctx, days)
	if err != nil {
		return err
	}
	e.logger.Info().
		Float64("revenue", stats.TotalRevenue).
		Int64("orders", stats.TotalOrders).
		Int64("new_users", stats.NewUsersCount).
		Int("days", days).
		Msg("dashboard")

	low, err := e.api.Reports.LowStock(ctx, lowStockThreshold)
	if err != nil {
		return err
	}
	for _, row := range low {
		e.logger.Warn().Int64("product_id", row.ProductID).Str("product", row.ProductName).Int("stock", row.Stock).Msg("low stock")
	}
	return nil
}
