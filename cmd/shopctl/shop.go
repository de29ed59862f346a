package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/kochabx/phoneshop/api"
	"github.com/kochabx/phoneshop/cart"
	"github.com/kochabx/phoneshop/errors"
	"github.com/kochabx/phoneshop/export/invoice"
	"github.com/kochabx/phoneshop/store/oss/minio"
)

func runCart(ctx context.Context, e *env, args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}

	switch args[0] {
	case "list":
	case "add":
		id, err := argID(args, 1)
		if err != nil {
			return err
		}
		qty := 1
		if len(args) > 2 {
			if qty, err = strconv.Atoi(args[2]); err != nil {
				return errors.Validation("invalid quantity %q", args[2])
			}
		}
		p, err := e.api.Products.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := e.cart.AddN(ctx, cart.FromProduct(p), qty); err != nil {
			return err
		}
	case "remove":
		id, err := argID(args, 1)
		if err != nil {
			return err
		}
		if err := e.cart.Remove(ctx, id); err != nil {
			return err
		}
	case "set":
		id, err := argID(args, 1)
		if err != nil {
			return err
		}
		if len(args) < 3 {
			return errors.Validation("usage: cart set <id> <qty>")
		}
		qty, err := strconv.Atoi(args[2])
		if err != nil {
			return errors.Validation("invalid quantity %q", args[2])
		}
		if err := e.cart.SetQuantity(ctx, id, qty); err != nil {
			return err
		}
	case "clear":
		if err := e.cart.Clear(ctx); err != nil {
			return err
		}
	default:
		return errors.Validation("unknown cart command %q", args[0])
	}

	e.printCart()
	return nil
}

func (e *env) printCart() {
	items := e.cart.Items()
	if len(items) == 0 {
		e.printf("Giỏ hàng trống\n")
		return
	}
	tw := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSẢN PHẨM\tĐƠN GIÁ\tSL\tTHÀNH TIỀN")
	for _, it := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", it.ID, it.Name, vnd(it.Price), it.Quantity, vnd(it.Total()))
	}
	fmt.Fprintf(tw, "\t\t\t%d\t%s\n", e.cart.Count(), vnd(e.cart.Total()))
	tw.Flush()
}

func runOrders(ctx context.Context, e *env, args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}

	switch args[0] {
	case "list":
		orders, err := e.api.Orders.List(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNGÀY\tTRẠNG THÁI\tTHANH TOÁN\tTỔNG")
		for _, o := range orders {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", o.ID, o.CreatedAt.Format("02/01/2006"), o.Status.Text(), o.PaymentStatus.Text(), vnd(o.TotalPrice))
		}
		return tw.Flush()
	case "get":
		id, err := argID(args, 1)
		if err != nil {
			return err
		}
		o, err := e.api.Orders.Get(ctx, id)
		if err != nil {
			return err
		}
		e.printOrder(o)
	case "create":
		o, err := createOrder(ctx, e, args[1:])
		if err != nil {
			return err
		}
		e.printf("Đặt hàng thành công\n")
		e.printOrder(o)
	case "cancel":
		id, err := argID(args, 1)
		if err != nil {
			return err
		}
		o, err := e.api.Orders.Cancel(ctx, id)
		if err != nil {
			return err
		}
		e.printf("Đơn hàng #%d: %s\n", o.ID, o.Status.Text())
	case "status":
		id, err := argID(args, 1)
		if err != nil {
			return err
		}
		if len(args) < 3 {
			return errors.Validation("usage: orders status <id> <STATUS>")
		}
		o, err := e.api.Orders.UpdateStatus(ctx, id, api.OrderStatus(args[2]))
		if err != nil {
			return err
		}
		e.printf("Đơn hàng #%d: %s\n", o.ID, o.Status.Text())
	default:
		return errors.Validation("unknown orders command %q", args[0])
	}
	return nil
}

// createOrder 用购物车下单，成功后清空购物车
func createOrder(ctx context.Context, e *env, args []string) (*api.Order, error) {
	fs := flag.NewFlagSet("orders create", flag.ContinueOnError)
	fs.SetOutput(e.out)
	address := fs.String("address", "", "shipping address")
	phone := fs.String("phone", "", "contact phone")
	carrier := fs.String("carrier", "GHN", "GHN, GHTK or VIETTELPOST")
	payment := fs.String("payment", "COD", "COD, VNPAY or MOMO")
	discount := fs.String("discount", "", "discount code")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	req, err := e.cart.OrderRequest(*address, *phone, *carrier, api.PaymentMethod(*payment), *discount)
	if err != nil {
		return nil, err
	}
	o, err := e.api.Orders.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := e.cart.Clear(ctx); err != nil {
		e.logger.Warn().Err(err).Msg("clear cart after checkout")
	}
	return o, nil
}

func (e *env) printOrder(o *api.Order) {
	e.printf("Đơn hàng #%d  %s  %s\n", o.ID, o.CreatedAt.Format("02/01/2006 15:04"), o.Status.Text())
	if o.Customer != nil {
		e.printf("Khách hàng: %s <%s>\n", o.Customer.FullName, o.Customer.Email)
	}
	if si := o.ShippingInfo; si != nil {
		e.printf("Giao đến:   %s (%s) qua %s\n", si.Address, si.PhoneNumber, si.Carrier)
	}
	tw := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
	for _, it := range o.OrderDetails {
		fmt.Fprintf(tw, "  %s\tx%d\t%s\n", it.ProductName, it.Quantity, vnd(it.Total()))
	}
	fmt.Fprintf(tw, "  Phí vận chuyển\t\t%s\n", vnd(o.ShippingFee))
	fmt.Fprintf(tw, "  Tổng cộng\t\t%s\n", vnd(o.TotalPrice))
	tw.Flush()
	e.printf("Thanh toán: %s, %s\n", o.PaymentMethod.Text(), o.PaymentStatus.Text())
}

func runInvoice(ctx context.Context, e *env, args []string) error {
	id, err := argID(args, 0)
	if err != nil {
		return err
	}
	o, err := e.api.Orders.Get(ctx, id)
	if err != nil {
		return err
	}

	sink, err := e.invoiceSink(ctx)
	if err != nil {
		return err
	}
	exporter := invoice.NewExporter(invoice.NewRenderer(
		invoice.WithStore(e.cfg.Export.Store),
		invoice.WithLogger(e.logger),
	), sink)

	loc, err := exporter.Export(ctx, o)
	if err != nil {
		return err
	}
	e.printf("Đã xuất hóa đơn: %s\n", loc)
	return nil
}

func (e *env) invoiceSink(ctx context.Context) (invoice.Sink, error) {
	mc := e.cfg.Export.Minio
	if !mc.Enabled() {
		return invoice.DirSink{Dir: e.cfg.Export.Dir}, nil
	}
	client, err := minio.New(mc, minio.WithLogger(e.logger))
	if err != nil {
		return nil, err
	}
	if err := client.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return invoice.MinioSink{Client: client, Expiry: e.cfg.Export.PresignTTL}, nil
}

// runInventory 并行执行 JSON 数组中的库存调整
func runInventory(ctx context.Context, e *env, args []string) error {
	if len(args) != 2 || args[0] != "adjust" {
		return errors.Validation("usage: inventory adjust <file.json>")
	}
	raw, err := os.ReadFile(args[1])
	if err != nil {
		return err
	}
	var adjs []api.Adjustment
	if err := json.Unmarshal(raw, &adjs); err != nil {
		return errors.Validation("parse %s: %v", args[1], err)
	}

	errs, err := e.api.Inventory.AdjustBatch(ctx, adjs)
	if err != nil {
		return err
	}
	failed := 0
	for i, a := range adjs {
		if errs[i] != nil {
			failed++
			e.printf("✗ #%d %+d: %s\n", a.ProductID, a.QuantityChange, describe(errs[i]))
			continue
		}
		e.printf("✓ #%d %+d (%s)\n", a.ProductID, a.QuantityChange, a.Reason)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d adjustments failed", failed, len(adjs))
	}
	return nil
}

func argID(args []string, i int) (int64, error) {
	if len(args) <= i {
		return 0, errors.Validation("missing id")
	}
	id, err := strconv.ParseInt(args[i], 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Validation("invalid id %q", args[i])
	}
	return id, nil
}

func vnd(amount float64) string {
	return invoice.FormatCurrency(amount)
}
