package invoice

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/phoneshop/api"
	"github.com/kochabx/phoneshop/errors"
)

func sampleOrder() *api.Order {
	eta := api.NewTime(time.Date(2024, 6, 5, 3, 0, 0, 0, time.UTC))
	items := make([]api.OrderItem, 0, 40)
	for i := range 40 {
		items = append(items, api.OrderItem{ProductID: int64(i + 1), ProductName: "Điện thoại Samsung Galaxy S24 Ultra 512GB", Quantity: 1, Price: 1_000_000})
	}
	return &api.Order{
		ID:            1024,
		Status:        api.OrderShipped,
		CreatedAt:     api.NewTime(time.Date(2024, 6, 1, 2, 30, 0, 0, time.UTC)),
		TotalPrice:    40_030_000,
		ShippingFee:   30_000,
		PaymentMethod: api.PaymentVNPay,
		Customer:      &api.Customer{FullName: "Nguyễn Văn An", Email: "an@example.com"},
		ShippingInfo: &api.ShippingInfo{
			Address:           "12 Lê Lợi, Phường Bến Nghé, Quận 1, Thành phố Hồ Chí Minh",
			PhoneNumber:       "0912345678",
			Carrier:           "GHN",
			TrackingNumber:    "VN123456",
			EstimatedDelivery: &eta,
		},
		OrderDetails: items,
	}
}

func TestFold(t *testing.T) {
	assert.Equal(t, "Cua hang dien thoai", fold("Cửa hàng điện thoại"))
	assert.Equal(t, "DON HANG Duong", fold("ĐƠN HÀNG Đường"))
	assert.Equal(t, "plain", fold("plain"))
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "20.000.000 VND", FormatCurrency(20_000_000))
	assert.Equal(t, "0 VND", FormatCurrency(0))
	assert.Equal(t, "01/06/2024 09:30", formatDate(time.Date(2024, 6, 1, 2, 30, 0, 0, time.UTC)))
	assert.Equal(t, "N/A", formatDate(time.Time{}))
}

func TestQRContentAndFilename(t *testing.T) {
	o := sampleOrder()
	assert.Equal(t, "Don hang #1024 - VN123456", QRContent(o))
	o.ShippingInfo = nil
	assert.Equal(t, "Don hang #1024 - N/A", QRContent(o))

	at := time.UnixMilli(1717209000123)
	assert.Equal(t, "hoa-don-1024-1717209000123.pdf", Filename(1024, at))
}

func TestRender(t *testing.T) {
	r := NewRenderer()
	data, err := r.Render(sampleOrder())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	bare := &api.Order{ID: 7, Status: "UNKNOWN"}
	data, err = r.Render(bare)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	_, err = r.Render(nil)
	assert.True(t, errors.IsValidation(err))
}

func TestExportToDir(t *testing.T) {
	dir := t.TempDir()
	at := time.UnixMilli(1717209000123)
	e := NewExporter(NewRenderer(WithClock(func() time.Time { return at })), DirSink{Dir: filepath.Join(dir, "out")})

	loc, err := e.Export(context.Background(), sampleOrder())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out", "hoa-don-1024-1717209000123.pdf"), loc)

	info, err := os.Stat(loc)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
