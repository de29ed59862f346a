// Package invoice 为订单生成配送发票 PDF
package invoice

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/kochabx/phoneshop/api"
	"github.com/kochabx/phoneshop/core/util/qrcode"
	"github.com/kochabx/phoneshop/errors"
	"github.com/kochabx/phoneshop/log"
)

// Store 页眉页脚中的商家信息
type Store struct {
	Name    string `json:"name" mapstructure:"name"`
	Address string `json:"address" mapstructure:"address"`
	Phone   string `json:"phone" mapstructure:"phone"`
	Email   string `json:"email" mapstructure:"email"`
	Website string `json:"website" mapstructure:"website"`
}

func DefaultStore() Store {
	return Store{
		Name:    "Cửa hàng điện thoại SonDV",
		Address: "123 Đường Nguyễn Văn Cừ, Quận 5, TP.HCM",
		Phone:   "0123-456-789",
		Email:   "contact@sondvphone.com",
		Website: "www.sondvphone.com",
	}
}

// invoice labels differ from the storefront ones for PENDING and COMPLETED
var statusText = map[api.OrderStatus]string{
	api.OrderPending:   "Đang xử lý",
	api.OrderConfirmed: "Đã xác nhận",
	api.OrderShipped:   "Đang giao",
	api.OrderCompleted: "Đã giao",
	api.OrderCancelled: "Đã hủy",
}

func statusLabel(s api.OrderStatus) string {
	if t, ok := statusText[s]; ok {
		return t
	}
	return string(s)
}

// QRContent 物流追踪二维码的内容
func QRContent(o *api.Order) string {
	tracking := "N/A"
	if o.ShippingInfo != nil && o.ShippingInfo.TrackingNumber != "" {
		tracking = o.ShippingInfo.TrackingNumber
	}
	return fmt.Sprintf("Don hang #%d - %s", o.ID, tracking)
}

// Filename 格式为 hoa-don-<id>-<unix 毫秒>.pdf
func Filename(orderID int64, at time.Time) string {
	return fmt.Sprintf("hoa-don-%d-%d.pdf", orderID, at.UnixMilli())
}

const (
	pageMargin = 15.0
	qrSize     = 30.0
	lineH      = 5.0
)

// Renderer 发票排版
type Renderer struct {
	store  Store
	now    func() time.Time
	logger *log.Logger
}

type Option func(*Renderer)

func WithStore(s Store) Option {
	return func(r *Renderer) {
		r.store = s
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		r.now = now
	}
}

func WithLogger(l *log.Logger) Option {
	return func(r *Renderer) {
		r.logger = l
	}
}

func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{store: DefaultStore(), now: time.Now, logger: log.G}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render 返回 o 的 PDF 内容
func (r *Renderer) Render(o *api.Order) ([]byte, error) {
	if o == nil || o.ID == 0 {
		return nil, errors.Validation("order is required")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(r.now())
	pdf.SetTitle(fmt.Sprintf("Hoa don #%d", o.ID), false)
	pdf.SetAuthor(fold(r.store.Name), false)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.AddPage()

	l := &layout{pdf: pdf}
	l.width, l.height = pdf.GetPageSize()
	l.y = 20

	r.header(l)
	r.orderInfo(l, o)
	r.customer(l, o)
	subtotal := r.items(l, o)
	r.totals(l, o, subtotal)
	r.shipping(l, o)
	r.qrAndSignature(l, o)
	r.footer(l)

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render invoice %d: %w", o.ID, err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write invoice %d: %w", o.ID, err)
	}
	return buf.Bytes(), nil
}

type layout struct {
	pdf           *fpdf.Fpdf
	width, height float64
	y             float64
}

func (l *layout) left() float64  { return pageMargin }
func (l *layout) right() float64 { return l.width - pageMargin }
func (l *layout) center() float64 {
	return l.width / 2
}

func (l *layout) font(style string, size float64) {
	l.pdf.SetFont("Helvetica", style, size)
}

func (l *layout) text(x, y float64, s string) {
	l.pdf.Text(x, y, fold(s))
}

func (l *layout) textCenter(x, y float64, s string) {
	s = fold(s)
	l.pdf.Text(x-l.pdf.GetStringWidth(s)/2, y, s)
}

func (l *layout) textRight(x, y float64, s string) {
	s = fold(s)
	l.pdf.Text(x-l.pdf.GetStringWidth(s), y, s)
}

func (r *Renderer) header(l *layout) {
	l.font("B", 20)
	l.textCenter(l.center(), l.y, "HÓA ĐƠN GIAO HÀNG")
	l.y += 8
	l.font("B", 16)
	l.textCenter(l.center(), l.y, r.store.Name)
	l.y += 6
	l.font("", 10)
	l.textCenter(l.center(), l.y, r.store.Address)
	l.y += 4
	l.textCenter(l.center(), l.y, fmt.Sprintf("SĐT: %s | Email: %s", r.store.Phone, r.store.Email))

	l.y += 10
	l.pdf.SetLineWidth(0.5)
	l.pdf.Line(l.left(), l.y, l.right(), l.y)
	l.y += 10
}

func (r *Renderer) orderInfo(l *layout, o *api.Order) {
	l.font("B", 12)
	l.text(l.left(), l.y, "THÔNG TIN ĐƠN HÀNG")
	l.y += 8

	col2 := l.center() + 5
	l.font("", 10)
	l.text(l.left(), l.y, fmt.Sprintf("Mã đơn hàng: #%d", o.ID))
	l.text(col2, l.y, "Ngày đặt: "+formatDate(o.CreatedAt.Time))
	l.y += 6
	l.text(l.left(), l.y, "Trạng thái: "+statusLabel(o.Status))
	l.text(col2, l.y, "Thanh toán: "+o.PaymentMethod.Text())
	l.y += 12
}

func (r *Renderer) customer(l *layout, o *api.Order) {
	var name, email, phone, address string
	if o.Customer != nil {
		name, email = o.Customer.FullName, o.Customer.Email
	}
	if o.ShippingInfo != nil {
		phone, address = o.ShippingInfo.PhoneNumber, o.ShippingInfo.Address
	}

	l.font("B", 10)
	l.text(l.left(), l.y, "THÔNG TIN KHÁCH HÀNG")
	l.y += 8
	l.font("", 10)
	l.text(l.left(), l.y, "Họ tên: "+orDefault(name, "N/A"))
	l.y += lineH
	l.text(l.left(), l.y, "Email: "+orDefault(email, "N/A"))
	l.y += lineH
	l.text(l.left(), l.y, "SĐT: "+orDefault(phone, "N/A"))
	l.y += lineH

	lines := l.pdf.SplitText(fold("Địa chỉ: "+orDefault(address, "N/A")), l.right()-l.left())
	for _, line := range lines {
		l.pdf.Text(l.left(), l.y, line)
		l.y += lineH
	}
	l.y += lineH
}

func (r *Renderer) items(l *layout, o *api.Order) float64 {
	l.font("B", 10)
	l.text(l.left(), l.y, "DANH SÁCH SẢN PHẨM")
	l.y += 8

	tableW := l.right() - l.left()
	cols := []float64{tableW * 0.5, tableW * 0.1, tableW * 0.2, tableW * 0.2}

	l.pdf.SetFillColor(245, 245, 245)
	l.pdf.SetLineWidth(0.3)
	l.pdf.Rect(l.left(), l.y-2, tableW, 10, "FD")
	l.font("B", 9)
	x := l.left()
	for i, h := range []string{"Sản phẩm", "SL", "Đơn giá", "Thành tiền"} {
		l.text(x+2, l.y+4, h)
		x += cols[i]
	}
	l.y += 10

	const rowH = 8.0
	var subtotal float64
	l.font("", 9)
	for i, it := range o.OrderDetails {
		total := it.Total()
		subtotal += total

		if l.y+rowH > l.height-pageMargin {
			l.pdf.AddPage()
			l.y = 20
		}
		if i%2 == 0 {
			l.pdf.SetFillColor(250, 250, 250)
			l.pdf.Rect(l.left(), l.y, tableW, rowH, "F")
		}

		x := l.left()
		name := l.pdf.SplitText(fold(orDefault(it.ProductName, "N/A")), cols[0]-4)
		if len(name) > 0 {
			l.pdf.Text(x+2, l.y+5, name[0])
		}
		x += cols[0]
		l.textCenter(x+cols[1]/2, l.y+5, fmt.Sprint(it.Quantity))
		x += cols[1]
		l.textRight(x+cols[2]-2, l.y+5, FormatCurrency(it.Price))
		x += cols[2]
		l.textRight(x+cols[3]-2, l.y+5, FormatCurrency(total))

		l.pdf.SetLineWidth(0.2)
		l.pdf.Rect(l.left(), l.y, tableW, rowH, "D")
		l.y += rowH
	}
	l.y += 8
	return subtotal
}

func (r *Renderer) totals(l *layout, o *api.Order, subtotal float64) {
	const boxW = 60.0
	x := l.center() + 20
	fee := o.ShippingFee
	if fee == 0 && o.ShippingInfo != nil {
		fee = o.ShippingInfo.ShippingFee
	}

	l.font("", 10)
	l.pdf.SetLineWidth(0.3)
	l.pdf.Rect(x, l.y-5, boxW, 25, "D")
	l.text(x+2, l.y, "Tạm tính:")
	l.textRight(x+boxW-2, l.y, FormatCurrency(subtotal))
	l.y += 6
	l.text(x+2, l.y, "Phí vận chuyển:")
	l.textRight(x+boxW-2, l.y, FormatCurrency(fee))
	l.y += 6
	l.pdf.Line(x+2, l.y, x+boxW-2, l.y)
	l.y += 4
	l.font("B", 10)
	l.text(x+2, l.y, "TỔNG CỘNG:")
	l.textRight(x+boxW-2, l.y, FormatCurrency(o.TotalPrice))
	l.y += 15
}

func (r *Renderer) shipping(l *layout, o *api.Order) {
	s := o.ShippingInfo
	if s != nil {
		l.font("B", 12)
		l.text(l.left(), l.y, "THÔNG TIN VẬN CHUYỂN")
		l.y += 8
		l.font("", 10)
		l.text(l.left(), l.y, "Đơn vị vận chuyển: "+orDefault(s.Carrier, "N/A"))
		l.y += lineH
		if s.TrackingNumber != "" {
			l.text(l.left(), l.y, "Mã vận đơn: "+s.TrackingNumber)
			l.y += lineH
		}
		if s.EstimatedDelivery != nil && !s.EstimatedDelivery.IsZero() {
			l.text(l.left(), l.y, "Dự kiến giao: "+formatDate(s.EstimatedDelivery.Time))
			l.y += lineH
		}
	}
	l.y += 15
}

// qrAndSignature is skipped when the page has no room left, as is the QR
// alone when it cannot be encoded.
func (r *Renderer) qrAndSignature(l *layout, o *api.Order) {
	if l.y >= l.height-50 {
		return
	}

	png, err := qrcode.PNG(QRContent(o), 200)
	if err != nil {
		r.logger.Warn().Err(err).Int64("order_id", o.ID).Msg("invoice qr code")
	} else {
		name := fmt.Sprintf("qr-%d", o.ID)
		l.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
		l.pdf.ImageOptions(name, l.left(), l.y, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		l.font("", 8)
		l.text(l.left(), l.y+qrSize+5, "Scan để theo dõi")
	}

	sigX := l.center() + 10
	l.font("", 10)
	l.text(sigX, l.y+5, "Chữ ký người nhận:")
	l.pdf.SetLineWidth(0.3)
	l.pdf.Rect(sigX, l.y+8, 60, 20, "D")
	l.y += 40
}

func (r *Renderer) footer(l *layout) {
	l.font("B", 12)
	l.textCenter(l.center(), l.y, "Cảm ơn quý khách đã mua hàng!")
	l.y += 5
	l.font("", 8)
	l.textCenter(l.center(), l.y, fmt.Sprintf("Hotline: %s | Website: %s", r.store.Phone, r.store.Website))
}

// Sink 保存生成的发票并返回存放位置
type Sink interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// Exporter 生成发票并交给 Sink
type Exporter struct {
	renderer *Renderer
	sink     Sink
	logger   *log.Logger
}

func NewExporter(r *Renderer, sink Sink) *Exporter {
	return &Exporter{renderer: r, sink: sink, logger: r.logger}
}

// Export 生成 o 的发票并以 Filename 保存，返回存放位置
func (e *Exporter) Export(ctx context.Context, o *api.Order) (string, error) {
	data, err := e.renderer.Render(o)
	if err != nil {
		return "", err
	}
	name := Filename(o.ID, e.renderer.now())
	loc, err := e.sink.Save(ctx, name, data)
	if err != nil {
		return "", err
	}
	e.logger.Info().Int64("order_id", o.ID).Str("location", loc).Int("bytes", len(data)).Msg("invoice exported")
	return loc, nil
}
