package mockapi

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kochabx/phoneshop/api"
	"github.com/kochabx/phoneshop/errors"
	transporthttp "github.com/kochabx/phoneshop/transport/http"
)

// Loyalty points credited when an order completes.
const completionPoints = 1000

func (s *Server) listOrders(c *gin.Context) {
	claims := claimsOf(c)
	owner := claims.UserID
	if isStaff(claims) {
		owner = 0
	}
	s.data.mu.RLock()
	out := s.data.sortedOrders(owner)
	s.data.mu.RUnlock()
	transporthttp.GinJSON(c, out)
}

func (s *Server) paginatedOrders(c *gin.Context) {
	claims := claimsOf(c)
	owner := claims.UserID
	if isStaff(claims) {
		owner = 0
	}
	s.data.mu.RLock()
	out := s.data.sortedOrders(owner)
	s.data.mu.RUnlock()
	transporthttp.GinJSON(c, paginate(out, queryInt(c, "page", 0), queryInt(c, "size", 10)))
}

// order loads an order the caller may see. It writes the error itself.
// Must be called with mu held.
func (s *Server) order(c *gin.Context) (*api.Order, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}
	o, found := s.data.orders[id]
	if !found {
		transporthttp.GinJSONE(c, errors.NotFound("Không tìm thấy đơn hàng!"))
		return nil, false
	}
	if claims := claimsOf(c); !isStaff(claims) && (o.Customer == nil || o.Customer.ID != claims.UserID) {
		transporthttp.GinJSONE(c, errors.Forbidden("Bạn không có quyền xem đơn hàng này!"))
		return nil, false
	}
	return o, true
}

func (s *Server) getOrder(c *gin.Context) {
	s.data.mu.RLock()
	defer s.data.mu.RUnlock()
	if o, ok := s.order(c); ok {
		transporthttp.GinJSON(c, *o)
	}
}

func (s *Server) createOrder(c *gin.Context) {
	var req api.OrderRequest
	if !s.bind(c, &req) {
		return
	}
	if len(req.ProductIDs) != len(req.Quantities) {
		transporthttp.GinJSONE(c, errors.BadRequest("Danh sách sản phẩm và số lượng không khớp"))
		return
	}
	method := api.NormalizePaymentMethod(string(req.PaymentMethod))
	if !method.Valid() {
		transporthttp.GinJSONE(c, errors.BadRequest("Phương thức thanh toán không hợp lệ: %s", req.PaymentMethod))
		return
	}

	now := s.now()
	claims := claimsOf(c)

	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	acc, ok := s.data.accounts[claims.UserID]
	if !ok {
		transporthttp.GinJSONE(c, errors.Unauthorized("Tài khoản không tồn tại"))
		return
	}

	// validate everything before touching stock
	products := make([]*api.Product, len(req.ProductIDs))
	for i, id := range req.ProductIDs {
		p, found := s.data.products[id]
		if !found {
			transporthttp.GinJSONE(c, errors.NotFound("Không tìm thấy sản phẩm ID: %d", id))
			return
		}
		if p.Stock < req.Quantities[i] {
			transporthttp.GinJSONE(c, errors.BadRequest("Sản phẩm '%s' không đủ hàng.", p.Name))
			return
		}
		if req.DiscountCode != "" && onSale(p, now) {
			transporthttp.GinJSONE(c, errors.BadRequest("Sản phẩm '%s' đang khuyến mãi, không thể áp mã.", p.Name))
			return
		}
		products[i] = p
	}

	items := make([]api.OrderItem, len(products))
	var subtotal float64
	for i, p := range products {
		items[i] = api.OrderItem{
			ID:          s.data.next(),
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    req.Quantities[i],
			Price:       p.Price(),
		}
		subtotal += items[i].Total()
	}

	var discountAmount float64
	if req.DiscountCode != "" {
		d, err := s.data.usableDiscount(req.DiscountCode, now)
		if err != nil {
			transporthttp.GinJSONE(c, err)
			return
		}
		if subtotal < d.MinOrderValue {
			transporthttp.GinJSONE(c, errors.BadRequest("Đơn hàng chưa đạt điều kiện tối thiểu để áp mã."))
			return
		}
		discountAmount = subtotal * d.DiscountPercentage / 100
		spreadDiscount(items, discountAmount)
		s.data.used[d.Code] = true
	}

	for i, p := range products {
		s.data.adjustStock(p, -req.Quantities[i], "Tạo đơn hàng", now)
	}

	est := estimate(req.Carrier, now)
	o := &api.Order{
		ID:          s.data.next(),
		Status:      api.OrderPending,
		CreatedAt:   api.NewTime(now),
		ShippingFee: est.Fee,
		TotalPrice:  subtotal - discountAmount + est.Fee,
		Customer: &api.Customer{
			ID:       acc.user.ID,
			FullName: acc.user.FullName,
			Email:    acc.user.Email,
			Phone:    acc.user.Phone,
		},
		ShippingInfo: &api.ShippingInfo{
			Address:           req.Address,
			PhoneNumber:       req.PhoneNumber,
			Carrier:           req.Carrier,
			TrackingNumber:    trackingNumber(req.Carrier),
			ShippingFee:       est.Fee,
			EstimatedDelivery: est.EstimatedDelivery,
		},
		OrderDetails:  items,
		PaymentMethod: method,
		PaymentStatus: api.PaymentPending,
	}
	s.data.orders[o.ID] = o
	s.data.payments[o.ID] = &api.Payment{
		ID:            s.data.next(),
		OrderID:       o.ID,
		PaymentMethod: method,
		Status:        api.PaymentPending,
		Amount:        o.TotalPrice,
		CreatedAt:     api.NewTime(now),
	}
	transporthttp.GinJSON(c, *o)
}

// spreadDiscount lowers unit prices so that the line totals absorb amount
// in proportion to quantity.
func spreadDiscount(items []api.OrderItem, amount float64) {
	var qty int
	for _, it := range items {
		qty += it.Quantity
	}
	if qty == 0 || amount <= 0 {
		return
	}
	for i := range items {
		share := amount * float64(items[i].Quantity) / float64(qty)
		items[i].Price = max(items[i].Price-share/float64(items[i].Quantity), 0)
	}
}

func onSale(p *api.Product, at time.Time) bool {
	if p.DiscountedPrice == nil || p.DiscountStartDate == nil || p.DiscountEndDate == nil {
		return false
	}
	return !at.Before(p.DiscountStartDate.Time) && !at.After(p.DiscountEndDate.Time)
}

func trackingNumber(carrier string) string {
	prefix := strings.ToUpper(strings.TrimSpace(carrier))
	if prefix == "" {
		prefix = "VN"
	}
	return prefix + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

// updateOrderStatus takes the bare status name as a text/plain body.
func (s *Server) updateOrderStatus(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 64))
	if err != nil {
		transporthttp.GinJSONE(c, errors.BadRequest("Không đọc được trạng thái"))
		return
	}
	status, ok := api.ParseOrderStatus(strings.Trim(string(raw), "\" \n"))
	if !ok {
		transporthttp.GinJSONE(c, errors.BadRequest("Trạng thái không hợp lệ: %s", raw))
		return
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	o, found := s.order(c)
	if !found {
		return
	}

	if status == api.OrderCompleted && o.Status != api.OrderCompleted {
		if o.Customer != nil {
			if acc, ok := s.data.accounts[o.Customer.ID]; ok {
				acc.points += completionPoints
			}
		}
		for _, it := range o.OrderDetails {
			if p, ok := s.data.products[it.ProductID]; ok {
				p.SoldQuantity += it.Quantity
			}
		}
		if pay, ok := s.data.payments[o.ID]; ok && o.PaymentMethod == api.PaymentCOD {
			pay.Status = api.PaymentPaid
			o.PaymentStatus = api.PaymentPaid
		}
	}
	o.Status = status
	transporthttp.GinJSON(c, *o)
}

// cancelOrder only accepts pending orders and puts the stock back.
func (s *Server) cancelOrder(c *gin.Context) {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	o, ok := s.order(c)
	if !ok {
		return
	}
	if o.Status != api.OrderPending {
		transporthttp.GinJSONE(c, errors.BadRequest("Đơn hàng này không thể hủy ở trạng thái hiện tại!"))
		return
	}

	now := s.now()
	o.Status = api.OrderCancelled
	o.PaymentStatus = api.PaymentCancelled
	if pay, ok := s.data.payments[o.ID]; ok {
		pay.Status = api.PaymentCancelled
	}
	for _, it := range o.OrderDetails {
		if p, ok := s.data.products[it.ProductID]; ok {
			s.data.adjustStock(p, it.Quantity, "Hủy đơn hàng", now)
		}
	}
	transporthttp.GinJSON(c, *o)
}

func (s *Server) deleteOrder(c *gin.Context) {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	o, ok := s.order(c)
	if !ok {
		return
	}
	delete(s.data.orders, o.ID)
	delete(s.data.payments, o.ID)
	transporthttp.GinText(c, fmt.Sprintf("Đã xóa đơn hàng #%d", o.ID))
}

func (s *Server) estimateShipping(c *gin.Context) {
	var req api.ShippingEstimateRequest
	if !s.bind(c, &req) {
		return
	}
	transporthttp.GinJSON(c, estimate(req.Carrier, s.now()))
}

// estimate uses a flat fee per carrier.
func estimate(carrier string, now time.Time) api.ShippingEstimate {
	fee, days := 35000.0, 4
	switch strings.ToUpper(strings.TrimSpace(carrier)) {
	case "GHN":
		fee, days = 30000, 2
	case "GHTK":
		fee, days = 25000, 3
	case "VIETTELPOST", "VIETTEL_POST":
		fee, days = 28000, 3
	}
	at := api.NewTime(now.AddDate(0, 0, days))
	return api.ShippingEstimate{Fee: fee, EstimatedDelivery: &at}
}
