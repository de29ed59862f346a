package mockapi

import (
	"math/rand/v2"
	"net/http"
	"slices"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kochabx/phoneshop/api"
	"github.com/kochabx/phoneshop/errors"
	transporthttp "github.com/kochabx/phoneshop/transport/http"
)

// Payments are keyed by order id, one per order.

func (s *Server) createPayment(c *gin.Context) {
	var req api.PaymentRequest
	if !s.bind(c, &req) {
		return
	}
	method := api.NormalizePaymentMethod(string(req.PaymentMethod))

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	o, ok := s.data.orders[req.OrderID]
	if !ok {
		transporthttp.GinJSONE(c, errors.NotFound("Không tìm thấy đơn hàng!"))
		return
	}
	pay := s.data.payments[o.ID]
	if pay == nil {
		pay = &api.Payment{ID: s.data.next(), OrderID: o.ID, Amount: o.TotalPrice, CreatedAt: api.NewTime(s.now())}
		s.data.payments[o.ID] = pay
	}
	pay.PaymentMethod = method
	pay.Status = api.PaymentProcessing
	if method == api.PaymentCOD {
		pay.Status = api.PaymentAwaitingDelivery
	}
	pay.TransactionID = uuid.NewString()
	o.PaymentMethod, o.PaymentStatus = method, pay.Status
	transporthttp.GinJSON(c, *pay)
}

func (s *Server) getPayment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	s.data.mu.RLock()
	defer s.data.mu.RUnlock()
	for _, pay := range s.data.payments {
		if pay.ID == id {
			transporthttp.GinJSON(c, *pay)
			return
		}
	}
	transporthttp.GinJSONE(c, errors.NotFound("Không tìm thấy thanh toán"))
}

func (s *Server) paymentByTransaction(c *gin.Context) {
	tx := c.Param("tx")
	s.data.mu.RLock()
	defer s.data.mu.RUnlock()
	for _, pay := range s.data.payments {
		if pay.TransactionID != "" && pay.TransactionID == tx {
			transporthttp.GinJSON(c, *pay)
			return
		}
	}
	transporthttp.GinJSONE(c, errors.NotFound("Không tìm thấy giao dịch"))
}

func (s *Server) paymentURL(c *gin.Context) {
	id, ok := paramID(c, "orderId")
	if !ok {
		return
	}
	s.data.mu.RLock()
	pay, found := s.data.payments[id]
	var method api.PaymentMethod
	if found {
		method = pay.PaymentMethod
	}
	s.data.mu.RUnlock()

	switch {
	case !found:
		transporthttp.GinJSONE(c, errors.NotFound("Không tìm thấy thanh toán cho đơn hàng #%d", id))
	case method == api.PaymentCOD:
		transporthttp.GinJSONE(c, errors.BadRequest("Đơn hàng thanh toán khi nhận hàng"))
	default:
		transporthttp.GinJSON(c, api.PaymentURL{
			PaymentURL: "https://sandbox.gateway.local/" + string(method) + "/pay?orderId=" + strconv.FormatInt(id, 10),
		})
	}
}

func (s *Server) updatePayment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var body struct {
		Status api.PaymentStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || !body.Status.Valid() {
		transporthttp.GinJSONE(c, errors.BadRequest("Trạng thái thanh toán không hợp lệ"))
		return
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	pay, found := s.data.payments[id]
	if !found {
		transporthttp.GinJSONE(c, errors.NotFound("Không tìm thấy thanh toán cho đơn hàng #%d", id))
		return
	}
	pay.Status = body.Status
	if o, ok := s.data.orders[id]; ok {
		o.PaymentStatus = body.Status
	}
	transporthttp.GinJSON(c, *pay)
}

// Reviews.

func (s *Server) addReview(c *gin.Context) {
	var req api.ReviewRequest
	if !s.bind(c, &req) {
		return
	}
	claims := claimsOf(c)

	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	var item *api.OrderItem
	for _, o := range s.data.orders {
		if o.Customer == nil || o.Customer.ID != claims.UserID {
			continue
		}
		for i := range o.OrderDetails {
			if o.OrderDetails[i].ID == req.OrderDetailID {
				if o.Status != api.OrderCompleted {
					transporthttp.GinJSONE(c, errors.BadRequest("Chỉ có thể đánh giá đơn hàng đã hoàn thành"))
					return
				}
				item = &o.OrderDetails[i]
			}
		}
	}
	if item == nil {
		transporthttp.GinJSONE(c, errors.NotFound("Không tìm thấy sản phẩm trong đơn hàng"))
		return
	}

	r := api.Review{
		ID:        s.data.next(),
		ProductID: item.ProductID,
		UserName:  s.data.accounts[claims.UserID].user.FullName,
		Rating:    req.Rating,
		Comment:   req.Comment,
		CreatedAt: api.NewTime(s.now()),
	}
	s.data.reviews = append(s.data.reviews, r)
	if p, ok := s.data.products[item.ProductID]; ok {
		p.Rating = (p.Rating*float64(p.RatingCount) + float64(r.Rating)) / float64(p.RatingCount+1)
		p.RatingCount++
	}
	transporthttp.GinJSON(c, r)
}

func (s *Server) reviewsOf(productID int64) []api.Review {
	s.data.mu.RLock()
	defer s.data.mu.RUnlock()
	var out []api.Review
	for _, r := range s.data.reviews {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	// newest first
	slices.Reverse(out)
	return out
}

func (s *Server) productReviews(c *gin.Context) {
	if id, ok := paramID(c, "id"); ok {
		transporthttp.GinJSON(c, paginate(s.reviewsOf(id), queryInt(c, "page", 0), queryInt(c, "size", 5)))
	}
}

func (s *Server) reviewAverage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	reviews := s.reviewsOf(id)
	var avg float64
	for _, r := range reviews {
		avg += float64(r.Rating)
	}
	if len(reviews) > 0 {
		avg /= float64(len(reviews))
	}
	transporthttp.GinJSON(c, avg)
}

func (s *Server) reviewCount(c *gin.Context) {
	if id, ok := paramID(c, "id"); ok {
		transporthttp.GinJSON(c, len(s.reviewsOf(id)))
	}
}

// Inventory. Stock lives on the product.

// LowStockThreshold marks a product as low on stock.
const LowStockThreshold = 5

func inventoryOf(p *api.Product, at api.Time) api.Inventory {
	return api.Inventory{ID: p.ID, ProductID: p.ID, Quantity: p.Stock, UpdatedAt: at}
}

func (s *Server) getInventory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	s.data.mu.RLock()
	defer s.data.mu.RUnlock()
	p, found := s.data.products[id]
	if !found {
		transporthttp.GinJSONE(c, errors.NotFound("Không tìm thấy tồn kho cho sản phẩm ID: %d", id))
		return
	}
	transporthttp.GinJSON(c, inventoryOf(p, api.NewTime(s.now())))
}

func (s *Server) adjustInventory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	change, err := strconv.Atoi(c.Query("quantityChange"))
	if err != nil || change == 0 {
		transporthttp.GinJSONE(c, errors.BadRequest("Số lượng thay đổi không hợp lệ"))
		return
	}
	reason := c.Query("reason")
	if reason == "" {
		transporthttp.GinJSONE(c, errors.BadRequest("Vui lòng nhập lý do"))
		return
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	p, found := s.data.products[id]
	if !found {
		transporthttp.GinJSONE(c, errors.NotFound("Không tìm thấy tồn kho cho sản phẩm ID: %d", id))
		return
	}
	if p.Stock+change < 0 {
		transporthttp.GinJSONE(c, errors.BadRequest("Tồn kho không đủ để giảm %d", -change))
		return
	}
	now := s.now()
	s.data.adjustStock(p, change, reason, now)
	transporthttp.GinJSON(c, inventoryOf(p, api.NewTime(now)))
}

func (s *Server) inventorySummary(c *gin.Context) {
	s.data.mu.RLock()
	defer s.data.mu.RUnlock()
	var sum api.InventorySummary
	for _, p := range s.data.products {
		sum.TotalProducts++
		sum.TotalQuantity += int64(p.Stock)
		sum.TotalValue += float64(p.Stock) * p.CostPrice
		switch {
		case p.Stock == 0:
			sum.OutOfStockCount++
		case p.Stock < LowStockThreshold:
			sum.LowStockCount++
		}
	}
	transporthttp.GinJSON(c, sum)
}

func (s *Server) inventoryLogs(c *gin.Context) {
	s.data.mu.RLock()
	logs := slices.Clone(s.data.logs)
	s.data.mu.RUnlock()
	slices.Reverse(logs)
	transporthttp.GinJSON(c, paginate(logs, queryInt(c, "page", 0), queryInt(c, "size", 20)))
}

func (s *Server) inventoryReport(c *gin.Context) {
	at := api.NewTime(s.now())
	s.data.mu.RLock()
	products := s.data.sortedProducts()
	s.data.mu.RUnlock()

	out := make([]api.Inventory, len(products))
	for i := range products {
		out[i] = inventoryOf(&products[i], at)
	}
	transporthttp.GinJSON(c, out)
}

// Discounts.

func (s *Server) sortedDiscounts(keep func(*api.Discount) bool) []api.Discount {
	s.data.mu.RLock()
	defer s.data.mu.RUnlock()
	out := make([]api.Discount, 0, len(s.data.discounts))
	for _, d := range s.data.discounts {
		if keep == nil || keep(d) {
			out = append(out, *d)
		}
	}
	slices.SortFunc(out, func(a, b api.Discount) int { return int(a.ID - b.ID) })
	return out
}

func (s *Server) listDiscounts(c *gin.Context) {
	transporthttp.GinJSON(c, s.sortedDiscounts(nil))
}

func (s *Server) activeDiscounts(c *gin.Context) {
	minPct, _ := strconv.ParseFloat(c.Query("minPercentage"), 64)
	now := s.now()
	transporthttp.GinJSON(c, s.sortedDiscounts(func(d *api.Discount) bool {
		return d.Active(now) && d.DiscountPercentage >= minPct
	}))
}

func (s *Server) discountByCode(c *gin.Context) {
	s.data.mu.RLock()
	d, ok := s.data.discountByCode(c.Param("code"))
	var out api.Discount
	if ok {
		out = *d
	}
	s.data.mu.RUnlock()

	if !ok {
		transporthttp.GinJSONE(c, errors.NotFound("Mã giảm giá không tồn tại."))
		return
	}
	transporthttp.GinJSON(c, out)
}

func (s *Server) createDiscount(c *gin.Context) {
	var d api.Discount
	if !s.bind(c, &d) {
		return
	}
	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	if _, taken := s.data.discountByCode(d.Code); taken {
		transporthttp.GinJSONE(c, errors.Conflict("Mã giảm giá đã tồn tại"))
		return
	}
	d.ID = s.data.next()
	s.data.discounts[d.ID] = &d
	transporthttp.GinJSON(c, d)
}

// updateDiscount and deleteDiscount address the discount by numeric id.
func (s *Server) updateDiscount(c *gin.Context) {
	id, ok := paramID(c, "code")
	if !ok {
		return
	}
	var d api.Discount
	if !s.bind(c, &d) {
		return
	}
	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	if _, found := s.data.discounts[id]; !found {
		transporthttp.GinJSONE(c, errors.NotFound("Discount not found"))
		return
	}
	d.ID = id
	s.data.discounts[id] = &d
	transporthttp.GinJSON(c, d)
}

func (s *Server) deleteDiscount(c *gin.Context) {
	id, ok := paramID(c, "code")
	if !ok {
		return
	}
	s.data.mu.Lock()
	delete(s.data.discounts, id)
	s.data.mu.Unlock()
	c.Status(http.StatusNoContent)
}

// spin draws an active code weighted by probabilityWeight.
func (s *Server) spin(c *gin.Context) {
	now := s.now()
	candidates := s.sortedDiscounts(func(d *api.Discount) bool {
		return d.Active(now) && d.ProbabilityWeight > 0
	})
	if len(candidates) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	var total int
	for _, d := range candidates {
		total += d.ProbabilityWeight
	}
	pick := rand.IntN(total) + 1
	for _, d := range candidates {
		pick -= d.ProbabilityWeight
		if pick <= 0 {
			transporthttp.GinJSON(c, d)
			return
		}
	}
}

func (s *Server) applyDiscount(c *gin.Context) {
	var req api.DiscountApplyRequest
	if !s.bind(c, &req) {
		return
	}
	now := s.now()

	s.data.mu.RLock()
	defer s.data.mu.RUnlock()
	d, err := s.data.usableDiscount(req.DiscountCode, now)
	if err != nil {
		transporthttp.GinJSONE(c, err)
		return
	}

	var total float64
	for _, it := range req.Items {
		p, ok := s.data.products[it.ProductID]
		if !ok {
			transporthttp.GinJSONE(c, errors.BadRequest("Sản phẩm không tồn tại hoặc đã bị xoá."))
			return
		}
		if onSale(p, now) {
			transporthttp.GinJSONE(c, errors.BadRequest("Sản phẩm \"%s\" đang khuyến mãi. Không thể áp thêm mã giảm giá.", p.Name))
			return
		}
		total += p.SellingPrice * float64(it.Quantity)
	}
	if total < d.MinOrderValue {
		transporthttp.GinJSONE(c, errors.BadRequest("Đơn hàng chưa đạt giá trị tối thiểu để sử dụng mã."))
		return
	}

	amount := total * d.DiscountPercentage / 100
	transporthttp.GinJSON(c, api.DiscountApplyResponse{
		OriginalTotal:  total,
		DiscountAmount: amount,
		FinalTotal:     total - amount,
		Message:        "Mã giảm giá đã được áp dụng.",
	})
}
