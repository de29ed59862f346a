package api

import "strings"

// OrderStatus 订单履约状态
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderConfirmed OrderStatus = "CONFIRMED"
	OrderShipped   OrderStatus = "SHIPPED"
	OrderCompleted OrderStatus = "COMPLETED"
	OrderCancelled OrderStatus = "CANCELLED"
)

var orderStatusText = map[OrderStatus]string{
	OrderPending:   "Chờ xác nhận",
	OrderConfirmed: "Đã xác nhận",
	OrderShipped:   "Đang giao",
	OrderCompleted: "Hoàn thành",
	OrderCancelled: "Đã hủy",
}

// OrderStatuses 按生命周期顺序列出所有状态
func OrderStatuses() []OrderStatus {
	return []OrderStatus{OrderPending, OrderConfirmed, OrderShipped, OrderCompleted, OrderCancelled}
}

func (s OrderStatus) Valid() bool {
	_, ok := orderStatusText[s]
	return ok
}

// Text 展示给顾客的越南语名称
func (s OrderStatus) Text() string {
	if t, ok := orderStatusText[s]; ok {
		return t
	}
	return string(s)
}

// ParseOrderStatus 不区分大小写
func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	return st, st.Valid()
}

// PaymentMethod 支付方式
type PaymentMethod string

const (
	PaymentCOD   PaymentMethod = "COD"
	PaymentMomo  PaymentMethod = "MOMO"
	PaymentVNPay PaymentMethod = "VNPAY"
)

var paymentMethodText = map[PaymentMethod]string{
	PaymentCOD:   "Thanh toán khi nhận hàng",
	PaymentMomo:  "Thanh toán qua MOMO",
	PaymentVNPay: "Thanh toán qua VNPAY",
}

func (m PaymentMethod) Valid() bool {
	_, ok := paymentMethodText[m]
	return ok
}

func (m PaymentMethod) Text() string {
	if t, ok := paymentMethodText[m]; ok {
		return t
	}
	return "Chưa có thông tin"
}

// NormalizePaymentMethod 转为大写，为空时返回 COD
func NormalizePaymentMethod(s string) PaymentMethod {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return PaymentCOD
	}
	return PaymentMethod(s)
}

// PaymentStatus 支付结算状态
type PaymentStatus string

const (
	PaymentPending          PaymentStatus = "PENDING"
	PaymentProcessing       PaymentStatus = "PROCESSING"
	PaymentPaid             PaymentStatus = "PAID"
	PaymentAwaitingDelivery PaymentStatus = "AWAITING_DELIVERY"
	PaymentFailed           PaymentStatus = "FAILED"
	PaymentCancelled        PaymentStatus = "CANCELLED"
)

var paymentStatusText = map[PaymentStatus]string{
	PaymentPending:          "Chờ thanh toán",
	PaymentProcessing:       "Đang xử lý thanh toán",
	PaymentPaid:             "Đã thanh toán",
	PaymentAwaitingDelivery: "Chờ giao hàng",
	PaymentFailed:           "Thanh toán thất bại",
	PaymentCancelled:        "Thanh toán bị hủy",
}

func (s PaymentStatus) Valid() bool {
	_, ok := paymentStatusText[s]
	return ok
}

func (s PaymentStatus) Text() string {
	if t, ok := paymentStatusText[s]; ok {
		return t
	}
	return string(s)
}

// Settled 判断订单能否进入配送
func (s PaymentStatus) Settled() bool {
	return s == PaymentPaid || s == PaymentAwaitingDelivery
}

// 后端使用的角色名
const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
	RoleStaff    = "STAFF"
)
