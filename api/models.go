package api

import (
	"slices"
	"time"
)

// Page Spring 风格的分页结构
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
}

// Message 多数写接口返回的 {message} 结构
type Message struct {
	Message string `json:"message"`
}

// User /users/me 返回的用户身份，后端未给出 ExpiresAt 时从访问凭据中读取
type User struct {
	ID        int64      `json:"id"`
	FullName  string     `json:"fullName"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone,omitempty"`
	Address   string     `json:"address,omitempty"`
	AvatarURL string     `json:"avatarUrl,omitempty"`
	Provider  string     `json:"provider,omitempty"`
	CreatedAt Time       `json:"createdAt"`
	Roles     []string   `json:"roles"`
	Verified  bool       `json:"isVerified"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

func (u *User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

func (u *User) IsAdmin() bool {
	return u.HasRole(RoleAdmin) || u.HasRole(RoleStaff)
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Supplier struct {
	ID      int64  `json:"id,omitempty"`
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

type ProductImage struct {
	ID       int64  `json:"id,omitempty"`
	ImageURL string `json:"imageUrl"`
}

type Product struct {
	ID                int64          `json:"id,omitempty"`
	Name              string         `json:"name" validate:"required"`
	Description       string         `json:"description,omitempty"`
	CostPrice         float64        `json:"costPrice" validate:"gt=0"`
	SellingPrice      float64        `json:"sellingPrice" validate:"gt=0"`
	DiscountedPrice   *float64       `json:"discountedPrice,omitempty"`
	DiscountStartDate *Time          `json:"discountStartDate,omitempty"`
	DiscountEndDate   *Time          `json:"discountEndDate,omitempty"`
	Featured          bool           `json:"isFeatured"`
	Stock             int            `json:"stock" validate:"gte=0"`
	SoldQuantity      int            `json:"soldQuantity"`
	Rating            float64        `json:"rating"`
	RatingCount       int            `json:"ratingCount" validate:"gte=0"`
	Category          *Category      `json:"category,omitempty"`
	Supplier          *Supplier      `json:"supplier,omitempty"`
	Images            []ProductImage `json:"images,omitempty"`
}

// Price 有折扣价时返回折扣价，否则返回售价
func (p *Product) Price() float64 {
	if p.DiscountedPrice != nil && *p.DiscountedPrice > 0 {
		return *p.DiscountedPrice
	}
	return p.SellingPrice
}

// ProductFilter /products/filtered 的查询条件
type ProductFilter struct {
	CategoryID int64
	MinPrice   float64
	MaxPrice   float64
	Brand      string
	SortBy     string
	Page       int
	Size       int
}

type Customer struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
}

type ShippingInfo struct {
	Address           string  `json:"address"`
	PhoneNumber       string  `json:"phoneNumber"`
	Carrier           string  `json:"carrier"`
	TrackingNumber    string  `json:"trackingNumber,omitempty"`
	ShippingFee       float64 `json:"shippingFee"`
	EstimatedDelivery *Time   `json:"estimatedDelivery,omitempty"`
}

type OrderItem struct {
	ID          int64   `json:"id"`
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

// Total 数量乘以单价
func (i OrderItem) Total() float64 {
	return float64(i.Quantity) * i.Price
}

type Order struct {
	ID            int64         `json:"id"`
	Status        OrderStatus   `json:"status"`
	CreatedAt     Time          `json:"createdAt"`
	TotalPrice    float64       `json:"totalPrice"`
	ShippingFee   float64       `json:"shippingFee"`
	Customer      *Customer     `json:"customer,omitempty"`
	ShippingInfo  *ShippingInfo `json:"shippingInfo,omitempty"`
	OrderDetails  []OrderItem   `json:"orderDetails"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
}

// Subtotal 各行金额之和
func (o *Order) Subtotal() float64 {
	var sum float64
	for _, it := range o.OrderDetails {
		sum += it.Total()
	}
	return sum
}

// OrderRequest 下单请求，ProductIDs 与 Quantities 按下标对应
type OrderRequest struct {
	ProductIDs    []int64       `json:"productIds" validate:"required,min=1"`
	Quantities    []int         `json:"quantities" validate:"required,min=1,dive,gte=1"`
	Address       string        `json:"address" validate:"required"`
	PhoneNumber   string        `json:"phoneNumber" validate:"required,vnphone"`
	Carrier       string        `json:"carrier" validate:"required"`
	DiscountCode  string        `json:"discountCode,omitempty"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
}

type Payment struct {
	ID            int64         `json:"id"`
	OrderID       int64         `json:"orderId,omitempty"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	Status        PaymentStatus `json:"status"`
	TransactionID string        `json:"transactionId,omitempty"`
	Amount        float64       `json:"amount,omitempty"`
	CreatedAt     Time          `json:"createdAt"`
}

type PaymentRequest struct {
	OrderID       int64         `json:"orderId" validate:"required,gt=0"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
}

// PaymentURL 在线支付网关的跳转地址
type PaymentURL struct {
	PaymentURL string `json:"paymentUrl"`
}

type Review struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"productId,omitempty"`
	UserName  string `json:"userName,omitempty"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
	CreatedAt Time   `json:"createdAt"`
}

type ReviewRequest struct {
	OrderDetailID int64  `json:"orderDetailId" validate:"required,gt=0"`
	Rating        int    `json:"rating" validate:"min=1,max=5"`
	Comment       string `json:"comment,omitempty"`
}

type Inventory struct {
	ID        int64 `json:"id"`
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
	UpdatedAt Time  `json:"updatedAt"`
}

type InventoryLog struct {
	ID             int64  `json:"id"`
	ProductID      int64  `json:"productId"`
	ProductName    string `json:"productName,omitempty"`
	QuantityChange int    `json:"quantityChange"`
	Reason         string `json:"reason"`
	CreatedAt      Time   `json:"createdAt"`
}

type InventorySummary struct {
	TotalProducts   int64   `json:"totalProducts"`
	TotalQuantity   int64   `json:"totalQuantity"`
	LowStockCount   int64   `json:"lowStockCount"`
	OutOfStockCount int64   `json:"outOfStockCount"`
	TotalValue      float64 `json:"totalValue"`
}

// Adjustment AdjustBatch 中的一次库存调整
type Adjustment struct {
	ProductID      int64  `json:"productId" validate:"required,gt=0"`
	QuantityChange int    `json:"quantityChange" validate:"ne=0"`
	Reason         string `json:"reason" validate:"required"`
}

type Discount struct {
	ID                 int64   `json:"id,omitempty"`
	Code               string  `json:"code" validate:"required,discountcode"`
	DiscountPercentage float64 `json:"discountPercentage" validate:"gt=0,lte=100"`
	ValidFrom          *Time   `json:"validFrom,omitempty"`
	ValidTo            *Time   `json:"validTo,omitempty"`
	MinOrderValue      float64 `json:"minOrderValue" validate:"gte=0"`
	ProbabilityWeight  int     `json:"probabilityWeight" validate:"gte=0"`
}

// Active 判断 at 是否在有效期内
func (d *Discount) Active(at time.Time) bool {
	if d.ValidFrom != nil && at.Before(d.ValidFrom.Time) {
		return false
	}
	if d.ValidTo != nil && at.After(d.ValidTo.Time) {
		return false
	}
	return true
}

type DiscountItem struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"gte=1"`
}

type DiscountApplyRequest struct {
	DiscountCode string         `json:"discountCode" validate:"required,discountcode"`
	Items        []DiscountItem `json:"items" validate:"required,min=1,dive"`
}

type DiscountApplyResponse struct {
	OriginalTotal  float64 `json:"originalTotal"`
	DiscountAmount float64 `json:"discountAmount"`
	FinalTotal     float64 `json:"finalTotal"`
	Message        string  `json:"message"`
}

// ProductDiscount 按百分比给商品打折
type ProductDiscount struct {
	ProductIDs         []int64 `json:"productIds,omitempty"`
	DiscountPercentage float64 `json:"discountPercentage" validate:"gt=0,lte=100"`
	StartDate          *Time   `json:"startDate,omitempty"`
	EndDate            *Time   `json:"endDate,omitempty"`
}

type ShippingEstimateRequest struct {
	Address string `json:"address" validate:"required"`
	Carrier string `json:"carrier" validate:"required"`
}

type ShippingEstimate struct {
	Fee               float64 `json:"fee"`
	EstimatedDelivery *Time   `json:"estimatedDelivery,omitempty"`
}

type UpdateUserRequest struct {
	FullName  string `json:"fullName" validate:"required,max=50"`
	Phone     string `json:"phone,omitempty" validate:"omitempty,len=10,numeric"`
	Address   string `json:"address,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

type LoyaltyPoints struct {
	UserID int64 `json:"userId"`
	Points int64 `json:"points"`
}

// 报表行

type ProfitRow struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
	Cost    float64 `json:"cost"`
	Profit  float64 `json:"profit"`
}

type RevenueRow struct {
	Date       string  `json:"date"`
	Revenue    float64 `json:"revenue"`
	OrderCount int64   `json:"orderCount"`
}

type TopProductRow struct {
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int64   `json:"quantity"`
	Revenue     float64 `json:"revenue"`
}

type StatusCountRow struct {
	Status OrderStatus `json:"status"`
	Count  int64       `json:"count"`
}

type LowStockRow struct {
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName"`
	Stock       int    `json:"stock"`
}

type CategoryRevenueRow struct {
	Category     string  `json:"category"`
	TotalRevenue float64 `json:"totalRevenue"`
	OrderCount   int64   `json:"orderCount"`
	ProductCount int64   `json:"productCount"`
	TotalProfit  float64 `json:"totalProfit"`
}

// Stats 管理后台概览
type Stats struct {
	TotalRevenue            float64            `json:"totalRevenue"`
	TotalOrders             int64              `json:"totalOrders"`
	TopSellingProductsCount int64              `json:"topSellingProductsCount"`
	NewUsersCount           int64              `json:"newUsersCount"`
	RevenueByTime           map[string]float64 `json:"revenueByTime"`
	OrdersByTime            map[string]int64   `json:"ordersByTime"`
}

type RegionCount struct {
	Region string `json:"region"`
	Count  int64  `json:"count"`
}

type ChatMessage struct {
	ID         int64  `json:"id,omitempty"`
	SenderID   int64  `json:"senderId"`
	ReceiverID int64  `json:"receiverId,omitempty"`
	Content    string `json:"content"`
	Read       bool   `json:"isRead"`
	FromAgent  bool   `json:"fromAgent"`
	SentAt     Time   `json:"sentAt"`
}

// ChatUser 客服看到的有对话记录的用户
type ChatUser struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
}

type ChatbotAnswer struct {
	Reply      string  `json:"reply"`
	ProductIDs []int64 `json:"productIds,omitempty"`
}
