package mockapi

import (
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/kochabx/phoneshop/api"
	"github.com/kochabx/phoneshop/errors"
)

type account struct {
	user        api.User
	hash        []byte
	verifyToken string
	resetToken  string
	points      int64
}

// data 内存数据，所有访问都需持有 mu
type data struct {
	mu   sync.RWMutex
	seq  int64
	cost int

	accounts   map[int64]*account
	emails     map[string]int64
	categories []api.Category
	products   map[int64]*api.Product
	orders     map[int64]*api.Order
	payments   map[int64]*api.Payment // by order id
	logs       []api.InventoryLog
	discounts  map[int64]*api.Discount
	used       map[string]bool // discount codes already redeemed
	reviews    []api.Review
	messages   []api.ChatMessage
}

func newData(cost int) *data {
	return &data{
		seq:       1000,
		cost:      cost,
		accounts:  map[int64]*account{},
		emails:    map[string]int64{},
		products:  map[int64]*api.Product{},
		orders:    map[int64]*api.Order{},
		payments:  map[int64]*api.Payment{},
		discounts: map[int64]*api.Discount{},
		used:      map[string]bool{},
	}
}

// next must be called with mu held.
func (d *data) next() int64 {
	d.seq++
	return d.seq
}

// addAccount must be called with mu held.
func (d *data) addAccount(u api.User, password string) (*account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.cost)
	if err != nil {
		return nil, err
	}
	u.ID = d.next()
	u.Email = strings.ToLower(u.Email)
	a := &account{user: u, hash: hash}
	d.accounts[u.ID] = a
	d.emails[u.Email] = u.ID
	return a, nil
}

func (d *data) accountByEmail(email string) (*account, bool) {
	id, ok := d.emails[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, false
	}
	return d.accounts[id], true
}

func (d *data) sortedProducts() []api.Product {
	out := make([]api.Product, 0, len(d.products))
	for _, p := range d.products {
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b api.Product) int { return int(a.ID - b.ID) })
	return out
}

func (d *data) sortedOrders(owner int64) []api.Order {
	out := make([]api.Order, 0, len(d.orders))
	for _, o := range d.orders {
		if owner == 0 || (o.Customer != nil && o.Customer.ID == owner) {
			out = append(out, *o)
		}
	}
	// newest first
	slices.SortFunc(out, func(a, b api.Order) int { return int(b.ID - a.ID) })
	return out
}

// adjustStock must be called with mu held.
func (d *data) adjustStock(p *api.Product, change int, reason string, at time.Time) {
	p.Stock += change
	d.logs = append(d.logs, api.InventoryLog{
		ID:             d.next(),
		ProductID:      p.ID,
		ProductName:    p.Name,
		QuantityChange: change,
		Reason:         reason,
		CreatedAt:      api.NewTime(at),
	})
}

// 演示账号
const (
	AdminEmail       = "admin@sondv.vn"
	AdminPassword    = "admin123"
	CustomerEmail    = "khach@sondv.vn"
	CustomerPassword = "123456"
)

func (d *data) seed(now time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	created := api.NewTime(now.AddDate(0, -2, 0))
	if _, err := d.addAccount(api.User{
		FullName: "Quản trị viên", Email: AdminEmail, Phone: "0901234567",
		Roles: []string{api.RoleAdmin}, Verified: true, CreatedAt: created,
	}, AdminPassword); err != nil {
		return err
	}
	if _, err := d.addAccount(api.User{
		FullName: "Nguyễn Văn An", Email: CustomerEmail, Phone: "0912345678",
		Address: "12 Lê Lợi, Quận 1, TP. Hồ Chí Minh",
		Roles:   []string{api.RoleCustomer}, Verified: true, CreatedAt: created,
	}, CustomerPassword); err != nil {
		return err
	}

	phones := api.Category{ID: d.next(), Name: "Điện thoại"}
	accessories := api.Category{ID: d.next(), Name: "Phụ kiện"}
	d.categories = []api.Category{phones, accessories}

	supplier := &api.Supplier{ID: d.next(), Name: "Công ty Phân phối Di động Việt", Email: "ncc@didongviet.vn"}
	sale := 27990000.0
	for _, p := range []api.Product{
		{Name: "iPhone 15 Pro Max 256GB", CostPrice: 26000000, SellingPrice: 29990000, DiscountedPrice: &sale, Stock: 15, Featured: true, Category: &phones},
		{Name: "Samsung Galaxy S24 Ultra", CostPrice: 24000000, SellingPrice: 28990000, Stock: 8, Featured: true, Category: &phones},
		{Name: "Xiaomi Redmi Note 13", CostPrice: 4200000, SellingPrice: 4990000, Stock: 3, Category: &phones},
		{Name: "Tai nghe AirPods Pro 2", CostPrice: 4800000, SellingPrice: 5990000, Stock: 0, Category: &accessories},
		{Name: "Sạc nhanh Anker 65W", CostPrice: 600000, SellingPrice: 890000, Stock: 40, Category: &accessories},
	} {
		p.ID = d.next()
		p.Supplier = supplier
		p.Images = []api.ProductImage{{ID: d.next(), ImageURL: "/images/products/" + slug(p.Name) + ".jpg"}}
		d.products[p.ID] = &p
	}

	for _, disc := range []api.Discount{
		{Code: "GIAM10", DiscountPercentage: 10, MinOrderValue: 1000000, ProbabilityWeight: 60},
		{Code: "GIAM20", DiscountPercentage: 20, MinOrderValue: 10000000, ProbabilityWeight: 30},
		{Code: "TET50", DiscountPercentage: 50, MinOrderValue: 0, ProbabilityWeight: 10},
	} {
		from, to := api.NewTime(now.AddDate(0, -1, 0)), api.NewTime(now.AddDate(0, 1, 0))
		disc.ID = d.next()
		disc.ValidFrom, disc.ValidTo = &from, &to
		d.discounts[disc.ID] = &disc
	}
	return nil
}

func (d *data) discountByCode(code string) (*api.Discount, bool) {
	code = api.NormalizeCode(code)
	for _, disc := range d.discounts {
		if disc.Code == code {
			return disc, true
		}
	}
	return nil, false
}

// usableDiscount must be called with mu held.
func (d *data) usableDiscount(code string, at time.Time) (*api.Discount, error) {
	disc, ok := d.discountByCode(code)
	switch {
	case !ok:
		return nil, errors.BadRequest("Mã giảm giá không tồn tại.")
	case d.used[disc.Code]:
		return nil, errors.BadRequest("Mã giảm giá đã được sử dụng.")
	case disc.ValidFrom != nil && at.Before(disc.ValidFrom.Time):
		return nil, errors.BadRequest("Mã giảm giá chưa có hiệu lực.")
	case disc.ValidTo != nil && at.After(disc.ValidTo.Time):
		return nil, errors.BadRequest("Mã giảm giá đã hết hạn.")
	}
	return disc, nil
}

func slug(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), "-"))
}
