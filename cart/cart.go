// Package cart 购物车，每次变更同步写入存储
package cart

import (
	"context"
	"slices"
	"sync"

	"github.com/kochabx/phoneshop/api"
	"github.com/kochabx/phoneshop/errors"
	"github.com/kochabx/phoneshop/events"
	"github.com/kochabx/phoneshop/log"
	"github.com/kochabx/phoneshop/store"
)

var (
	ErrInvalidQuantity = errors.Validation("quantity must be at least 1")
	ErrInvalidItem     = errors.Validation("cart item needs a product id")
)

// Item 购物车中的一行，以商品 id 区分
type Item struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Image    string  `json:"image,omitempty"`
	Quantity int     `json:"quantity"`
}

func (i Item) Total() float64 {
	return float64(i.Quantity) * i.Price
}

// FromProduct 按商品当前价格生成一行
func FromProduct(p *api.Product) Item {
	it := Item{ID: p.ID, Name: p.Name, Price: p.Price()}
	if len(p.Images) > 0 {
		it.Image = p.Images[0].ImageURL
	}
	return it
}

// Cart 并发安全
type Cart struct {
	mu        sync.Mutex
	items     []Item
	storage   store.Storage
	publisher events.Publisher
	logger    *log.Logger
}

type Option func(*Cart)

func WithPublisher(p events.Publisher) Option {
	return func(c *Cart) {
		c.publisher = p
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Cart) {
		c.logger = l
	}
}

// New 从存储加载已保存的购物车，数量小于 1 的行被丢弃
func New(ctx context.Context, storage store.Storage, opts ...Option) (*Cart, error) {
	c := &Cart{
		storage:   storage,
		publisher: events.Nop{},
		logger:    log.G,
	}
	for _, opt := range opts {
		opt(c)
	}

	var items []Item
	err := store.GetJSON(ctx, storage, store.KeyCart, &items)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		c.logger.Warn().Err(err).Msg("discarding unreadable cart")
	default:
		c.items = slices.DeleteFunc(items, func(it Item) bool { return it.Quantity < 1 || it.ID == 0 })
	}
	return c, nil
}

// Items 按加入顺序返回快照
func (c *Cart) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Count 所有行的商品件数之和
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var sum float64
	for _, it := range c.items {
		sum += it.Total()
	}
	return sum
}

// Add 加入一件商品，已存在时数量加一
func (c *Cart) Add(ctx context.Context, item Item) error {
	return c.AddN(ctx, item, 1)
}

// AddN 加入 n 件商品
func (c *Cart) AddN(ctx context.Context, item Item, n int) error {
	if item.ID == 0 {
		return ErrInvalidItem
	}
	if n < 1 {
		return ErrInvalidQuantity
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	prev := slices.Clone(c.items)
	if i := c.index(item.ID); i >= 0 {
		c.items[i].Quantity += n
	} else {
		item.Quantity = n
		c.items = append(c.items, item)
	}
	return c.persist(ctx, prev, "add", item.ID)
}

// Remove 删除 id 对应的行，id 不存在时不报错
func (c *Cart) Remove(ctx context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(id)
	if i < 0 {
		return nil
	}
	prev := slices.Clone(c.items)
	c.items = slices.Delete(c.items, i, i+1)
	return c.persist(ctx, prev, "remove", id)
}

// SetQuantity 设置数量，n <= 0 时删除该行
func (c *Cart) SetQuantity(ctx context.Context, id int64, n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(id)
	if i < 0 {
		return nil
	}
	prev := slices.Clone(c.items)
	if n <= 0 {
		c.items = slices.Delete(c.items, i, i+1)
		return c.persist(ctx, prev, "remove", id)
	}
	c.items[i].Quantity = n
	return c.persist(ctx, prev, "set", id)
}

// Clear 清空购物车，存储失败时保持原样
func (c *Cart) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.storage.Delete(ctx, store.KeyCart); err != nil {
		return err
	}
	c.items = nil
	c.publish(ctx, events.New(events.CartCleared, "", nil))
	return nil
}

// OrderRequest 转换为下单接口需要的商品 id 与数量列表
func (c *Cart) OrderRequest(address, phone, carrier string, method api.PaymentMethod, discountCode string) (api.OrderRequest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.items) == 0 {
		return api.OrderRequest{}, errors.Validation("cart is empty")
	}
	req := api.OrderRequest{
		ProductIDs:    make([]int64, 0, len(c.items)),
		Quantities:    make([]int, 0, len(c.items)),
		Address:       address,
		PhoneNumber:   phone,
		Carrier:       carrier,
		DiscountCode:  discountCode,
		PaymentMethod: method,
	}
	for _, it := range c.items {
		req.ProductIDs = append(req.ProductIDs, it.ID)
		req.Quantities = append(req.Quantities, it.Quantity)
	}
	return req, nil
}

func (c *Cart) index(id int64) int {
	return slices.IndexFunc(c.items, func(it Item) bool { return it.ID == id })
}

// persist 写入存储，失败时恢复为 prev。调用方需持有 mu
func (c *Cart) persist(ctx context.Context, prev []Item, op string, id int64) error {
	items := c.items
	if items == nil {
		items = []Item{}
	}
	if err := store.SetJSON(ctx, c.storage, store.KeyCart, items); err != nil {
		c.items = prev
		c.logger.Warn().Err(err).Str("op", op).Int64("product_id", id).Msg("persist cart, change reverted")
		return err
	}
	c.publish(ctx, events.New(events.CartUpdated, "", map[string]any{
		"op":        op,
		"productId": id,
		"lines":     len(items),
	}))
	return nil
}

func (c *Cart) publish(ctx context.Context, e events.Event) {
	if err := c.publisher.Publish(ctx, e); err != nil {
		c.logger.Warn().Err(err).Str("event", string(e.Type)).Msg("publish cart event")
	}
}
