package cart

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/phoneshop/api"
	"github.com/kochabx/phoneshop/errors"
	"github.com/kochabx/phoneshop/events"
	"github.com/kochabx/phoneshop/store"
)

var iphone = Item{ID: 1, Name: "iPhone 15", Price: 20_000_000}

func stored(t *testing.T, s store.Storage) []Item {
	t.Helper()
	var items []Item
	require.NoError(t, store.GetJSON(context.Background(), s, store.KeyCart, &items))
	return items
}

func TestAddTwiceIncrements(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	c, err := New(ctx, s)
	require.NoError(t, err)

	require.NoError(t, c.Add(ctx, iphone))
	require.NoError(t, c.Add(ctx, iphone))

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, items, stored(t, s))
	assert.Equal(t, 40_000_000.0, c.Total())
}

func TestSetQuantityZeroRemoves(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	c, err := New(ctx, s)
	require.NoError(t, err)

	require.NoError(t, c.Add(ctx, iphone))
	require.NoError(t, c.Add(ctx, Item{ID: 2, Name: "Galaxy S24", Price: 18_000_000}))
	require.NoError(t, c.SetQuantity(ctx, 2, 3))
	assert.Equal(t, 4, c.Count())

	require.NoError(t, c.SetQuantity(ctx, 1, 0))
	items := stored(t, s)
	require.Len(t, items, 1)
	assert.Equal(t, int64(2), items[0].ID)
	assert.Equal(t, 3, items[0].Quantity)

	require.NoError(t, c.SetQuantity(ctx, 2, -1))
	assert.Empty(t, stored(t, s))
	assert.Zero(t, c.Len())
}

func TestRemoveAndUnknownIDs(t *testing.T) {
	ctx := context.Background()
	c, err := New(ctx, store.NewMemory())
	require.NoError(t, err)

	require.NoError(t, c.Add(ctx, iphone))
	require.NoError(t, c.Remove(ctx, 99))
	require.NoError(t, c.SetQuantity(ctx, 99, 5))
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Remove(ctx, 1))
	assert.Zero(t, c.Len())
}

func TestInvalidInput(t *testing.T) {
	ctx := context.Background()
	c, err := New(ctx, store.NewMemory())
	require.NoError(t, err)

	assert.ErrorIs(t, c.Add(ctx, Item{Name: "no id"}), ErrInvalidItem)
	err = c.AddN(ctx, iphone, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.True(t, errors.IsValidation(err))
}

func TestLoadsPersistedCart(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	require.NoError(t, s.Set(ctx, store.KeyCart, []byte(`[{"id":1,"name":"iPhone 15","price":10,"quantity":2},{"id":2,"quantity":0}]`)))

	c, err := New(ctx, s)
	require.NoError(t, err)
	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)

	require.NoError(t, s.Set(ctx, store.KeyCart, []byte(`{"broken":true}`)))
	c, err = New(ctx, s)
	require.NoError(t, err)
	assert.Zero(t, c.Len())
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	rec := &events.Recorder{}
	c, err := New(ctx, s, WithPublisher(rec))
	require.NoError(t, err)

	require.NoError(t, c.Add(ctx, iphone))
	require.NoError(t, c.Clear(ctx))
	assert.Zero(t, c.Len())
	_, err = s.Get(ctx, store.KeyCart)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, []events.Type{events.CartUpdated, events.CartCleared}, rec.Types())
}

// flakyStorage fails writes while down is set.
type flakyStorage struct {
	store.Storage
	down bool
}

func (s *flakyStorage) Set(ctx context.Context, key string, value []byte) error {
	if s.down {
		return errors.ServiceUnavailable("storage offline")
	}
	return s.Storage.Set(ctx, key, value)
}

func (s *flakyStorage) Delete(ctx context.Context, key string) error {
	if s.down {
		return errors.ServiceUnavailable("storage offline")
	}
	return s.Storage.Delete(ctx, key)
}

func TestFailedWriteKeepsCart(t *testing.T) {
	ctx := context.Background()
	s := &flakyStorage{Storage: store.NewMemory()}
	rec := &events.Recorder{}
	c, err := New(ctx, s, WithPublisher(rec))
	require.NoError(t, err)
	galaxy := Item{ID: 2, Name: "Galaxy S24", Price: 18_000_000}
	require.NoError(t, c.AddN(ctx, iphone, 2))
	require.NoError(t, c.Add(ctx, galaxy))
	want := c.Items()

	s.down = true
	assert.Error(t, c.Add(ctx, iphone))
	assert.Error(t, c.Add(ctx, Item{ID: 3, Name: "Pixel 8", Price: 15_000_000}))
	assert.Error(t, c.SetQuantity(ctx, 2, 5))
	assert.Error(t, c.SetQuantity(ctx, 1, 0))
	assert.Error(t, c.Remove(ctx, 2))
	assert.Error(t, c.Clear(ctx))

	assert.Equal(t, want, c.Items())
	assert.Equal(t, 3, c.Count())
	assert.Equal(t, want, stored(t, s))
	assert.Equal(t, []events.Type{events.CartUpdated, events.CartUpdated}, rec.Types())

	s.down = false
	require.NoError(t, c.Add(ctx, iphone))
	assert.Equal(t, 3, c.Items()[0].Quantity)
	assert.Equal(t, c.Items(), stored(t, s))
}

func TestOrderRequest(t *testing.T) {
	ctx := context.Background()
	c, err := New(ctx, store.NewMemory())
	require.NoError(t, err)

	_, err = c.OrderRequest("addr", "0912345678", "GHN", api.PaymentCOD, "")
	assert.True(t, errors.IsValidation(err))

	require.NoError(t, c.AddN(ctx, iphone, 2))
	require.NoError(t, c.Add(ctx, Item{ID: 7, Price: 1}))

	req, err := c.OrderRequest("addr", "0912345678", "GHN", api.PaymentVNPay, "SALE10")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 7}, req.ProductIDs)
	assert.Equal(t, []int{2, 1}, req.Quantities)
	assert.Equal(t, api.PaymentVNPay, req.PaymentMethod)
}

func TestFromProduct(t *testing.T) {
	sale := 15_000_000.0
	p := &api.Product{ID: 3, Name: "Pixel 8", SellingPrice: 17_000_000, DiscountedPrice: &sale,
		Images: []api.ProductImage{{ImageURL: "https://cdn.example/p8.jpg"}}}
	it := FromProduct(p)
	assert.Equal(t, sale, it.Price)
	assert.Equal(t, "https://cdn.example/p8.jpg", it.Image)
}

func TestConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	c, err := New(ctx, s)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Add(ctx, iphone)
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, c.Count())
	assert.Equal(t, 20, stored(t, s)[0].Quantity)
}
