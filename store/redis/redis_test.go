package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/phoneshop/store"
	"github.com/kochabx/phoneshop/store/storetest"
)

func newMini(t *testing.T) (*miniredis.Miniredis, Config) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, Config{Addrs: []string{mr.Addr()}, Protocol: 2}
}

func TestConfig(t *testing.T) {
	assert.ErrorIs(t, Config{}.Validate(), ErrEmptyAddrs)

	cfg := Config{Addrs: []string{"a:6379"}}.withDefaults()
	assert.Equal(t, "shopctl:", cfg.KeyPrefix)
	assert.Equal(t, 3, cfg.Protocol)
	assert.Equal(t, "single", cfg.mode())

	assert.Equal(t, "cluster", Config{Addrs: []string{"a:1", "b:1"}}.mode())
	assert.Equal(t, "sentinel", Config{Addrs: []string{"a:1"}, MasterName: "m"}.mode())
}

func TestNewPings(t *testing.T) {
	_, cfg := newMini(t)

	client, err := New(cfg, WithDebug(time.Second))
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()))
	assert.NotNil(t, client.Stats())

	_, err = New(Config{Addrs: []string{"127.0.0.1:1"}, DialTimeout: 200 * time.Millisecond, Protocol: 2})
	assert.Error(t, err)
}

func TestStorage(t *testing.T) {
	_, cfg := newMini(t)

	s, err := Open(cfg)
	require.NoError(t, err)
	defer s.Close()

	storetest.Run(t, s)
}

func TestStorageIsolatedByPrefix(t *testing.T) {
	mr, cfg := newMini(t)
	ctx := context.Background()

	a, err := Open(Config{Addrs: cfg.Addrs, Protocol: 2, KeyPrefix: "alice:"})
	require.NoError(t, err)
	defer a.Close()
	b, err := Open(Config{Addrs: cfg.Addrs, Protocol: 2, KeyPrefix: "bob:"})
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Set(ctx, store.KeyAuth, []byte(`{}`)))
	require.NoError(t, b.Set(ctx, store.KeyAuth, []byte(`{}`)))
	require.NoError(t, a.Clear(ctx))

	assert.False(t, mr.Exists("alice:auth"))
	assert.True(t, mr.Exists("bob:auth"))
}

func TestStorageTTL(t *testing.T) {
	mr, cfg := newMini(t)
	cfg.TTL = time.Hour

	s, err := Open(cfg)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(context.Background(), store.KeyCart, []byte(`[]`)))
	assert.Equal(t, time.Hour, mr.TTL("shopctl:cartItems"))

	mr.FastForward(2 * time.Hour)
	_, err = s.Get(context.Background(), store.KeyCart)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
