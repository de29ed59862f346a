package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/phoneshop/store"
	"github.com/kochabx/phoneshop/store/storetest"
)

func TestConfigDSN(t *testing.T) {
	pg := Config{Driver: DriverPostgres, User: "shop", Password: "pw", Database: "shop"}.withDefaults()
	assert.Equal(t, "host=localhost port=5432 user=shop password=pw dbname=shop sslmode=disable TimeZone=UTC", pg.dsn())

	my := Config{Driver: DriverMySQL, User: "root", Password: "pw", Database: "shop"}.withDefaults()
	assert.Equal(t, "root:pw@tcp(localhost:3306)/shop?charset=utf8mb4&parseTime=true&loc=UTC", my.dsn())

	lite := Config{}.withDefaults()
	assert.Equal(t, DriverSQLite, lite.Driver)
	assert.Equal(t, 1, lite.MaxOpenConns)
	assert.Equal(t, "shopctl_kv", lite.Table)

	assert.Equal(t, "custom", Config{DSN: "custom"}.dsn())
}

func TestUnsupportedDriver(t *testing.T) {
	_, err := New(Config{Driver: "oracle"})
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestSQLiteStorage(t *testing.T) {
	s, err := Open(Config{Path: filepath.Join(t.TempDir(), "kv.db")})
	require.NoError(t, err)
	defer s.Close()

	storetest.Run(t, s)
}

func TestNamespacesShareTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	ctx := context.Background()

	alice, err := Open(Config{Path: path, Namespace: "alice"})
	require.NoError(t, err)
	defer alice.Close()
	require.NoError(t, alice.Set(ctx, store.KeyAuth, []byte(`{"u":1}`)))

	bob, err := Open(Config{Path: path, Namespace: "bob"})
	require.NoError(t, err)
	defer bob.Close()

	_, err = bob.Get(ctx, store.KeyAuth)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, bob.Clear(ctx))
	got, err := alice.Get(ctx, store.KeyAuth)
	require.NoError(t, err)
	assert.JSONEq(t, `{"u":1}`, string(got))
}
