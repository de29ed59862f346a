package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/phoneshop/store"
	"github.com/kochabx/phoneshop/store/storetest"
)

func TestMemory(t *testing.T) {
	storetest.Run(t, store.NewMemory())
}

func TestMemoryClosed(t *testing.T) {
	m := store.NewMemory()
	require.NoError(t, m.Close())
	assert.ErrorIs(t, m.Set(context.Background(), "k", []byte("1")), store.ErrClosed)
}

func TestFile(t *testing.T) {
	f, err := store.NewFile(filepath.Join(t.TempDir(), "profile", "state.json"))
	require.NoError(t, err)
	storetest.Run(t, f)
}

func TestFilePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	ctx := context.Background()

	f, err := store.NewFile(path)
	require.NoError(t, err)
	require.NoError(t, f.Set(ctx, store.KeyAuth, []byte(`{"email":"a@b.vn"}`)))
	assert.ErrorIs(t, f.Set(ctx, "raw", []byte("not json")), store.ErrNotJSON)
	require.NoError(t, f.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened, err := store.NewFile(path)
	require.NoError(t, err)
	got, err := reopened.Get(ctx, store.KeyAuth)
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"a@b.vn"}`, string(got))
}

func TestFileCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))

	_, err := store.NewFile(path)
	assert.Error(t, err)
}
