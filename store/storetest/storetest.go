// Package storetest runs the behaviour every store.Storage driver shares.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/phoneshop/store"
)

// Run exercises s. The namespace must be empty on entry.
func Run(t *testing.T, s store.Storage) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, err := s.Get(ctx, "missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("set get overwrite", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, store.KeyAuth, []byte(`{"userId":1}`)))
		got, err := s.Get(ctx, store.KeyAuth)
		require.NoError(t, err)
		assert.JSONEq(t, `{"userId":1}`, string(got))

		require.NoError(t, s.Set(ctx, store.KeyAuth, []byte(`{"userId":2}`)))
		got, err = s.Get(ctx, store.KeyAuth)
		require.NoError(t, err)
		assert.JSONEq(t, `{"userId":2}`, string(got))
	})

	t.Run("json helpers", func(t *testing.T) {
		type line struct {
			ProductID int64 `json:"productId"`
			Quantity  int   `json:"quantity"`
		}
		in := []line{{ProductID: 5, Quantity: 2}}
		require.NoError(t, store.SetJSON(ctx, s, store.KeyCart, in))

		var out []line
		require.NoError(t, store.GetJSON(ctx, s, store.KeyCart, &out))
		assert.Equal(t, in, out)
	})

	t.Run("keys delete clear", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, store.KeyCookies, []byte(`{"auth_token":"x"}`)))

		keys, err := s.Keys(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{store.KeyAuth, store.KeyCart, store.KeyCookies}, keys)

		require.NoError(t, s.Delete(ctx, store.KeyAuth))
		require.NoError(t, s.Delete(ctx, store.KeyAuth))
		_, err = s.Get(ctx, store.KeyAuth)
		assert.ErrorIs(t, err, store.ErrNotFound)

		require.NoError(t, s.Clear(ctx))
		keys, err = s.Keys(ctx)
		require.NoError(t, err)
		assert.Empty(t, keys)
	})
}
