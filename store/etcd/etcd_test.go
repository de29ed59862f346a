package etcd

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/phoneshop/store"
	"github.com/kochabx/phoneshop/store/storetest"
)

func TestConfigRoot(t *testing.T) {
	assert.Equal(t, "/shopctl/default/", Config{}.withDefaults().root())
	assert.Equal(t, "/x/alice/", Config{Prefix: "/x/", Namespace: "alice"}.withDefaults().root())
}

func openTest(t *testing.T) *Storage {
	t.Helper()
	endpoints := os.Getenv("ETCD_ENDPOINTS")
	if endpoints == "" {
		t.Skip("ETCD_ENDPOINTS not set")
	}

	s, err := Open(Config{
		Endpoints:   strings.Split(endpoints, ","),
		Namespace:   "test-" + uuid.NewString()[:8],
		DialTimeout: 2 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Clear(context.Background())
		_ = s.Close()
	})
	return s
}

func TestStorage(t *testing.T) {
	storetest.Run(t, openTest(t))
}

func TestWatch(t *testing.T) {
	s := openTest(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch := s.Watch(ctx)
	require.NoError(t, s.Set(ctx, store.KeyAuth, []byte(`{}`)))

	select {
	case resp := <-ch:
		require.NotEmpty(t, resp.Events)
		assert.True(t, strings.HasSuffix(string(resp.Events[0].Kv.Key), store.KeyAuth))
	case <-ctx.Done():
		t.Fatal("no watch event")
	}
}
