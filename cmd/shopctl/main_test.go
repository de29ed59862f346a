package main

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kochabx/phoneshop/api"
	"github.com/kochabx/phoneshop/config"
	khttp "github.com/kochabx/phoneshop/core/net/http"
	"github.com/kochabx/phoneshop/internal/mockapi"
	"github.com/kochabx/phoneshop/log"
	"github.com/kochabx/phoneshop/store"
)

type harness struct {
	t    *testing.T
	cfg  string
	base string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv, err := mockapi.New(mockapi.Config{Secret: "cli-secret"},
		mockapi.WithHashCost(bcrypt.MinCost),
		mockapi.WithLogger(log.NewWriter(io.Discard)),
	)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	cfg := filepath.Join(dir, "shopctl.yaml")
	body := "storage:\n  driver: file\n  path: " + filepath.Join(dir, "state.json") + "\n" +
		"log:\n  level: error\n" +
		"session:\n  refresh_delay: 1ms\n" +
		"export:\n  dir: " + filepath.Join(dir, "invoices") + "\n"
	require.NoError(t, os.WriteFile(cfg, []byte(body), 0o644))
	t.Setenv(PasswordEnv, "")

	return &harness{t: t, cfg: cfg, base: ts.URL}
}

func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	var out bytes.Buffer
	full := append([]string{"-config", h.cfg, "-base-url", h.base, "-q"}, args...)
	err := run(context.Background(), full, strings.NewReader(stdin), &out)
	return out.String(), err
}

func (h *harness) productID(prefix string) int64 {
	h.t.Helper()
	c := api.New(khttp.New(khttp.WithBaseURL(h.base)))
	var all []api.Product
	_, err := c.Doer().Request(khttp.MethodGet, "/products", nil, khttp.WithResponse(&all))
	require.NoError(h.t, err)
	for _, p := range all {
		if strings.HasPrefix(p.Name, prefix) {
			return p.ID
		}
	}
	h.t.Fatalf("no product named %q", prefix)
	return 0
}

func TestShoppingFlowAcrossRuns(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(mockapi.CustomerPassword+"\n", "login", "-email", mockapi.CustomerEmail)
	require.NoError(t, err)
	assert.Contains(t, out, "Đăng nhập thành công")
	assert.Contains(t, out, mockapi.CustomerEmail)

	out, err = h.run("", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, mockapi.CustomerEmail)
	assert.Contains(t, out, api.RoleCustomer)

	id := h.productID("Sạc nhanh Anker")
	out, err = h.run("", "cart", "add", strconv.FormatInt(id, 10), "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Sạc nhanh Anker 65W")
	assert.Contains(t, out, "1.780.000 VND")

	out, err = h.run("", "orders", "create", "-address", "12 Lê Lợi, Quận 1", "-phone", "0912345678", "-carrier", "GHN")
	require.NoError(t, err)
	assert.Contains(t, out, "Đặt hàng thành công")
	assert.Contains(t, out, "1.810.000 VND")

	out, err = h.run("", "cart")
	require.NoError(t, err)
	assert.Contains(t, out, "Giỏ hàng trống")

	out, err = h.run("", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Đăng xuất thành công")

	_, err = h.run("", "whoami")
	assert.Error(t, err)
}

func TestLoginReadsPasswordFromEnv(t *testing.T) {
	h := newHarness(t)
	t.Setenv(PasswordEnv, mockapi.AdminPassword)

	out, err := h.run("", "login", "-email", mockapi.AdminEmail)
	require.NoError(t, err)
	assert.Contains(t, out, api.RoleAdmin)
}

func TestLoginWrongPassword(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("sai-mat-khau\n", "login", "-email", mockapi.CustomerEmail)
	require.Error(t, err)
	assert.NotEmpty(t, describe(err))
}

func TestVerifyPublicRoute(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "verify", "/products/42")
	require.NoError(t, err)
	assert.Contains(t, out, "public: true")
	assert.NotContains(t, out, "goto:")
}

func TestCartRejectsBadArguments(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "cart", "add")
	assert.Error(t, err)
	_, err = h.run("", "cart", "add", "abc")
	assert.Error(t, err)
	_, err = h.run("", "cart", "shuffle")
	assert.Error(t, err)
}

func TestUsage(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-q"}, strings.NewReader(""), &out))
	assert.Contains(t, out.String(), "usage: shopctl")
	assert.Contains(t, out.String(), "orders {list")

	out.Reset()
	err := run(context.Background(), []string{"-q", "teleport"}, strings.NewReader(""), &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown command "teleport"`)
}

func TestOpenStorage(t *testing.T) {
	ctx := context.Background()
	logger := log.NewWriter(io.Discard)

	s, err := openStorage(config.Storage{Driver: config.DriverMemory}, logger)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, store.KeyCart, []byte("[]")))
	require.NoError(t, s.Close())

	path := filepath.Join(t.TempDir(), "nested", "state.json")
	s, err = openStorage(config.Storage{Driver: config.DriverFile, Path: path}, logger)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, store.KeyCart, []byte("[]")))
	require.NoError(t, s.Close())
	assert.FileExists(t, path)

	s, err = openStorage(config.Storage{Driver: "floppy"}, logger)
	assert.Error(t, err)
	assert.Nil(t, s)
}

func TestLoginLimiterKinds(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), Protocol: 2})
	t.Cleanup(func() { rdb.Close() })

	for _, kind := range []string{"sliding_window", "token_bucket"} {
		t.Run(kind, func(t *testing.T) {
			l := loginLimiter(rdb, config.Mock{Limiter: kind, LoginLimit: 2, LoginWindow: time.Minute})
			now := time.Now()
			for i := 0; i < 2; i++ {
				ok, err := l.AllowN(ctx, kind, now, 1)
				require.NoError(t, err)
				assert.True(t, ok)
			}
			ok, err := l.AllowN(ctx, kind, now, 1)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestReportsAsAdmin(t *testing.T) {
	h := newHarness(t)
	t.Setenv(PasswordEnv, mockapi.AdminPassword)
	_, err := h.run("", "login", "-email", mockapi.AdminEmail)
	require.NoError(t, err)

	out, err := h.run("", "report", "lowstock", "-threshold", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Xiaomi Redmi Note 13")
	assert.NotContains(t, out, "Sạc nhanh Anker 65W")

	path := filepath.Join(t.TempDir(), "report.pdf")
	out, err = h.run("", "report", "export", "-format", "pdf", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	_, err = h.run("", "report", "weather")
	assert.Error(t, err)
}
