package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/phoneshop/errors"
)

type orderStub struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

// authServer serves /orders only to requests carrying auth_token=<current>.
type authServer struct {
	*httptest.Server
	token        atomic.Value
	refreshCalls atomic.Int32
	orderCalls   atomic.Int32
	refreshDelay time.Duration
	waitOrders   atomic.Int32
	refreshFails atomic.Bool
	alwaysDeny   atomic.Bool
}

func newAuthServer(t *testing.T) *authServer {
	s := &authServer{refreshDelay: 50 * time.Millisecond}
	s.token.Store("stale")

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		s.refreshCalls.Add(1)
		// hold the refresh until every concurrent request has seen its 401
		deadline := time.Now().Add(2 * time.Second)
		for s.orderCalls.Load() < s.waitOrders.Load() && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		time.Sleep(s.refreshDelay)
		if s.refreshFails.Load() {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"message":"Refresh token không hợp lệ"}`)
			return
		}
		s.token.Store("fresh")
		http.SetCookie(w, &http.Cookie{Name: "auth_token", Value: "fresh", Path: "/"})
		_, _ = io.WriteString(w, `{"message":"ok"}`)
	})
	mux.HandleFunc("GET /orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		s.orderCalls.Add(1)
		c, err := r.Cookie("auth_token")
		if s.alwaysDeny.Load() || err != nil || c.Value != s.token.Load().(string) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"message":"Unauthorized"}`)
			return
		}
		_ = json.NewEncoder(w).Encode(orderStub{ID: 7, Status: "PENDING"})
	})
	mux.HandleFunc("PUT /orders/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", ContentTypeJSON)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"contentType": r.Header.Get("Content-Type"),
			"body":        string(body),
		})
	})
	mux.HandleFunc("GET /search", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, r.URL.RawQuery)
	})
	mux.HandleFunc("GET /missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"Không tìm thấy đơn hàng"}`)
	})

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func (s *authServer) client() *Client {
	cli := New(WithBaseURL(s.URL))
	cli.ImportCookies(map[string]string{"auth_token": "stale", "refresh_token": "r1"})
	return cli
}

func TestRequestDecodesJSON(t *testing.T) {
	srv := newAuthServer(t)
	srv.token.Store("stale")
	cli := srv.client()

	var order orderStub
	resp, err := cli.Get("/orders/7", WithResponse(&order))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(7), order.ID)
	assert.Equal(t, int32(0), srv.refreshCalls.Load())
}

func TestRequestQueryAndText(t *testing.T) {
	srv := newAuthServer(t)
	cli := srv.client()

	var raw string
	_, err := cli.Get("/search", WithQuery(url.Values{"searchKeyword": {"iphone"}, "page": {"0"}, "empty": {""}}), WithResponse(&raw))
	require.NoError(t, err)
	assert.Equal(t, "page=0&searchKeyword=iphone", raw)

	var echoed map[string]string
	_, err = cli.Put("/orders/7/status", "SHIPPED", WithResponse(&echoed))
	require.NoError(t, err)
	assert.Equal(t, ContentTypeText, echoed["contentType"])
	assert.Equal(t, "SHIPPED", echoed["body"])
}

func TestRequestBackendError(t *testing.T) {
	srv := newAuthServer(t)
	cli := srv.client()

	_, err := cli.Get("/missing")
	require.Error(t, err)
	assert.Equal(t, 404, errors.CodeOf(err))
	assert.Equal(t, "Không tìm thấy đơn hàng", errors.FromError(err).GetMessage())
}

func TestRequestTransportError(t *testing.T) {
	cli := New(WithBaseURL("http://127.0.0.1:1"), WithTimeout(time.Second))
	_, err := cli.Get("/orders/1")
	require.Error(t, err)
	assert.True(t, errors.IsTransport(err))
}

func TestConcurrent401sShareOneRefresh(t *testing.T) {
	srv := newAuthServer(t)
	srv.token.Store("fresh")
	cli := srv.client()

	const n = 10
	srv.waitOrders.Store(n)
	var wg sync.WaitGroup
	results := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var order orderStub
			_, results[i] = cli.Get("/orders/7", WithResponse(&order))
		}()
	}
	wg.Wait()

	for i, err := range results {
		assert.NoError(t, err, "request %d", i)
	}
	assert.Equal(t, int32(1), srv.refreshCalls.Load())
	v, _ := cli.Cookie("auth_token")
	assert.Equal(t, "fresh", v)
}

func TestRefreshFailureFailsEveryWaiter(t *testing.T) {
	srv := newAuthServer(t)
	srv.token.Store("fresh")
	srv.refreshFails.Store(true)

	var listened atomic.Int32
	cli := New(WithBaseURL(srv.URL), WithRefreshListener(func(err error) {
		if err != nil {
			listened.Add(1)
		}
	}))

	const n = 5
	srv.waitOrders.Store(n)
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = cli.Get("/orders/7")
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.Error(t, err)
		assert.True(t, errors.IsSession(err))
	}
	assert.Equal(t, int32(1), srv.refreshCalls.Load())
	assert.Equal(t, int32(1), listened.Load())
}

func TestSecond401IsTerminal(t *testing.T) {
	srv := newAuthServer(t)
	srv.alwaysDeny.Store(true)
	cli := srv.client()

	_, err := cli.Get("/orders/7")
	require.Error(t, err)
	assert.Equal(t, 401, errors.CodeOf(err))
	assert.Equal(t, int32(1), srv.refreshCalls.Load())
	assert.Equal(t, int32(2), srv.orderCalls.Load())
}

func TestLogicalRequestIDSharesRetryBudget(t *testing.T) {
	srv := newAuthServer(t)
	srv.alwaysDeny.Store(true)
	cli := srv.client()

	id := NewRequestID()
	ctx := ContextWithRequestID(context.Background(), id)

	_, err := cli.Get("/orders/7", WithContext(ctx))
	require.Error(t, err)
	assert.True(t, cli.Retried(id))

	_, err = cli.Get("/orders/7", WithContext(ctx))
	require.Error(t, err)
	assert.Equal(t, int32(1), srv.refreshCalls.Load())
	assert.Equal(t, int32(3), srv.orderCalls.Load())

	cli.ReleaseRequestID(id)
	assert.False(t, cli.Retried(id))
}

func TestRefreshCallIsNeverIntercepted(t *testing.T) {
	srv := newAuthServer(t)
	srv.refreshFails.Store(true)
	cli := srv.client()

	_, err := cli.Post(DefaultRefreshPath, nil)
	require.Error(t, err)
	assert.Equal(t, 401, errors.CodeOf(err))
	assert.Equal(t, int32(1), srv.refreshCalls.Load())
}

func TestCookiesRoundTrip(t *testing.T) {
	srv := newAuthServer(t)
	cli := srv.client()

	cookies := cli.ExportCookies()
	assert.Equal(t, "stale", cookies["auth_token"])
	assert.Equal(t, "r1", cookies["refresh_token"])

	cli.ClearCookies()
	assert.Empty(t, cli.ExportCookies())

	other := New(WithBaseURL(srv.URL))
	other.ImportCookies(cookies)
	v, ok := other.Cookie("refresh_token")
	assert.True(t, ok)
	assert.Equal(t, "r1", v)
}
