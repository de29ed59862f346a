package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestClientCollectors(t *testing.T) {
	p := New()
	c := NewClient(p.Registry())

	c.ObserveRequest("GET", 200, 10*time.Millisecond)
	c.ObserveRequest("GET", 401, 5*time.Millisecond)
	c.ObserveRefresh(nil)
	c.ObserveRefresh(errors.New("boom"))
	c.ObserveRetry()
	c.ObserveSession("authenticated")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues("GET", "401")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.refreshes.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.retries))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.sessions.WithLabelValues("authenticated")))

	var nilClient *Client
	nilClient.ObserveRetry()
}

func TestServerCollectors(t *testing.T) {
	p := New()
	s := NewServer(p.Registry())

	s.ObserveHTTP("POST", "/auth/login", 200, time.Millisecond)
	s.ObserveLogin("limited")
	s.ObserveRefresh()
	s.ObserveRefresh()

	assert.Equal(t, 2.0, testutil.ToFloat64(s.refreshes))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.logins.WithLabelValues("limited")))

	w := httptest.NewRecorder()
	p.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), `phoneshop_server_requests_total{code="200",method="POST",route="/auth/login"} 1`)
}
