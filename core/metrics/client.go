package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Client holds the collectors updated by the API client and the session manager.
type Client struct {
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	refreshes *prometheus.CounterVec
	retries   prometheus.Counter
	sessions  *prometheus.CounterVec
}

// NewClient registers the client collectors on reg.
func NewClient(reg prometheus.Registerer) *Client {
	c := &Client{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "API requests by method and status code.",
		}, []string{"method", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "client",
			Name:      "token_refresh_total",
			Help:      "Token refresh calls by result.",
		}, []string{"result"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "client",
			Name:      "retried_requests_total",
			Help:      "Requests reissued after a successful refresh.",
		}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Session state transitions by target state.",
		}, []string{"state"}),
	}

	reg.MustRegister(c.requests, c.latency, c.refreshes, c.retries, c.sessions)
	return c
}

// ObserveRequest records one completed round trip. code 0 means a transport failure.
func (c *Client) ObserveRequest(method string, code int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	c.latency.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (c *Client) ObserveRefresh(err error) {
	if c == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	c.refreshes.WithLabelValues(result).Inc()
}

func (c *Client) ObserveRetry() {
	if c == nil {
		return
	}
	c.retries.Inc()
}

func (c *Client) ObserveSession(state string) {
	if c == nil {
		return
	}
	c.sessions.WithLabelValues(state).Inc()
}
