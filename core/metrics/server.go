package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Server holds the collectors of the mock backend.
type Server struct {
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	refreshes prometheus.Counter
	logins    *prometheus.CounterVec
}

func NewServer(reg prometheus.Registerer) *Server {
	s := &Server{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "server",
			Name:      "requests_total",
			Help:      "Handled requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "server",
			Name:      "request_duration_seconds",
			Help:      "Handler latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		refreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "server",
			Name:      "token_refresh_total",
			Help:      "Calls to the refresh endpoint.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "server",
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(s.requests, s.latency, s.refreshes, s.logins)
	return s
}

// ObserveHTTP records one handled request. route is the gin route pattern,
// never the raw path, to keep label cardinality bounded.
func (s *Server) ObserveHTTP(method, route string, code int, elapsed time.Duration) {
	if s == nil {
		return
	}
	s.requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	s.latency.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (s *Server) ObserveRefresh() {
	if s == nil {
		return
	}
	s.refreshes.Inc()
}

// ObserveLogin result is one of "success", "failure" or "limited".
func (s *Server) ObserveLogin(result string) {
	if s == nil {
		return
	}
	s.logins.WithLabelValues(result).Inc()
}
