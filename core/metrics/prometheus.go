package metrics

import (
	"net/http"
	"regexp"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "phoneshop"

// Prometheus wraps a private registry so tests and embedders do not share state.
type Prometheus struct {
	registry *prometheus.Registry
}

func New() *Prometheus {
	return &Prometheus{registry: prometheus.NewRegistry()}
}

func (p *Prometheus) WithGoCollectorRuntimeMetrics() *Prometheus {
	p.registry.MustRegister(collectors.NewGoCollector(
		collectors.WithGoCollectorRuntimeMetrics(collectors.GoRuntimeMetricsRule{Matcher: regexp.MustCompile("/.*")}),
	))
	return p
}

func (p *Prometheus) WithBuildInfoCollector() *Prometheus {
	p.registry.MustRegister(collectors.NewBuildInfoCollector())
	return p
}

func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}
