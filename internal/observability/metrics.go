package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	httpRequestsTotal *prometheus.CounterVec
	explorerFallbacks *prometheus.CounterVec
	transferFailures  prometheus.Counter
	pinFailures       prometheus.Counter
	registry          *prometheus.Registry
}

func NewMetrics() *Metrics {
	m := &Metrics{
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		explorerFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "explorer_tier_results_total",
			Help: "Explorer fetch outcomes by tier and result.",
		}, []string{"tier", "result"}),
		transferFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "token_transfer_fetch_failures_total",
			Help: "Token-transfer lookups that were swallowed after failing.",
		}),
		pinFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "proof_pin_failures_total",
			Help: "Proof uploads that fell back to locally synthesized ids.",
		}),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(m.httpRequestsTotal, m.explorerFallbacks, m.transferFailures, m.pinFailures)
	return m
}

// All observer methods are nil-safe so components can run without metrics
// wired, e.g. in tests.

func (m *Metrics) ObserveRequest(route, status string) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(route, status).Inc()
}

func (m *Metrics) ObserveExplorerTier(tier, result string) {
	if m == nil {
		return
	}
	m.explorerFallbacks.WithLabelValues(tier, result).Inc()
}

func (m *Metrics) ObserveTransferFailure() {
	if m == nil {
		return
	}
	m.transferFailures.Inc()
}

func (m *Metrics) ObservePinFailure() {
	if m == nil {
		return
	}
	m.pinFailures.Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
