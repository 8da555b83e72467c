package erp

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for ERP traffic.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	auth     *prometheus.CounterVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the collectors against registerer, or the default
// registerer when nil.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(registerer)
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coopfinance_erp_rpc_total",
			Help: "ERP execute_kw calls by model, method and status.",
		}, []string{"model", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coopfinance_erp_rpc_duration_seconds",
			Help:    "ERP execute_kw latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"model", "method"}),
		auth: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coopfinance_erp_auth_total",
			Help: "ERP authenticate calls by status.",
		}, []string{"status"}),
	}
	registerer.MustRegister(m.calls, m.duration, m.auth)
	return m
}

func (m *Metrics) observeCall(model, method string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(model, method, status(err)).Inc()
	m.duration.WithLabelValues(model, method).Observe(time.Since(start).Seconds())
}

func (m *Metrics) observeAuth(err error) {
	if m == nil {
		return
	}
	m.auth.WithLabelValues(status(err)).Inc()
}

func status(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
