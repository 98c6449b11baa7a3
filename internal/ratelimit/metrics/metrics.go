package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Checks       *prometheus.CounterVec
	StoreErrors  prometheus.Counter
	FallbackHits prometheus.Counter
	Degraded     prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Checks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "civicproof_ratelimit_checks_total",
			Help: "Rate limit checks by route class and outcome",
		}, []string{"class", "outcome"}),
		StoreErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "civicproof_ratelimit_store_errors_total",
			Help: "Total number of primary rate limit store failures",
		}),
		FallbackHits: f.NewCounter(prometheus.CounterOpts{
			Name: "civicproof_ratelimit_fallback_checks_total",
			Help: "Total number of checks served by the in-memory fallback",
		}),
		Degraded: f.NewGauge(prometheus.GaugeOpts{
			Name: "civicproof_ratelimit_degraded",
			Help: "1 while the primary rate limit store circuit is open",
		}),
	}
}

func (m *Metrics) IncCheck(class string, allowed bool) {
	if m == nil {
		return
	}
	outcome := "allowed"
	if !allowed {
		outcome = "limited"
	}
	m.Checks.WithLabelValues(class, outcome).Inc()
}

func (m *Metrics) IncStoreError() {
	if m == nil {
		return
	}
	m.StoreErrors.Inc()
}

func (m *Metrics) IncFallback() {
	if m == nil {
		return
	}
	m.FallbackHits.Inc()
}

func (m *Metrics) SetDegraded(open bool) {
	if m == nil {
		return
	}
	if open {
		m.Degraded.Set(1)
		return
	}
	m.Degraded.Set(0)
}
