package oracle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks oracle calls. A nil *Metrics is a no-op.
type Metrics struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "civicproof_oracle_requests_total",
			Help: "Vision oracle calls by mode and outcome",
		}, []string{"mode", "outcome"}),
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "civicproof_oracle_request_duration_seconds",
			Help:    "Vision oracle call latency",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30},
		}, []string{"mode"}),
	}
}

func (m *Metrics) observe(mode Mode, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(string(mode), outcome).Inc()
	m.Duration.WithLabelValues(string(mode)).Observe(seconds)
}
