package publisher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for audit delivery. A nil *Metrics is a no-op.
type Metrics struct {
	Recorded     *prometheus.CounterVec
	Dropped      *prometheus.CounterVec
	SinkFailures *prometheus.CounterVec
	BreakerState *prometheus.GaugeVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Recorded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "civicproof_audit_events_recorded_total",
			Help: "Audit events accepted for delivery, by action",
		}, []string{"action"}),
		Dropped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "civicproof_audit_events_dropped_total",
			Help: "Audit events dropped before reaching a sink, by reason",
		}, []string{"reason"}),
		SinkFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "civicproof_audit_sink_failures_total",
			Help: "Audit sink write failures, by sink",
		}, []string{"sink"}),
		BreakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "civicproof_audit_sink_circuit_open",
			Help: "Audit sink circuit state (0=closed, 1=open)",
		}, []string{"sink"}),
	}
}

func (m *Metrics) incRecorded(action string) {
	if m == nil {
		return
	}
	m.Recorded.WithLabelValues(action).Inc()
}

func (m *Metrics) incDropped(reason string) {
	if m == nil {
		return
	}
	m.Dropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) incSinkFailure(sink string) {
	if m == nil {
		return
	}
	m.SinkFailures.WithLabelValues(sink).Inc()
}

func (m *Metrics) setBreaker(sink string, open bool) {
	if m == nil {
		return
	}
	v := 0.0
	if open {
		v = 1
	}
	m.BreakerState.WithLabelValues(sink).Set(v)
}
