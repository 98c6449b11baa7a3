package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds verification pipeline metrics. A nil *Metrics is a no-op.
type Metrics struct {
	Decisions       *prometheus.CounterVec
	Rejections      *prometheus.CounterVec
	Score           *prometheus.HistogramVec
	SignalLatency   *prometheus.HistogramVec
	Duration        *prometheus.HistogramVec
	GuardErrors     prometheus.Counter
	OraclePermanent *prometheus.CounterVec
	SignalFallbacks *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Decisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "civicproof_verification_decisions_total",
			Help: "Evaluated submissions by mode and status",
		}, []string{"mode", "status"}),
		Rejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "civicproof_verification_rejections_total",
			Help: "Submissions rejected before evaluation, by mode and reason",
		}, []string{"mode", "reason"}),
		Score: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "civicproof_verification_suspicion_score",
			Help:    "Distribution of suspicion scores",
			Buckets: []float64{0, 10, 20, 30, 40, 55, 70, 100, 150, 250},
		}, []string{"mode"}),
		SignalLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "civicproof_verification_signal_duration_seconds",
			Help:    "Latency of each pipeline stage",
			Buckets: prometheus.DefBuckets,
		}, []string{"signal"}),
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "civicproof_verification_duration_seconds",
			Help:    "End-to-end verification latency",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 40},
		}, []string{"mode"}),
		GuardErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "civicproof_verification_duplicate_guard_errors_total",
			Help: "Duplicate guard lookups that failed and were resolved by policy",
		}),
		OraclePermanent: f.NewCounterVec(prometheus.CounterOpts{
			Name: "civicproof_verification_oracle_permanent_errors_total",
			Help: "Oracle credential or quota failures seen by the pipeline",
		}, []string{"kind"}),
		SignalFallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "civicproof_verification_signal_fallbacks_total",
			Help: "Signals replaced by their fallback value",
		}, []string{"signal"}),
	}
}

func (m *Metrics) ObserveDecision(mode, status string, score int) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(mode, status).Inc()
	m.Score.WithLabelValues(mode).Observe(float64(score))
}

func (m *Metrics) IncRejection(mode, reason string) {
	if m == nil {
		return
	}
	m.Rejections.WithLabelValues(mode, reason).Inc()
}

func (m *Metrics) ObserveSignal(signal string, d time.Duration) {
	if m == nil {
		return
	}
	m.SignalLatency.WithLabelValues(signal).Observe(d.Seconds())
}

func (m *Metrics) ObserveDuration(mode string, d time.Duration) {
	if m == nil {
		return
	}
	m.Duration.WithLabelValues(mode).Observe(d.Seconds())
}

func (m *Metrics) IncGuardError() {
	if m == nil {
		return
	}
	m.GuardErrors.Inc()
}

func (m *Metrics) IncOraclePermanent(kind string) {
	if m == nil {
		return
	}
	m.OraclePermanent.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncFallback(signal string) {
	if m == nil {
		return
	}
	m.SignalFallbacks.WithLabelValues(signal).Inc()
}
