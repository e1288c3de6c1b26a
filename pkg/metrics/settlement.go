package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SettlementMetrics records payment generation and lifecycle activity.
type SettlementMetrics struct {
	generated   *prometheus.CounterVec
	transitions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewSettlementMetrics registers the settlement metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	generated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_generated_total",
		Help: "Payments created by cycle settlement generation.",
	}, []string{"type"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_transitions_total",
		Help: "Payment status transitions applied.",
	}, []string{"status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "settlement_generation_duration_seconds",
		Help:    "Duration of payment generation for a cycle.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	reg.MustRegister(generated, transitions, duration)
	return &SettlementMetrics{
		generated:   generated,
		transitions: transitions,
		duration:    duration,
	}
}

// AddGenerated counts n payments of the given type.
func (m *SettlementMetrics) AddGenerated(paymentType string, n int) {
	if m == nil || m.generated == nil || n <= 0 {
		return
	}
	m.generated.WithLabelValues(normalizeLabel(paymentType)).Add(float64(n))
}

// IncTransition counts a move into status.
func (m *SettlementMetrics) IncTransition(status string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(status)).Inc()
}

// ObserveGeneration records how long a generation run took.
func (m *SettlementMetrics) ObserveGeneration(d time.Duration, err error) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(outcome(err)).Observe(d.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
