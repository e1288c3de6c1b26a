package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// JobMetrics records scheduled job runs.
type JobMetrics struct {
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
	advanced prometheus.Counter
}

// NewJobMetrics registers the scheduler metrics. A nil registerer yields a no-op recorder.
func NewJobMetrics(reg prometheus.Registerer) *JobMetrics {
	if reg == nil {
		return &JobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scheduler_job_duration_seconds",
		Help:    "Duration of scheduled jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_job_runs_total",
		Help: "Scheduled job executions by outcome.",
	}, []string{"job", "outcome"})
	advanced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cycle_phase_advances_total",
		Help: "Cycle phase transitions applied by the scheduler.",
	})
	reg.MustRegister(duration, runs, advanced)
	return &JobMetrics{duration: duration, runs: runs, advanced: advanced}
}

// Observe records one run of job.
func (m *JobMetrics) Observe(job string, d time.Duration, err error) {
	if m == nil || m.duration == nil {
		return
	}
	job = normalizeLabel(job)
	m.duration.WithLabelValues(job).Observe(d.Seconds())
	m.runs.WithLabelValues(job, outcome(err)).Inc()
}

// AddAdvanced counts cycle phase transitions.
func (m *JobMetrics) AddAdvanced(n int) {
	if m == nil || m.advanced == nil || n <= 0 {
		return
	}
	m.advanced.Add(float64(n))
}
