// Package metrics provides custom Prometheus metrics for the components of
// the director application.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DirectorMetrics contains all Prometheus metrics related to the switching
// engine.
type DirectorMetrics struct {
	ActiveSessions     prometheus.Gauge
	EvaluationsTotal   prometheus.Counter
	EvaluationDuration prometheus.Histogram
	DecisionsTotal     *prometheus.CounterVec
	SwitchesTotal      *prometheus.CounterVec
	SwitchFailures     *prometheus.CounterVec
	QueueDrops         prometheus.Counter
	registry           *prometheus.Registry
}

// NewDirectorMetrics creates a new instance of DirectorMetrics.
// It requires a Prometheus registry to register the metrics.
func NewDirectorMetrics(registry *prometheus.Registry) (*DirectorMetrics, error) {
	m := &DirectorMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register director metrics: %w", err)
	}
	return m, nil
}

// initMetrics initializes all metrics for DirectorMetrics.
func (m *DirectorMetrics) initMetrics() {
	m.ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "director_active_sessions",
		Help: "Number of currently active switching sessions",
	})

	m.EvaluationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "director_evaluations_total",
		Help: "Total number of decision evaluations executed",
	})

	m.EvaluationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "director_evaluation_duration_seconds",
		Help:    "Duration of a single evaluate and apply cycle in seconds",
		Buckets: prometheus.ExponentialBuckets(0.000001, 4, 10),
	})

	m.DecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "director_decisions_total",
		Help: "Total number of decisions grouped by outcome",
	}, []string{"outcome"})

	m.SwitchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "director_switches_total",
		Help: "Total number of successful camera switches grouped by trigger reason",
	}, []string{"trigger_reason"})

	m.SwitchFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "director_switch_failures_total",
		Help: "Total number of rejected or failed switches grouped by failure reason",
	}, []string{"failure_reason"})

	m.QueueDrops = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "director_queue_drops_total",
		Help: "Total number of samples dropped because a session queue was full",
	})
}

// Describe implements the prometheus.Collector interface.
func (m *DirectorMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.ActiveSessions.Describe(ch)
	m.EvaluationsTotal.Describe(ch)
	m.EvaluationDuration.Describe(ch)
	m.DecisionsTotal.Describe(ch)
	m.SwitchesTotal.Describe(ch)
	m.SwitchFailures.Describe(ch)
	m.QueueDrops.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *DirectorMetrics) Collect(ch chan<- prometheus.Metric) {
	m.ActiveSessions.Collect(ch)
	m.EvaluationsTotal.Collect(ch)
	m.EvaluationDuration.Collect(ch)
	m.DecisionsTotal.Collect(ch)
	m.SwitchesTotal.Collect(ch)
	m.SwitchFailures.Collect(ch)
	m.QueueDrops.Collect(ch)
}

// RecordEvaluation observes one evaluate and apply cycle.
func (m *DirectorMetrics) RecordEvaluation(duration time.Duration, switched bool) {
	m.EvaluationsTotal.Inc()
	m.EvaluationDuration.Observe(duration.Seconds())
	outcome := "no_op"
	if switched {
		outcome = "switch"
	}
	m.DecisionsTotal.WithLabelValues(outcome).Inc()
}

// RecordSwitch counts a recorded switch event by outcome.
func (m *DirectorMetrics) RecordSwitch(triggerReason, failureReason string, success bool) {
	if success {
		m.SwitchesTotal.WithLabelValues(triggerReason).Inc()
		return
	}
	m.SwitchFailures.WithLabelValues(failureReason).Inc()
}
