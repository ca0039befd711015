package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DatastoreMetrics contains all Prometheus metrics related to database
// operations.
type DatastoreMetrics struct {
	OperationDuration *prometheus.HistogramVec
	OperationErrors   *prometheus.CounterVec
	registry          *prometheus.Registry
}

// NewDatastoreMetrics creates a new instance of DatastoreMetrics.
func NewDatastoreMetrics(registry *prometheus.Registry) (*DatastoreMetrics, error) {
	m := &DatastoreMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register datastore metrics: %w", err)
	}
	return m, nil
}

// initMetrics initializes all metrics for DatastoreMetrics.
func (m *DatastoreMetrics) initMetrics() {
	m.OperationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "datastore_operation_duration_seconds",
		Help:    "Duration of datastore operations in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{"operation"})

	m.OperationErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "datastore_operation_errors_total",
		Help: "Total number of failed datastore operations",
	}, []string{"operation"})
}

// Describe implements the prometheus.Collector interface.
func (m *DatastoreMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.OperationDuration.Describe(ch)
	m.OperationErrors.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *DatastoreMetrics) Collect(ch chan<- prometheus.Metric) {
	m.OperationDuration.Collect(ch)
	m.OperationErrors.Collect(ch)
}

// RecordOperation records the duration and outcome of a datastore operation.
func (m *DatastoreMetrics) RecordOperation(operation string, duration time.Duration, err error) {
	m.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		m.OperationErrors.WithLabelValues(operation).Inc()
	}
}
