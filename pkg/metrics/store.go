package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics tracks object store calls.
type StoreMetrics struct {
	duration *prometheus.HistogramVec
	failures *prometheus.CounterVec
	bytes    prometheus.Counter
}

// NewStoreMetrics registers the object store metrics on reg.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	if reg == nil {
		return &StoreMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "feirinha_object_store_duration_seconds",
		Help:    "Latency of object store operations.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feirinha_object_store_failures_total",
		Help: "Failed object store operations.",
	}, []string{"op"})
	bytes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feirinha_object_store_uploaded_bytes_total",
		Help: "Bytes written to the object store.",
	})
	reg.MustRegister(duration, failures, bytes)
	return &StoreMetrics{duration: duration, failures: failures, bytes: bytes}
}

// Observe records one call of op.
func (m *StoreMetrics) Observe(op string, d time.Duration, err error) {
	if m == nil || m.duration == nil {
		return
	}
	op = normalizeLabel(op)
	m.duration.WithLabelValues(op).Observe(d.Seconds())
	if err != nil {
		m.failures.WithLabelValues(op).Inc()
	}
}

// AddBytes counts uploaded payload bytes.
func (m *StoreMetrics) AddBytes(n int) {
	if m == nil || m.bytes == nil {
		return
	}
	m.bytes.Add(float64(n))
}
