package metrics

import "github.com/prometheus/client_golang/prometheus"

// PhotoSetMetrics counts photo-set mutations by outcome and blobs left behind.
type PhotoSetMetrics struct {
	outcomes *prometheus.CounterVec
	orphans  *prometheus.CounterVec
}

// NewPhotoSetMetrics registers the photo-set metrics on reg.
func NewPhotoSetMetrics(reg prometheus.Registerer) *PhotoSetMetrics {
	if reg == nil {
		return &PhotoSetMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feirinha_photo_set_operations_total",
		Help: "Photo-set operations by kind and final state.",
	}, []string{"operation", "state"})
	orphans := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feirinha_orphaned_blobs_total",
		Help: "Blobs whose delete failed and were queued for the sweep.",
	}, []string{"reason"})
	reg.MustRegister(outcomes, orphans)
	return &PhotoSetMetrics{outcomes: outcomes, orphans: orphans}
}

// Outcome records the terminal state of one operation.
func (m *PhotoSetMetrics) Outcome(operation, state string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(operation), normalizeLabel(state)).Inc()
}

// Orphaned counts a blob recorded for later cleanup.
func (m *PhotoSetMetrics) Orphaned(reason string) {
	if m == nil || m.orphans == nil {
		return
	}
	m.orphans.WithLabelValues(normalizeLabel(reason)).Inc()
}
