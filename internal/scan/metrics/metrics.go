package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the scan module.
type Metrics struct {
	ScansRecorded *prometheus.CounterVec
	Duplicates    *prometheus.CounterVec
}

// New creates a Metrics instance with all scan module metrics registered.
func New() *Metrics {
	return &Metrics{
		ScansRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "summit_scans_recorded_total",
			Help: "Total number of scans recorded, by scan type",
		}, []string{"scan_type"}),
		Duplicates: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "summit_scan_duplicates_total",
			Help: "Scans whose side effect was skipped because it was already applied",
		}, []string{"scan_type"}),
	}
}

// RecordScan counts one recorded scan.
func (m *Metrics) RecordScan(scanType string) {
	m.ScansRecorded.WithLabelValues(scanType).Inc()
}

// RecordDuplicate counts one skipped side effect.
func (m *Metrics) RecordDuplicate(scanType string) {
	m.Duplicates.WithLabelValues(scanType).Inc()
}
