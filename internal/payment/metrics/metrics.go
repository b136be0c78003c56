package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the payment module.
// Tracks lifecycle transition counts and verification latency.
type Metrics struct {
	Initialized      prometheus.Counter
	ProofsSubmitted  prometheus.Counter
	Verified         prometheus.Counter
	Rejected         prometheus.Counter
	VerifyConflicts  prometheus.Counter
	VerifyDuration   prometheus.Histogram
}

// New creates a Metrics instance with all payment module metrics registered.
func New() *Metrics {
	return &Metrics{
		Initialized: promauto.NewCounter(prometheus.CounterOpts{
			Name: "summit_payments_initialized_total",
			Help: "Total number of payment initializations",
		}),
		ProofsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "summit_payment_proofs_submitted_total",
			Help: "Total number of payment proofs submitted",
		}),
		Verified: promauto.NewCounter(prometheus.CounterOpts{
			Name: "summit_payments_verified_total",
			Help: "Total number of payments verified",
		}),
		Rejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "summit_payments_rejected_total",
			Help: "Total number of payment proofs rejected",
		}),
		VerifyConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "summit_payment_verify_conflicts_total",
			Help: "Verification attempts rejected because the payment was already verified",
		}),
		VerifyDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "summit_payment_verify_duration_seconds",
			Help:    "Duration of VerifyPayment operations (admin critical path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveVerify records the duration of a VerifyPayment operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveVerify(start time.Time) {
	m.VerifyDuration.Observe(time.Since(start).Seconds())
}
