package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the document module. Tracks the write
// paths (registration, flagging) and the verification outcomes.
type Metrics struct {
	DocumentsRegistered  prometheus.Counter
	DuplicateAttempts    prometheus.Counter
	ModificationsFlagged prometheus.Counter
	Verifications        *prometheus.CounterVec
	RegisterDuration     prometheus.Histogram
	SearchDuration       prometheus.Histogram
}

// New creates a Metrics instance with all document module metrics registered.
func New() *Metrics {
	return &Metrics{
		DocumentsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "truthchain_documents_registered_total",
			Help: "Total number of documents registered",
		}),
		DuplicateAttempts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "truthchain_duplicate_registrations_total",
			Help: "Registrations rejected because the address was already occupied",
		}),
		ModificationsFlagged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "truthchain_modifications_flagged_total",
			Help: "Total number of stealth redaction flags recorded",
		}),
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "truthchain_verifications_total",
			Help: "Verification requests by outcome",
		}, []string{"outcome"}),
		RegisterDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "truthchain_register_duration_seconds",
			Help:    "Duration of document registration including the counter update",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		SearchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "truthchain_search_duration_seconds",
			Help:    "Duration of document search scans",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveRegister records the duration of a registration.
func (m *Metrics) ObserveRegister(start time.Time) {
	m.RegisterDuration.Observe(time.Since(start).Seconds())
}

// ObserveSearch records the duration of a search scan.
func (m *Metrics) ObserveSearch(start time.Time) {
	m.SearchDuration.Observe(time.Since(start).Seconds())
}

// ObserveVerification records a verification by outcome
// ("match", "flagged", "absent").
func (m *Metrics) ObserveVerification(outcome string) {
	m.Verifications.WithLabelValues(outcome).Inc()
}
