package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the consent module.
type Metrics struct {
	ConsentsRecorded  *prometheus.CounterVec
	DuplicateAccepts  prometheus.Counter
	RejectedIdentities prometheus.Counter
	AcceptDuration    prometheus.Histogram
	ExportDuration    prometheus.Histogram
}

// New creates and registers all consent module metrics.
func New() *Metrics {
	return &Metrics{
		ConsentsRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "yinyom_consents_recorded_total",
			Help: "Consent records created, by identity kind",
		}, []string{"identity_kind"}),
		DuplicateAccepts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "yinyom_consent_duplicate_accepts_total",
			Help: "Accept calls that matched an existing record for the same document",
		}),
		RejectedIdentities: promauto.NewCounter(prometheus.CounterOpts{
			Name: "yinyom_consent_rejected_identities_total",
			Help: "Accept calls rejected because the identity failed validation",
		}),
		AcceptDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "yinyom_consent_accept_duration_seconds",
			Help:    "Duration of the full accept flow",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		ExportDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "yinyom_consent_export_duration_seconds",
			Help:    "Duration of admin exports",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}
