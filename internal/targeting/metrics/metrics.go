package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the targeting module.
type Metrics struct {
	ResolveDuration prometheus.Histogram
	Resolutions     *prometheus.CounterVec
	MalformedRules  prometheus.Counter
}

// New creates and registers all targeting module metrics.
func New() *Metrics {
	return &Metrics{
		ResolveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "yinyom_targeting_resolve_duration_seconds",
			Help:    "Duration of version resolution (consent critical path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		Resolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "yinyom_targeting_resolutions_total",
			Help: "Version resolutions by outcome (rule type, audience fallback, or none)",
		}, []string{"outcome"}),
		MalformedRules: promauto.NewCounter(prometheus.CounterOpts{
			Name: "yinyom_targeting_malformed_rules_total",
			Help: "Rules skipped during evaluation because they were malformed",
		}),
	}
}
