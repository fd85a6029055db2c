package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the policy module.
type Metrics struct {
	DocumentsCreated     prometheus.Counter
	DocumentsActivated   prometheus.Counter
	ActiveLookupDuration prometheus.Histogram
	ActiveCacheHits      prometheus.Counter
	ActiveCacheMisses    prometheus.Counter
}

// New creates and registers all policy module metrics.
func New() *Metrics {
	return &Metrics{
		DocumentsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "yinyom_policy_documents_created_total",
			Help: "Total number of policy document versions created",
		}),
		DocumentsActivated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "yinyom_policy_documents_activated_total",
			Help: "Total number of policy document activations",
		}),
		ActiveLookupDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "yinyom_policy_active_lookup_duration_seconds",
			Help:    "Duration of active-document lookups (consent critical path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		ActiveCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "yinyom_policy_active_cache_hits_total",
			Help: "Active-document cache hits",
		}),
		ActiveCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "yinyom_policy_active_cache_misses_total",
			Help: "Active-document cache misses",
		}),
	}
}
