package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// SearchesTotal counts search requests by scope and sort key.
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gravy",
			Name:      "searches_total",
			Help:      "Total number of template searches",
		},
		[]string{"scope", "sort_by"},
	)

	// CandidateCacheTotal counts candidate-set cache lookups by outcome (hit, miss).
	CandidateCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gravy",
			Name:      "candidate_cache_total",
			Help:      "Candidate set cache lookups by result",
		},
		[]string{"result"},
	)

	// ModerationDecisionsTotal counts moderation decisions by outcome.
	ModerationDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gravy",
			Name:      "moderation_decisions_total",
			Help:      "Moderation decisions by resulting status",
		},
		[]string{"status"},
	)
)

// RegisterSearchMetrics registers the search domain metrics.
// Called explicitly from the composition root (no init()).
func RegisterSearchMetrics() {
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(CandidateCacheTotal)
	prometheus.MustRegister(ModerationDecisionsTotal)
}
