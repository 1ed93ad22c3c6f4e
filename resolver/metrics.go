package resolver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	lookupHit  = "hit"
	lookupMiss = "miss"

	fetchOK = "ok"
)

type metrics struct {
	cacheLookups  *prometheus.CounterVec
	fetches       *prometheus.CounterVec
	fetchDuration prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)

	return &metrics{
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ufrates_cache_lookups_total",
				Help: "Total number of resolution cache lookups, labeled by result.",
			},
			[]string{"result"},
		),
		fetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ufrates_fetches_total",
				Help: "Total number of source page lookups (fetch + extract), labeled by outcome.",
			},
			[]string{"outcome"},
		),
		fetchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ufrates_fetch_duration_seconds",
				Help:    "Histogram of source page fetch latencies.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15},
			},
		),
	}
}
