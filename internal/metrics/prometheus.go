package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "issuelens_search_duration_seconds",
			Help:    "Similarity search duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"strategy"},
	)

	SearchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "issuelens_search_total",
			Help: "Total similarity searches processed",
		},
		[]string{"status"},
	)

	RecallFraction = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "issuelens_recall_fraction",
			Help:    "Fraction of known-related records found per search",
			Buckets: []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	RelatedSetSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "issuelens_related_set_size",
			Help:    "Size of the ground-truth related set per reference record",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	StoreErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "issuelens_store_errors_total",
			Help: "Total store-level failures by operation",
		},
		[]string{"operation"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "issuelens_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "issuelens_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)
)

func Init() {
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SearchTotal)
	prometheus.MustRegister(RecallFraction)
	prometheus.MustRegister(RelatedSetSize)
	prometheus.MustRegister(StoreErrors)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
