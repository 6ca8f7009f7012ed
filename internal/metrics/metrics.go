// Package metrics exposes Prometheus metrics for the property search service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "property_search"

var (
	// SearchesTotal counts executed searches by outcome.
	SearchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "searches_total",
		Help:      "Total search requests by status",
	}, []string{"status"})

	// SearchDuration tracks end-to-end search latency.
	SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "search_duration_seconds",
		Help:      "Search request duration in seconds",
		Buckets:   prometheus.DefBuckets,
	})

	// DocumentsIndexed counts documents upserted into the index.
	DocumentsIndexed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "documents_indexed_total",
		Help:      "Total property documents indexed",
	})

	// DocumentsRemoved counts documents deleted from the index.
	DocumentsRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "documents_removed_total",
		Help:      "Total property documents removed from the index",
	})

	// IndexErrors counts failed index operations.
	IndexErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "index_errors_total",
		Help:      "Total failed index operations",
	})

	// RebuildsTotal counts full index rebuilds by outcome.
	RebuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rebuilds_total",
		Help:      "Total full index rebuilds by status",
	}, []string{"status"})

	// RecommendationsServed counts recommendation requests served.
	RecommendationsServed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recommendations_served_total",
		Help:      "Total recommendation requests served",
	})
)

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
