package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tca_http_requests_total",
		Help: "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tca_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	// EnrichmentResults counts list enrichments by outcome (ok, partial, unavailable, disabled).
	EnrichmentResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tca_enrichment_results_total",
		Help: "Question list enrichment outcomes.",
	}, []string{"status"})

	// EnrichmentMissing counts records that could not be matched to an enrichment entry.
	EnrichmentMissing = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tca_enrichment_missing_records_total",
		Help: "Listed questions with a description URL but no enrichment match.",
	})

	EnrichmentCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tca_enrichment_cache_total",
		Help: "Enrichment cache lookups by result (hit, negative, miss, error).",
	}, []string{"result"})
)
