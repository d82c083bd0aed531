// Package metrics определяет Prometheus метрики сервиса дневников
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP метрики
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "diary_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diary_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Метрики конвейера
	PingsProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "diary_pings_processed_total",
			Help: "Total number of raw pings fed into the pipeline",
		},
	)

	PingsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "diary_pings_dropped_total",
			Help: "Total number of pings dropped by the accuracy filter",
		},
	)

	VisitsBuilt = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diary_visits_built_total",
			Help: "Total number of visits produced, by confidence",
		},
		[]string{"confidence"},
	)

	JourneysBuilt = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diary_journeys_built_total",
			Help: "Total number of journeys produced, by confidence",
		},
		[]string{"confidence"},
	)

	SyntheticEntriesInjected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diary_synthetic_entries_injected_total",
			Help: "Total number of synthetic entries injected, by kind",
		},
		[]string{"kind"},
	)

	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "diary_pipeline_duration_seconds",
			Help:    "Duration of a full diary pipeline run in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	// Метрики персистенции и кэша
	PersistenceFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "diary_persistence_failures_total",
			Help: "Total number of best-effort persistence failures",
		},
	)

	SubmittedCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "diary_submitted_cache_hits_total",
			Help: "Total number of submitted diary cache hits",
		},
	)

	SubmittedCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "diary_submitted_cache_misses_total",
			Help: "Total number of submitted diary cache misses",
		},
	)
)
