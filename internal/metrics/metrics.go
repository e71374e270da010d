// AniRec - Anime List Recommendation Service
// Copyright 2026 Takumi O. (takumi809)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/takumi809/anirec

// Package metrics provides Prometheus metrics for observability.
//
// Metrics are registered with promauto on the default registry and exposed
// at /metrics via promhttp. Counters and histograms cover the upstream
// client, the metadata cache, generation runs, the enrichment worker and
// the HTTP surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Upstream (Jikan) client metrics
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total number of upstream API requests",
		},
		[]string{"endpoint", "status"}, // endpoint: "similar", "details"; status: "ok", "rate_limited", "error"
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Duration of upstream API requests including retries",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint"},
	)

	UpstreamRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_retries_total",
			Help: "Total number of upstream retry attempts",
		},
		[]string{"endpoint", "reason"}, // reason: "rate_limited", "error"
	)

	// Metadata cache metrics
	MetadataCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "metadata_cache_hits_total",
			Help: "Total number of metadata cache hits",
		},
	)

	MetadataCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "metadata_cache_misses_total",
			Help: "Total number of metadata cache misses (upstream fetch required)",
		},
	)

	// Generation metrics
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generations_total",
			Help: "Total number of recommendation generations served",
		},
		[]string{"source"}, // "cache", "computed"
	)

	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "generation_duration_seconds",
			Help:    "Duration of full recommendation generation runs",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300}, // a paced walk takes minutes
		},
	)

	GenerationItemsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "generation_items_skipped_total",
			Help: "Total number of analyzed items skipped due to upstream failures",
		},
	)

	// Enrichment worker metrics
	EnrichProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrich_processed_total",
			Help: "Total number of enrichment queue items processed",
		},
		[]string{"outcome"}, // "cached", "fetched", "requeued", "malformed"
	)

	EnrichQueuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "enrich_queued_total",
			Help: "Total number of anime ids submitted to the enrichment queue",
		},
	)

	// HTTP API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	// Submission metrics
	SubmissionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "submissions_total",
			Help: "Total number of list uploads persisted",
		},
	)
)
