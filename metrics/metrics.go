// Package metrics holds the Prometheus collectors shared across seekr.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seekr_llm_requests_total",
			Help: "Total number of streamed completions by provider, call site and outcome",
		},
		[]string{"provider", "label", "status"},
	)

	StreamSkippedChunks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seekr_llm_stream_skipped_chunks_total",
			Help: "Malformed stream chunks that were skipped",
		},
		[]string{"provider"},
	)

	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seekr_search_requests_total",
			Help: "Total number of web search requests by source and outcome",
		},
		[]string{"source", "status"},
	)

	GateDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seekr_search_gate_decisions_total",
			Help: "Search necessity decisions",
		},
		[]string{"decision"},
	)

	PhaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "seekr_phase_duration_seconds",
			Help:    "Duration of orchestration phases in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"phase"},
	)

	NewsCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seekr_news_cache_total",
			Help: "News cache lookups by result",
		},
		[]string{"result"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seekr_http_requests_total",
			Help: "HTTP API requests by route and status code",
		},
		[]string{"route", "code"},
	)

	ActiveRuns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "seekr_active_runs",
			Help: "Number of in-flight answer pipelines",
		},
	)
)

// Status label values.
const (
	StatusOK       = "ok"
	StatusError    = "error"
	StatusCanceled = "canceled"
	StatusFallback = "fallback"
)
