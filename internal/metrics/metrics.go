package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Analysis Metrics
var (
	// AnalysesTotal counts completed analyses by dominant emotion
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emotion_analyses_total",
			Help: "Completed analyses by dominant emotion",
		},
		[]string{"emotion"},
	)

	// AnalysisDuration tracks end-to-end analysis latency in seconds
	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "emotion_analysis_duration_seconds",
			Help:    "Analysis duration in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		},
	)

	// RejectedRequestsTotal counts analysis requests rejected before scoring
	RejectedRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emotion_rejected_requests_total",
			Help: "Analysis requests rejected by reason",
		},
		[]string{"reason"},
	)
)

// Cache and Sink Metrics
var (
	// CacheLookupsTotal counts score cache lookups by result (hit/miss)
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emotion_cache_lookups_total",
			Help: "Score cache lookups by result",
		},
		[]string{"result"},
	)

	// RecordFailuresTotal counts analysis records a sink failed to accept
	RecordFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emotion_record_failures_total",
			Help: "Analysis records rejected by sink",
		},
		[]string{"sink"},
	)

	// HistoryFlushesTotal counts history flushes by status
	HistoryFlushesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emotion_history_flushes_total",
			Help: "History batch flushes by status",
		},
		[]string{"status"},
	)
)
