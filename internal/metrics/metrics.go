// internal/metrics/metrics.go

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SentimentAnalyses counts scored texts by label
	SentimentAnalyses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_sentiment_analyses_total",
			Help: "Total number of texts scored by the lexicon scorer",
		},
		[]string{"label"},
	)

	// PredictionsGenerated counts forecasts by prediction type and method
	PredictionsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_predictions_generated_total",
			Help: "Total number of trend predictions produced",
		},
		[]string{"prediction_type", "method"},
	)

	// TrendAnalyses counts classified trends by type and direction
	TrendAnalyses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_trend_analyses_total",
			Help: "Total number of trend analyses produced",
		},
		[]string{"trend_type", "direction"},
	)

	// ModelActivations counts model activations by type
	ModelActivations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_model_activations_total",
			Help: "Total number of model activations",
		},
		[]string{"model_type"},
	)

	// ModelPredictions counts model-store predictions by type and outcome
	ModelPredictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_model_predictions_total",
			Help: "Total number of predictions served from stored models",
		},
		[]string{"model_type", "status"},
	)

	// InsightSectionFailures counts report sections degraded to zero values
	InsightSectionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_insight_section_failures_total",
			Help: "Total number of insight report sections that failed and were zeroed",
		},
		[]string{"section"},
	)

	// InsightDuration observes how long an insights report takes to compose
	InsightDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pulse_insight_duration_seconds",
			Help:    "Duration of insight report generation in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"time_period"},
	)

	// APIRequests counts HTTP requests by method, route pattern and status
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_api_requests_total",
			Help: "Total number of HTTP API requests",
		},
		[]string{"method", "route", "status"},
	)

	// APIRequestDuration observes HTTP request latency by method and route pattern
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pulse_api_request_duration_seconds",
			Help:    "HTTP API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)
