// internal/service/prediction/service.go

package prediction

import (
	"context"
	"fmt"
	"math"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"pulse/internal/domain/analytics"
	"pulse/internal/logging"
	"pulse/internal/metrics"
)

// DefaultSeriesLimit bounds how many samples a prediction run reads
const DefaultSeriesLimit = 100

// DefaultMetricNames maps prediction types to the metric series they forecast
func DefaultMetricNames() map[analytics.PredictionType]string {
	return map[analytics.PredictionType]string{
		analytics.PredictionEngagement: "engagement_rate",
		analytics.PredictionGrowth:     "total_users",
		analytics.PredictionSentiment:  "average_sentiment",
		analytics.PredictionTrend:      "total_posts",
		analytics.PredictionEvent:      "event_count",
	}
}

// ServiceConfig contains configuration for the prediction service
type ServiceConfig struct {
	EventsTopic string
	SeriesLimit int
	MetricNames map[analytics.PredictionType]string
}

// Service loads metric history, forecasts it and persists the forecasts
type Service struct {
	engine      *Engine
	metrics     analytics.MetricRepository
	predictions analytics.PredictionRepository
	eventBus    analytics.EventPublisher
	config      ServiceConfig
	logger      zerolog.Logger
}

// NewService creates a new prediction service. eventBus may be nil.
func NewService(
	engine *Engine,
	metricStore analytics.MetricRepository,
	predictionStore analytics.PredictionRepository,
	eventBus analytics.EventPublisher,
	config ServiceConfig,
) *Service {
	if config.SeriesLimit <= 0 {
		config.SeriesLimit = DefaultSeriesLimit
	}
	if config.MetricNames == nil {
		config.MetricNames = DefaultMetricNames()
	}

	return &Service{
		engine:      engine,
		metrics:     metricStore,
		predictions: predictionStore,
		eventBus:    eventBus,
		config:      config,
		logger:      logging.Component("prediction"),
	}
}

// Generate forecasts the metric mapped to predictionType and persists every
// produced prediction. Too little history yields an empty result, not an error.
func (s *Service) Generate(
	ctx context.Context,
	predictionType analytics.PredictionType,
	horizon analytics.Horizon,
) ([]analytics.TrendPrediction, error) {
	if !horizon.Valid() {
		return nil, fmt.Errorf("unknown horizon %q: %w", horizon, analytics.ErrInvalidInput)
	}

	metricName, ok := s.config.MetricNames[predictionType]
	if !ok {
		return nil, fmt.Errorf("unknown prediction type %q: %w", predictionType, analytics.ErrInvalidInput)
	}

	series, err := s.metrics.ListMetrics(ctx, analytics.MetricQuery{
		Names:      []string{metricName},
		Descending: true,
		Limit:      s.config.SeriesLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("error fetching metric history: %w", err)
	}

	predictions := s.engine.Predict(series, predictionType, horizon)
	if len(predictions) == 0 {
		s.logger.Debug().
			Str("prediction_type", string(predictionType)).
			Int("samples", len(series)).
			Msg("not enough history for any forecast")
		return predictions, nil
	}

	if err := s.predictions.InsertPredictions(ctx, predictions...); err != nil {
		return nil, fmt.Errorf("error storing predictions: %w", err)
	}

	for _, p := range predictions {
		metrics.PredictionsGenerated.WithLabelValues(string(predictionType), p.ModelVersion).Inc()
	}

	if err := s.publish("predictions.generated", predictions); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish predictions event")
	}

	return predictions, nil
}

// Reconcile records the observed value for a prediction and scores its accuracy
func (s *Service) Reconcile(ctx context.Context, id string, actual float64) (*analytics.TrendPrediction, error) {
	p, err := s.predictions.GetPrediction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error fetching prediction: %w", err)
	}

	accuracy := Accuracy(p.PredictedValue, actual)

	if err := s.predictions.UpdatePredictionOutcome(ctx, id, actual, accuracy); err != nil {
		return nil, fmt.Errorf("error updating prediction outcome: %w", err)
	}

	p.ActualValue = &actual
	p.AccuracyScore = &accuracy

	return p, nil
}

// List returns stored predictions matching q, newest first
func (s *Service) List(ctx context.Context, q analytics.PredictionQuery) ([]analytics.TrendPrediction, error) {
	predictions, err := s.predictions.ListPredictions(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("error listing predictions: %w", err)
	}
	return predictions, nil
}

// Accuracy is 1 minus the relative error of predicted against actual, floored at 0
func Accuracy(predicted, actual float64) float64 {
	if actual == 0 {
		if predicted == 0 {
			return 1
		}
		return 0
	}
	return math.Max(0, 1-math.Abs(predicted-actual)/math.Abs(actual))
}

func (s *Service) publish(event string, payload interface{}) error {
	if s.eventBus == nil {
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshaling event: %w", err)
	}

	return s.eventBus.Publish(fmt.Sprintf("%s.%s", s.config.EventsTopic, event), data)
}
