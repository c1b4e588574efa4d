// internal/domain/analytics/repository.go

package analytics

import (
	"context"
	"time"
)

// SentimentQuery filters sentiment records. Zero fields are ignored.
type SentimentQuery struct {
	Since       time.Time
	Until       time.Time
	ContentType ContentType
	Descending  bool
	Limit       int
}

// MetricQuery filters metric samples. Zero fields are ignored.
type MetricQuery struct {
	Names      []string
	TimePeriod TimePeriod
	Since      time.Time
	Until      time.Time
	Scope      Scope
	Descending bool
	Limit      int
}

// PredictionQuery filters stored predictions
type PredictionQuery struct {
	PredictionType PredictionType
	Since          time.Time
	Until          time.Time
	Limit          int
}

// TrendQuery filters stored trend analyses
type TrendQuery struct {
	TrendType TrendType
	Since     time.Time
	Until     time.Time
	Limit     int
}

// SentimentRepository persists sentiment records
type SentimentRepository interface {
	// InsertSentiment appends one or many records
	InsertSentiment(ctx context.Context, records ...SentimentRecord) error

	// ListSentiment returns records ordered by created_at
	ListSentiment(ctx context.Context, q SentimentQuery) ([]SentimentRecord, error)
}

// MetricRepository persists metric samples
type MetricRepository interface {
	// InsertMetrics appends one or many samples
	InsertMetrics(ctx context.Context, samples ...MetricSample) error

	// ListMetrics returns samples ordered by calculated_at
	ListMetrics(ctx context.Context, q MetricQuery) ([]MetricSample, error)
}

// PredictionRepository persists forecasts
type PredictionRepository interface {
	InsertPredictions(ctx context.Context, predictions ...TrendPrediction) error
	GetPrediction(ctx context.Context, id string) (*TrendPrediction, error)
	ListPredictions(ctx context.Context, q PredictionQuery) ([]TrendPrediction, error)

	// UpdatePredictionOutcome fills the reconciliation fields of a prediction
	UpdatePredictionOutcome(ctx context.Context, id string, actual, accuracy float64) error
}

// TrendRepository persists trend analyses
type TrendRepository interface {
	InsertTrendAnalyses(ctx context.Context, analyses ...TrendAnalysis) error
	ListTrendAnalyses(ctx context.Context, q TrendQuery) ([]TrendAnalysis, error)
}

// ModelRepository persists serialized models
type ModelRepository interface {
	// InsertModel stores a new model row
	InsertModel(ctx context.Context, m MLModel) error

	// GetModel returns a model by ID or ErrNotFound
	GetModel(ctx context.Context, id string) (*MLModel, error)

	// ListModels returns models of a type (all types when empty), newest first
	ListModels(ctx context.Context, modelType ModelType) ([]MLModel, error)

	// GetActiveModel returns the active model of a type, or nil when none is active
	GetActiveModel(ctx context.Context, modelType ModelType) (*MLModel, error)

	// ActivateModel makes id the only active model of its type in one atomic step
	ActivateModel(ctx context.Context, id string) error

	// UpdateModelMetrics replaces the performance metrics of a model
	UpdateModelMetrics(ctx context.Context, id string, metrics map[string]float64) error

	// DeleteModel removes a model
	DeleteModel(ctx context.Context, id string) error
}

// CommunityRepository answers count queries over community content
type CommunityRepository interface {
	CountPosts(ctx context.Context, since, until time.Time, scope Scope) (int, error)
	CountComments(ctx context.Context, since, until time.Time, scope Scope) (int, error)
	CountUsers(ctx context.Context, since, until time.Time, scope Scope) (int, error)
}

// EventPublisher publishes analytics events; *nats.Conn satisfies it
type EventPublisher interface {
	Publish(subject string, data []byte) error
}
