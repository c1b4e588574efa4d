// internal/domain/analytics/model.go

package analytics

import (
	"time"
)

// ContentType identifies the kind of content a sentiment record was scored from
type ContentType string

const (
	ContentPost       ContentType = "post"
	ContentComment    ContentType = "comment"
	ContentNews       ContentType = "news"
	ContentDiscussion ContentType = "discussion"
)

// SentimentLabel is the discrete class derived from a sentiment score
type SentimentLabel string

const (
	LabelPositive SentimentLabel = "positive"
	LabelNegative SentimentLabel = "negative"
	LabelNeutral  SentimentLabel = "neutral"
)

// LabelThreshold is the distance from zero a score must exceed to leave neutral
const LabelThreshold = 0.1

// LabelFor classifies a normalized score
func LabelFor(score float64) SentimentLabel {
	switch {
	case score > LabelThreshold:
		return LabelPositive
	case score < -LabelThreshold:
		return LabelNegative
	default:
		return LabelNeutral
	}
}

// TimePeriod is the bucket granularity of a metric sample or an insights window
type TimePeriod string

const (
	PeriodHourly  TimePeriod = "hourly"
	PeriodDaily   TimePeriod = "daily"
	PeriodWeekly  TimePeriod = "weekly"
	PeriodMonthly TimePeriod = "monthly"
	PeriodYearly  TimePeriod = "yearly"
)

// Duration returns the length of one bucket of the period
func (p TimePeriod) Duration() time.Duration {
	switch p {
	case PeriodHourly:
		return time.Hour
	case PeriodDaily:
		return 24 * time.Hour
	case PeriodMonthly:
		return 30 * 24 * time.Hour
	case PeriodYearly:
		return 365 * 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}

// Valid reports whether p is a known period
func (p TimePeriod) Valid() bool {
	switch p {
	case PeriodHourly, PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodYearly:
		return true
	}
	return false
}

// PredictionType identifies what a forecast is about
type PredictionType string

const (
	PredictionEngagement PredictionType = "engagement"
	PredictionGrowth     PredictionType = "growth"
	PredictionSentiment  PredictionType = "sentiment"
	PredictionTrend      PredictionType = "trend"
	PredictionEvent      PredictionType = "event"
)

// Horizon is the forecast distance bucket
type Horizon string

const (
	HorizonShort  Horizon = "short"
	HorizonMedium Horizon = "medium"
	HorizonLong   Horizon = "long"
)

// Days returns the number of days the horizon spans
func (h Horizon) Days() int {
	switch h {
	case HorizonShort:
		return 7
	case HorizonLong:
		return 90
	default:
		return 30
	}
}

// Valid reports whether h is a known horizon
func (h Horizon) Valid() bool {
	return h == HorizonShort || h == HorizonMedium || h == HorizonLong
}

// TrendType is a dimension along which trends are classified
type TrendType string

const (
	TrendTopic       TrendType = "topic"
	TrendSentiment   TrendType = "sentiment"
	TrendEngagement  TrendType = "engagement"
	TrendLocation    TrendType = "location"
	TrendDemographic TrendType = "demographic"
)

// AllTrendTypes is the fixed dimension set used by insight reports
var AllTrendTypes = []TrendType{
	TrendTopic,
	TrendSentiment,
	TrendEngagement,
	TrendLocation,
	TrendDemographic,
}

// TrendDirection is the classified direction of a trend
type TrendDirection string

const (
	DirectionRising  TrendDirection = "rising"
	DirectionFalling TrendDirection = "falling"
	DirectionStable  TrendDirection = "stable"
)

// ModelType identifies the family of a stored model
type ModelType string

const (
	ModelSentiment      ModelType = "sentiment"
	ModelTrend          ModelType = "trend"
	ModelPrediction     ModelType = "prediction"
	ModelClassification ModelType = "classification"
	ModelClustering     ModelType = "clustering"
)

// Valid reports whether t is a known model type
func (t ModelType) Valid() bool {
	switch t {
	case ModelSentiment, ModelTrend, ModelPrediction, ModelClassification, ModelClustering:
		return true
	}
	return false
}

// SentimentRecord is one scored unit of content. Records are append-only.
type SentimentRecord struct {
	ID              string         `json:"id"`
	ContentID       string         `json:"content_id"`
	ContentType     ContentType    `json:"content_type"`
	SentimentScore  float64        `json:"sentiment_score"`
	SentimentLabel  SentimentLabel `json:"sentiment_label"`
	ConfidenceScore float64        `json:"confidence_score"`
	CreatedAt       time.Time      `json:"created_at"`
}

// MetricSample is one observation of a named scalar metric
type MetricSample struct {
	ID               string            `json:"id"`
	MetricName       string            `json:"metric_name"`
	MetricValue      float64           `json:"metric_value"`
	TimePeriod       TimePeriod        `json:"time_period"`
	GeographicScope  map[string]string `json:"geographic_scope,omitempty"`
	DemographicScope map[string]string `json:"demographic_scope,omitempty"`
	CalculatedAt     time.Time         `json:"calculated_at"`
}

// TrendPrediction is a single forecast produced by one prediction method
type TrendPrediction struct {
	ID                string                 `json:"id"`
	PredictionType    PredictionType         `json:"prediction_type"`
	PredictionTarget  string                 `json:"prediction_target"`
	PredictedValue    float64                `json:"predicted_value"`
	ConfidenceScore   float64                `json:"confidence_score"`
	PredictionHorizon Horizon                `json:"prediction_horizon"`
	PredictionDate    time.Time              `json:"prediction_date"`
	ActualValue       *float64               `json:"actual_value,omitempty"`
	AccuracyScore     *float64               `json:"accuracy_score,omitempty"`
	ModelVersion      string                 `json:"model_version"`
	Metadata          map[string]interface{} `json:"metadata"`
	CreatedAt         time.Time              `json:"created_at"`
}

// TrendAnalysis is the classified trend of one dimension over a window
type TrendAnalysis struct {
	ID              string                 `json:"id"`
	TrendType       TrendType              `json:"trend_type"`
	TrendName       string                 `json:"trend_name"`
	TrendScore      float64                `json:"trend_score"`
	TrendDirection  TrendDirection         `json:"trend_direction"`
	ConfidenceLevel float64                `json:"confidence_level"`
	TimeWindowStart time.Time              `json:"time_window_start"`
	TimeWindowEnd   time.Time              `json:"time_window_end"`
	Metadata        map[string]interface{} `json:"metadata"`
	CreatedAt       time.Time              `json:"created_at"`
}

// MLModel is a named, versioned, serialized statistical model
type MLModel struct {
	ID                 string                 `json:"id"`
	ModelName          string                 `json:"model_name"`
	ModelType          ModelType              `json:"model_type"`
	ModelVersion       string                 `json:"model_version"`
	ModelData          []byte                 `json:"-"`
	ModelMetadata      map[string]interface{} `json:"model_metadata"`
	PerformanceMetrics map[string]float64     `json:"performance_metrics"`
	TrainingDataHash   string                 `json:"training_data_hash,omitempty"`
	IsActive           bool                   `json:"is_active"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
}

// Scope narrows a query to a geographic and/or demographic slice
type Scope struct {
	Geographic  map[string]string `json:"geographic,omitempty"`
	Demographic map[string]string `json:"demographic,omitempty"`
}
