// internal/service/prediction/trend.go

package prediction

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pulse/internal/domain/analytics"
	"pulse/internal/logging"
	"pulse/internal/metrics"
)

// directionThreshold separates rising and falling trends from stable ones
const directionThreshold = 0.1

// engagementMetric is the metric series behind engagement trends
const engagementMetric = "engagement_rate"

// TrendAnalyzer classifies the direction of a dimension over a window
type TrendAnalyzer struct {
	sentiment analytics.SentimentRepository
	metrics   analytics.MetricRepository
	trends    analytics.TrendRepository
	logger    zerolog.Logger
	now       func() time.Time
}

// NewTrendAnalyzer creates a new trend analyzer
func NewTrendAnalyzer(
	sentimentStore analytics.SentimentRepository,
	metricStore analytics.MetricRepository,
	trendStore analytics.TrendRepository,
) *TrendAnalyzer {
	return &TrendAnalyzer{
		sentiment: sentimentStore,
		metrics:   metricStore,
		trends:    trendStore,
		logger:    logging.Component("trends"),
		now:       time.Now,
	}
}

// Analyze classifies one trend type over [since, until) and persists the result.
// Fewer than two data points produce no analysis.
func (a *TrendAnalyzer) Analyze(
	ctx context.Context,
	trendType analytics.TrendType,
	since, until time.Time,
) ([]analytics.TrendAnalysis, error) {
	values, err := a.fetch(ctx, trendType, since, until)
	if err != nil {
		return nil, fmt.Errorf("error fetching %s trend data: %w", trendType, err)
	}

	if len(values) < minLinearSamples {
		return []analytics.TrendAnalysis{}, nil
	}

	analysis := Classify(trendType, values)
	analysis.ID = uuid.New().String()
	analysis.TimeWindowStart = since
	analysis.TimeWindowEnd = until
	analysis.CreatedAt = a.now()

	if err := a.trends.InsertTrendAnalyses(ctx, analysis); err != nil {
		return nil, fmt.Errorf("error storing trend analysis: %w", err)
	}

	metrics.TrendAnalyses.WithLabelValues(string(trendType), string(analysis.TrendDirection)).Inc()

	return []analytics.TrendAnalysis{analysis}, nil
}

// AnalyzeAll classifies every trend type over [since, until)
func (a *TrendAnalyzer) AnalyzeAll(ctx context.Context, since, until time.Time) ([]analytics.TrendAnalysis, error) {
	var all []analytics.TrendAnalysis
	for _, trendType := range analytics.AllTrendTypes {
		analyses, err := a.Analyze(ctx, trendType, since, until)
		if err != nil {
			return nil, err
		}
		all = append(all, analyses...)
	}

	if all == nil {
		all = []analytics.TrendAnalysis{}
	}
	return all, nil
}

// Classify computes the slope-over-mean trend score of values and its direction
func Classify(trendType analytics.TrendType, values []float64) analytics.TrendAnalysis {
	m := slope(values)
	avg := mean(values)

	score := 0.0
	if avg != 0 {
		score = m / math.Abs(avg)
	}

	direction := analytics.DirectionStable
	switch {
	case score > directionThreshold:
		direction = analytics.DirectionRising
	case score < -directionThreshold:
		direction = analytics.DirectionFalling
	}

	return analytics.TrendAnalysis{
		TrendType:       trendType,
		TrendName:       fmt.Sprintf("%s_trend", trendType),
		TrendScore:      score,
		TrendDirection:  direction,
		ConfidenceLevel: rSquared(values),
		Metadata: map[string]interface{}{
			"slope":       m,
			"average":     avg,
			"data_points": len(values),
		},
	}
}

// fetch loads the chronological values behind a trend type
func (a *TrendAnalyzer) fetch(
	ctx context.Context,
	trendType analytics.TrendType,
	since, until time.Time,
) ([]float64, error) {
	switch trendType {
	case analytics.TrendSentiment:
		records, err := a.sentiment.ListSentiment(ctx, analytics.SentimentQuery{Since: since, Until: until})
		if err != nil {
			return nil, err
		}
		values := make([]float64, len(records))
		for i, r := range records {
			values[i] = r.SentimentScore
		}
		return values, nil

	case analytics.TrendEngagement:
		samples, err := a.metrics.ListMetrics(ctx, analytics.MetricQuery{
			Names: []string{engagementMetric},
			Since: since,
			Until: until,
		})
		if err != nil {
			return nil, err
		}
		return valuesOf(samples), nil

	default:
		// Topic, location and demographic sources are not connected yet.
		return nil, nil
	}
}
