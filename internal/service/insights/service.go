// internal/service/insights/service.go

package insights

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"pulse/internal/domain/analytics"
	"pulse/internal/logging"
	"pulse/internal/metrics"
)

// Names of the metric samples an insights report is stored as
const (
	MetricTotalPosts       = "total_posts"
	MetricTotalComments    = "total_comments"
	MetricTotalUsers       = "total_users"
	MetricEngagementRate   = "engagement_rate"
	MetricGrowthRate       = "growth_rate"
	MetricAverageSentiment = "average_sentiment"
)

var reportMetricNames = []string{
	MetricTotalPosts,
	MetricTotalComments,
	MetricTotalUsers,
	MetricEngagementRate,
	MetricGrowthRate,
	MetricAverageSentiment,
}

// SentimentSummarizer summarizes sentiment over a window
type SentimentSummarizer interface {
	Summary(ctx context.Context, since, until time.Time) (analytics.SentimentSummary, error)
}

// TrendClassifier classifies every trend dimension over a window
type TrendClassifier interface {
	AnalyzeAll(ctx context.Context, since, until time.Time) ([]analytics.TrendAnalysis, error)
}

// Forecaster produces persisted predictions for a type and horizon
type Forecaster interface {
	Generate(ctx context.Context, predictionType analytics.PredictionType, horizon analytics.Horizon) ([]analytics.TrendPrediction, error)
}

// forecastPlan is the fixed set of forecasts carried by every report
var forecastPlan = []struct {
	predictionType analytics.PredictionType
	horizon        analytics.Horizon
}{
	{analytics.PredictionEngagement, analytics.HorizonShort},
	{analytics.PredictionGrowth, analytics.HorizonMedium},
	{analytics.PredictionSentiment, analytics.HorizonLong},
}

// ServiceConfig contains configuration for the insights service
type ServiceConfig struct {
	EventsTopic string
}

// Service composes sentiment, trends, predictions and community metrics into
// insight reports
type Service struct {
	sentiment  SentimentSummarizer
	trends     TrendClassifier
	forecaster Forecaster
	community  analytics.CommunityRepository
	metrics    analytics.MetricRepository
	eventBus   analytics.EventPublisher
	config     ServiceConfig
	logger     zerolog.Logger
	now        func() time.Time
}

// NewService creates a new insights service. eventBus may be nil.
func NewService(
	sentimentSummarizer SentimentSummarizer,
	trendClassifier TrendClassifier,
	forecaster Forecaster,
	communityStore analytics.CommunityRepository,
	metricStore analytics.MetricRepository,
	eventBus analytics.EventPublisher,
	config ServiceConfig,
) *Service {
	return &Service{
		sentiment:  sentimentSummarizer,
		trends:     trendClassifier,
		forecaster: forecaster,
		community:  communityStore,
		metrics:    metricStore,
		eventBus:   eventBus,
		config:     config,
		logger:     logging.Component("insights"),
		now:        time.Now,
	}
}

// GetInsights builds a report for the configured window and scope. Only the
// enabled sections are computed; a section whose data cannot be fetched is
// logged and left at its zero value.
//
// Scope filters the community metrics only. Sentiment, trend and prediction
// sections always cover the whole community.
func (s *Service) GetInsights(ctx context.Context, cfg analytics.InsightsConfig) (*analytics.CommunityInsights, error) {
	if cfg.TimePeriod == "" {
		cfg.TimePeriod = analytics.PeriodWeekly
	}
	if !cfg.TimePeriod.Valid() {
		return nil, fmt.Errorf("unknown time period %q: %w", cfg.TimePeriod, analytics.ErrInvalidInput)
	}

	start := time.Now()
	until := s.now().UTC()
	since := until.Add(-cfg.TimePeriod.Duration())

	report := &analytics.CommunityInsights{
		TimePeriod:      cfg.TimePeriod,
		Scope:           cfg.Scope,
		WindowStart:     since,
		WindowEnd:       until,
		Sentiment:       emptySummary(),
		Trends:          []analytics.TrendAnalysis{},
		Predictions:     []analytics.TrendPrediction{},
		Recommendations: []analytics.Recommendation{},
		GeneratedAt:     until,
	}

	var summary *analytics.SentimentSummary
	if cfg.Enabled(analytics.InsightSentiment) {
		if sum, err := s.sentiment.Summary(ctx, since, until); err != nil {
			s.sectionFailed(analytics.InsightSentiment, err)
		} else {
			report.Sentiment = sum
			summary = &report.Sentiment
		}
	}

	if cfg.Enabled(analytics.InsightTrends) {
		if trends, err := s.trends.AnalyzeAll(ctx, since, until); err != nil {
			s.sectionFailed(analytics.InsightTrends, err)
		} else {
			report.Trends = trends
		}
	}

	if cfg.Enabled(analytics.InsightPredictions) {
		for _, plan := range forecastPlan {
			predictions, err := s.forecaster.Generate(ctx, plan.predictionType, plan.horizon)
			if err != nil {
				s.sectionFailed(analytics.InsightPredictions, err)
				continue
			}
			report.Predictions = append(report.Predictions, predictions...)
		}
	}

	var communityMetrics *analytics.CommunityMetrics
	if cfg.Enabled(analytics.InsightMetrics) {
		if m, err := s.communityMetrics(ctx, since, until, cfg.TimePeriod, cfg.Scope); err != nil {
			s.sectionFailed(analytics.InsightMetrics, err)
		} else {
			report.Metrics = m
			communityMetrics = &report.Metrics
		}
	}

	if cfg.Enabled(analytics.InsightRecommendations) {
		report.Recommendations = Recommend(summary, communityMetrics, report.Trends, report.Predictions)
	}

	metrics.InsightDuration.WithLabelValues(string(cfg.TimePeriod)).Observe(time.Since(start).Seconds())

	if err := s.publish("insights.generated", map[string]interface{}{
		"time_period":     report.TimePeriod,
		"generated_at":    report.GeneratedAt,
		"recommendations": len(report.Recommendations),
	}); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish insights event")
	}

	return report, nil
}

// communityMetrics counts posts, comments and users in the window and compares
// post volume with the preceding window of equal length
func (s *Service) communityMetrics(
	ctx context.Context,
	since, until time.Time,
	period analytics.TimePeriod,
	scope analytics.Scope,
) (analytics.CommunityMetrics, error) {
	var m analytics.CommunityMetrics
	var err error

	if m.TotalPosts, err = s.community.CountPosts(ctx, since, until, scope); err != nil {
		return analytics.CommunityMetrics{}, fmt.Errorf("error counting posts: %w", err)
	}
	if m.TotalComments, err = s.community.CountComments(ctx, since, until, scope); err != nil {
		return analytics.CommunityMetrics{}, fmt.Errorf("error counting comments: %w", err)
	}
	if m.TotalUsers, err = s.community.CountUsers(ctx, since, until, scope); err != nil {
		return analytics.CommunityMetrics{}, fmt.Errorf("error counting users: %w", err)
	}

	previousPosts, err := s.community.CountPosts(ctx, since.Add(-period.Duration()), since, scope)
	if err != nil {
		return analytics.CommunityMetrics{}, fmt.Errorf("error counting previous posts: %w", err)
	}

	m.EngagementRate = EngagementRate(m.TotalPosts, m.TotalComments, m.TotalUsers)
	m.GrowthRate = GrowthRate(m.TotalPosts, previousPosts)

	return m, nil
}

// EngagementRate is (posts + comments) per user, as a percentage
func EngagementRate(posts, comments, users int) float64 {
	if users == 0 {
		return 0
	}
	return float64(posts+comments) / float64(users) * 100
}

// GrowthRate is the percentage change of current against previous; 0 when
// there is no previous volume
func GrowthRate(current, previous int) float64 {
	if previous == 0 {
		return 0
	}
	return float64(current-previous) / float64(previous) * 100
}

// Store persists the headline numbers of a report as metric samples
func (s *Service) Store(ctx context.Context, report *analytics.CommunityInsights) error {
	values := map[string]float64{
		MetricTotalPosts:       float64(report.Metrics.TotalPosts),
		MetricTotalComments:    float64(report.Metrics.TotalComments),
		MetricTotalUsers:       float64(report.Metrics.TotalUsers),
		MetricEngagementRate:   report.Metrics.EngagementRate,
		MetricGrowthRate:       report.Metrics.GrowthRate,
		MetricAverageSentiment: report.Sentiment.AverageSentiment,
	}

	samples := make([]analytics.MetricSample, 0, len(reportMetricNames))
	for _, name := range reportMetricNames {
		samples = append(samples, analytics.MetricSample{
			MetricName:       name,
			MetricValue:      values[name],
			TimePeriod:       report.TimePeriod,
			GeographicScope:  report.Scope.Geographic,
			DemographicScope: report.Scope.Demographic,
			CalculatedAt:     report.GeneratedAt,
		})
	}

	if err := s.metrics.InsertMetrics(ctx, samples...); err != nil {
		return fmt.Errorf("error storing analytics data: %w", err)
	}

	return nil
}

// History returns stored report metrics within [since, until), oldest first
func (s *Service) History(ctx context.Context, since, until time.Time) ([]analytics.MetricSample, error) {
	samples, err := s.metrics.ListMetrics(ctx, analytics.MetricQuery{
		Names: reportMetricNames,
		Since: since,
		Until: until,
	})
	if err != nil {
		return nil, fmt.Errorf("error fetching historical analytics: %w", err)
	}
	return samples, nil
}

func (s *Service) sectionFailed(section analytics.InsightKind, err error) {
	metrics.InsightSectionFailures.WithLabelValues(string(section)).Inc()
	s.logger.Warn().Err(err).Str("section", string(section)).Msg("insight section degraded")
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

func emptySummary() analytics.SentimentSummary {
	return analytics.SentimentSummary{
		SentimentEvolution: []analytics.DailySentiment{},
		TopPositiveContent: []analytics.SentimentRecord{},
		TopNegativeContent: []analytics.SentimentRecord{},
	}
}
