// internal/domain/analytics/insights.go

package analytics

import (
	"time"
)

// SentimentDistribution counts records per label
type SentimentDistribution struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

// DailySentiment is the mean score of one calendar day (UTC)
type DailySentiment struct {
	Date             string  `json:"date"`
	AverageSentiment float64 `json:"average_sentiment"`
	Count            int     `json:"count"`
}

// SentimentSummary is the distributional summary of a set of sentiment records
type SentimentSummary struct {
	TotalAnalyses         int                   `json:"total_analyses"`
	AverageSentiment      float64               `json:"average_sentiment"`
	SentimentDistribution SentimentDistribution `json:"sentiment_distribution"`
	SentimentEvolution    []DailySentiment      `json:"sentiment_evolution"`
	TopPositiveContent    []SentimentRecord     `json:"top_positive_content"`
	TopNegativeContent    []SentimentRecord     `json:"top_negative_content"`
}

// SentimentTrendSummary is the percentage view of a sentiment window
type SentimentTrendSummary struct {
	TotalAnalyses      int              `json:"total_analyses"`
	AverageSentiment   float64          `json:"average_sentiment"`
	PositivePercentage float64          `json:"positive_percentage"`
	NegativePercentage float64          `json:"negative_percentage"`
	NeutralPercentage  float64          `json:"neutral_percentage"`
	DailyTrends        []DailySentiment `json:"daily_trends"`
}

// CommunityMetrics holds the count/ratio metrics of an insights window
type CommunityMetrics struct {
	TotalPosts     int     `json:"total_posts"`
	TotalComments  int     `json:"total_comments"`
	TotalUsers     int     `json:"total_users"`
	EngagementRate float64 `json:"engagement_rate"`
	GrowthRate     float64 `json:"growth_rate"`
}

// RecommendationType classifies a recommendation
type RecommendationType string

const (
	RecommendationWarning    RecommendationType = "warning"
	RecommendationInsight    RecommendationType = "insight"
	RecommendationActionable RecommendationType = "actionable"
)

// Priority ranks a recommendation
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Recommendation is a human-readable conclusion derived from report thresholds
type Recommendation struct {
	Type        RecommendationType `json:"type"`
	Priority    Priority           `json:"priority"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Action      string             `json:"action,omitempty"`
}

// InsightKind names one section of an insights report
type InsightKind string

const (
	InsightSentiment       InsightKind = "sentiment"
	InsightTrends          InsightKind = "trends"
	InsightPredictions     InsightKind = "predictions"
	InsightMetrics         InsightKind = "metrics"
	InsightRecommendations InsightKind = "recommendations"
)

// AllInsightKinds lists every section an insights report can carry
var AllInsightKinds = []InsightKind{
	InsightSentiment,
	InsightTrends,
	InsightPredictions,
	InsightMetrics,
	InsightRecommendations,
}

// InsightsConfig selects the window, scope and sections of an insights report
type InsightsConfig struct {
	TimePeriod      TimePeriod    `json:"time_period"`
	Scope           Scope         `json:"scope"`
	EnabledInsights []InsightKind `json:"enabled_insights"`
}

// Enabled reports whether kind was requested
func (c InsightsConfig) Enabled(kind InsightKind) bool {
	for _, k := range c.EnabledInsights {
		if k == kind {
			return true
		}
	}
	return false
}

// CommunityInsights is a composed analytics report for one window and scope
type CommunityInsights struct {
	TimePeriod      TimePeriod        `json:"time_period"`
	Scope           Scope             `json:"scope"`
	WindowStart     time.Time         `json:"window_start"`
	WindowEnd       time.Time         `json:"window_end"`
	Sentiment       SentimentSummary  `json:"sentiment"`
	Trends          []TrendAnalysis   `json:"trends"`
	Predictions     []TrendPrediction `json:"predictions"`
	Metrics         CommunityMetrics  `json:"metrics"`
	Recommendations []Recommendation  `json:"recommendations"`
	GeneratedAt     time.Time         `json:"generated_at"`
}
