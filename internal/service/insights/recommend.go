// internal/service/insights/recommend.go

package insights

import (
	"fmt"
	"strings"

	"pulse/internal/domain/analytics"
)

// Recommendation thresholds
const (
	negativeSentimentThreshold = -0.2
	positiveSentimentThreshold = 0.3
	decliningGrowthThreshold   = -10.0
	strongGrowthThreshold      = 20.0
	lowEngagementThreshold     = 5.0
	highConfidenceThreshold    = 0.8
)

// Recommend evaluates every recommendation rule independently. A nil summary
// or metrics means that section was not computed and its rules are skipped.
func Recommend(
	summary *analytics.SentimentSummary,
	communityMetrics *analytics.CommunityMetrics,
	trends []analytics.TrendAnalysis,
	predictions []analytics.TrendPrediction,
) []analytics.Recommendation {
	recs := []analytics.Recommendation{}

	if summary != nil {
		if summary.AverageSentiment < negativeSentimentThreshold {
			recs = append(recs, analytics.Recommendation{
				Type:        analytics.RecommendationWarning,
				Priority:    analytics.PriorityHigh,
				Title:       "Negative Sentiment Alert",
				Description: fmt.Sprintf("Average community sentiment is %.2f.", summary.AverageSentiment),
				Action:      "Review recent discussions and step up moderation of hostile threads.",
			})
		}
		if summary.AverageSentiment > positiveSentimentThreshold {
			recs = append(recs, analytics.Recommendation{
				Type:        analytics.RecommendationInsight,
				Priority:    analytics.PriorityMedium,
				Title:       "Positive Community Health",
				Description: fmt.Sprintf("Average community sentiment is %.2f.", summary.AverageSentiment),
				Action:      "Highlight well-received content and the members behind it.",
			})
		}
	}

	if communityMetrics != nil {
		if communityMetrics.GrowthRate < decliningGrowthThreshold {
			recs = append(recs, analytics.Recommendation{
				Type:        analytics.RecommendationWarning,
				Priority:    analytics.PriorityHigh,
				Title:       "Declining Growth",
				Description: fmt.Sprintf("Post volume changed by %.1f%% against the previous period.", communityMetrics.GrowthRate),
				Action:      "Run re-engagement campaigns and check for recent friction in posting.",
			})
		}
		if communityMetrics.GrowthRate > strongGrowthThreshold {
			recs = append(recs, analytics.Recommendation{
				Type:        analytics.RecommendationInsight,
				Priority:    analytics.PriorityMedium,
				Title:       "Strong Growth Momentum",
				Description: fmt.Sprintf("Post volume grew by %.1f%% against the previous period.", communityMetrics.GrowthRate),
				Action:      "Make sure moderation capacity keeps up with growth.",
			})
		}
		if communityMetrics.EngagementRate < lowEngagementThreshold {
			recs = append(recs, analytics.Recommendation{
				Type:        analytics.RecommendationActionable,
				Priority:    analytics.PriorityHigh,
				Title:       "Low Engagement Rate",
				Description: fmt.Sprintf("Engagement rate is %.1f%%.", communityMetrics.EngagementRate),
				Action:      "Seed discussions, events and polls to prompt participation.",
			})
		}
	}

	var rising []string
	for _, t := range trends {
		if t.TrendDirection == analytics.DirectionRising {
			rising = append(rising, t.TrendName)
		}
	}
	if len(rising) > 0 {
		recs = append(recs, analytics.Recommendation{
			Type:        analytics.RecommendationInsight,
			Priority:    analytics.PriorityMedium,
			Title:       "Rising Trends",
			Description: fmt.Sprintf("Rising trends: %s.", strings.Join(rising, ", ")),
		})
	}

	var confident []string
	for _, p := range predictions {
		if p.ConfidenceScore > highConfidenceThreshold {
			confident = append(confident, p.PredictionTarget)
		}
	}
	if len(confident) > 0 {
		recs = append(recs, analytics.Recommendation{
			Type:        analytics.RecommendationInsight,
			Priority:    analytics.PriorityMedium,
			Title:       "High-Confidence Predictions",
			Description: fmt.Sprintf("High-confidence forecasts: %s.", strings.Join(confident, ", ")),
		})
	}

	return recs
}
