// internal/service/sentiment/aggregator.go

package sentiment

import (
	"sort"

	"pulse/internal/domain/analytics"
)

// DefaultTopContentLimit is how many extremes each top list carries
const DefaultTopContentLimit = 5

// Aggregator summarizes stored sentiment records
type Aggregator struct {
	topLimit int
}

// NewAggregator creates an aggregator keeping topLimit records per extreme list
func NewAggregator(topLimit int) *Aggregator {
	if topLimit <= 0 {
		topLimit = DefaultTopContentLimit
	}
	return &Aggregator{topLimit: topLimit}
}

// Summarize computes the distributional summary of records. An empty input
// yields a zero summary.
func (a *Aggregator) Summarize(records []analytics.SentimentRecord) analytics.SentimentSummary {
	summary := analytics.SentimentSummary{
		SentimentEvolution: []analytics.DailySentiment{},
		TopPositiveContent: []analytics.SentimentRecord{},
		TopNegativeContent: []analytics.SentimentRecord{},
	}

	if len(records) == 0 {
		return summary
	}

	total := 0.0
	for _, r := range records {
		total += r.SentimentScore

		label := r.SentimentLabel
		if label == "" {
			label = analytics.LabelFor(r.SentimentScore)
		}

		switch label {
		case analytics.LabelPositive:
			summary.SentimentDistribution.Positive++
		case analytics.LabelNegative:
			summary.SentimentDistribution.Negative++
		default:
			summary.SentimentDistribution.Neutral++
		}
	}

	summary.TotalAnalyses = len(records)
	summary.AverageSentiment = total / float64(len(records))
	summary.SentimentEvolution = dailyEvolution(records)
	summary.TopPositiveContent, summary.TopNegativeContent = a.extremes(records)

	return summary
}

// Trends computes the percentage view of records
func (a *Aggregator) Trends(records []analytics.SentimentRecord) analytics.SentimentTrendSummary {
	summary := a.Summarize(records)

	trends := analytics.SentimentTrendSummary{
		TotalAnalyses:    summary.TotalAnalyses,
		AverageSentiment: summary.AverageSentiment,
		DailyTrends:      summary.SentimentEvolution,
	}

	if summary.TotalAnalyses == 0 {
		return trends
	}

	total := float64(summary.TotalAnalyses)
	trends.PositivePercentage = float64(summary.SentimentDistribution.Positive) / total * 100
	trends.NegativePercentage = float64(summary.SentimentDistribution.Negative) / total * 100
	trends.NeutralPercentage = float64(summary.SentimentDistribution.Neutral) / total * 100

	return trends
}

// dailyEvolution groups records by UTC calendar date, ascending
func dailyEvolution(records []analytics.SentimentRecord) []analytics.DailySentiment {
	type bucket struct {
		sum   float64
		count int
	}

	buckets := make(map[string]*bucket)
	for _, r := range records {
		date := r.CreatedAt.UTC().Format("2006-01-02")
		b, ok := buckets[date]
		if !ok {
			b = &bucket{}
			buckets[date] = b
		}
		b.sum += r.SentimentScore
		b.count++
	}

	evolution := make([]analytics.DailySentiment, 0, len(buckets))
	for date, b := range buckets {
		evolution = append(evolution, analytics.DailySentiment{
			Date:             date,
			AverageSentiment: b.sum / float64(b.count),
			Count:            b.count,
		})
	}

	sort.Slice(evolution, func(i, j int) bool {
		return evolution[i].Date < evolution[j].Date
	})

	return evolution
}

// extremes returns the most positive records and the most negative records,
// most negative first
func (a *Aggregator) extremes(records []analytics.SentimentRecord) ([]analytics.SentimentRecord, []analytics.SentimentRecord) {
	sorted := make([]analytics.SentimentRecord, len(records))
	copy(sorted, records)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SentimentScore > sorted[j].SentimentScore
	})

	n := min(a.topLimit, len(sorted))

	top := make([]analytics.SentimentRecord, n)
	copy(top, sorted[:n])

	bottom := make([]analytics.SentimentRecord, 0, n)
	for i := len(sorted) - 1; i >= len(sorted)-n; i-- {
		bottom = append(bottom, sorted[i])
	}

	return top, bottom
}
