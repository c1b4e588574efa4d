// internal/service/prediction/engine.go

package prediction

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"pulse/internal/domain/analytics"
)

// Minimum series lengths per method
const (
	minLinearSamples   = 2
	minSeasonalSamples = 7
	minGrowthSamples   = 3
)

// Model versions identify which forecasting rule produced a prediction
const (
	LinearTrendVersion    = "linear_trend_v1"
	WeeklySeasonalVersion = "weekly_seasonal_v1"
	CompoundGrowthVersion = "compound_growth_v1"
)

// Engine produces forecasts from metric series. It holds no state besides a
// clock and is safe for concurrent use.
type Engine struct {
	now func() time.Time
}

// NewEngine creates a forecasting engine. A nil clock uses time.Now.
func NewEngine(clock func() time.Time) *Engine {
	if clock == nil {
		clock = time.Now
	}
	return &Engine{now: clock}
}

// Predict runs the linear-trend, weekly-seasonal and compound-growth methods
// over series and returns every forecast whose data requirement is met.
// series may be in any order; samples are ordered by calculated_at.
func (e *Engine) Predict(
	series []analytics.MetricSample,
	predictionType analytics.PredictionType,
	horizon analytics.Horizon,
) []analytics.TrendPrediction {
	chronological := sortChronologically(series)
	now := e.now()

	predictions := make([]analytics.TrendPrediction, 0, 3)

	if p, ok := e.linearTrend(chronological, predictionType, horizon, now); ok {
		predictions = append(predictions, p)
	}
	if p, ok := e.weeklySeasonal(chronological, predictionType, horizon, now); ok {
		predictions = append(predictions, p)
	}
	if p, ok := e.compoundGrowth(chronological, predictionType, horizon, now); ok {
		predictions = append(predictions, p)
	}

	return predictions
}

// linearTrend extrapolates the least-squares slope from the series mean
func (e *Engine) linearTrend(
	series []analytics.MetricSample,
	predictionType analytics.PredictionType,
	horizon analytics.Horizon,
	now time.Time,
) (analytics.TrendPrediction, bool) {
	if len(series) < minLinearSamples {
		return analytics.TrendPrediction{}, false
	}

	values := valuesOf(series)
	m := slope(values)
	avg := mean(values)

	p := newPrediction(predictionType, "trend", horizon, now, LinearTrendVersion)
	p.PredictedValue = avg + m*float64(horizon.Days())
	p.ConfidenceScore = rSquared(values)
	p.Metadata = map[string]interface{}{
		"trend_slope":        m,
		"historical_average": avg,
		"data_points":        len(values),
	}

	return p, true
}

// weeklySeasonal forecasts the mean of the day-of-week bucket the horizon lands on
func (e *Engine) weeklySeasonal(
	series []analytics.MetricSample,
	predictionType analytics.PredictionType,
	horizon analytics.Horizon,
	now time.Time,
) (analytics.TrendPrediction, bool) {
	if len(series) < minSeasonalSamples {
		return analytics.TrendPrediction{}, false
	}

	pattern := weeklyPattern(series)
	// Buckets are UTC weekdays, so the target is too
	targetDay := (int(now.UTC().Weekday()) + horizon.Days()) % 7

	p := newPrediction(predictionType, "seasonal", horizon, now, WeeklySeasonalVersion)
	p.PredictedValue = pattern[targetDay]
	p.ConfidenceScore = clamp01(1 - coefficientOfVariation(pattern))
	p.Metadata = map[string]interface{}{
		"weekly_pattern":     pattern,
		"target_day_of_week": targetDay,
	}

	return p, true
}

// compoundGrowth extrapolates a constant monthly growth rate from the most
// recent value.
//
// The series is walked most-recent-first and the rate is derived as
// (oldest/newest)^(1/n) - 1, so a rising series yields a negative rate.
// A zero newest value or a negative ratio yields a rate of 0; a zero oldest
// value yields -1.
func (e *Engine) compoundGrowth(
	series []analytics.MetricSample,
	predictionType analytics.PredictionType,
	horizon analytics.Horizon,
	now time.Time,
) (analytics.TrendPrediction, bool) {
	if len(series) < minGrowthSamples {
		return analytics.TrendPrediction{}, false
	}

	recentFirst := valuesOf(series)
	for i, j := 0, len(recentFirst)-1; i < j; i, j = i+1, j-1 {
		recentFirst[i], recentFirst[j] = recentFirst[j], recentFirst[i]
	}

	n := len(recentFirst)
	current := recentFirst[0]
	oldest := recentFirst[n-1]

	rate := 0.0
	if current != 0 {
		if ratio := oldest / current; ratio >= 0 {
			rate = math.Pow(ratio, 1/float64(n)) - 1
		}
	}

	periods := float64(horizon.Days()) / 30

	p := newPrediction(predictionType, "growth", horizon, now, CompoundGrowthVersion)
	p.PredictedValue = current * math.Pow(1+rate, periods)
	p.ConfidenceScore = growthConfidence(recentFirst, current, rate)
	p.Metadata = map[string]interface{}{
		"growth_rate":      rate,
		"current_value":    current,
		"compound_periods": periods,
	}

	return p, true
}

// growthConfidence back-fits the growth curve over the history and returns
// 1 - MSE/mean^2
func growthConfidence(recentFirst []float64, current, rate float64) float64 {
	avg := mean(recentFirst)
	if avg == 0 {
		return 0
	}

	mse := 0.0
	for i, actual := range recentFirst {
		fitted := current * math.Pow(1+rate, -float64(i))
		mse += (actual - fitted) * (actual - fitted)
	}
	mse /= float64(len(recentFirst))

	return clamp01(1 - mse/(avg*avg))
}

// weeklyPattern returns the mean value per weekday, Sunday first
func weeklyPattern(series []analytics.MetricSample) []float64 {
	var sums [7]float64
	var counts [7]int

	for _, s := range series {
		day := int(s.CalculatedAt.UTC().Weekday())
		sums[day] += s.MetricValue
		counts[day]++
	}

	pattern := make([]float64, 7)
	for day := range pattern {
		if counts[day] > 0 {
			pattern[day] = sums[day] / float64(counts[day])
		}
	}

	return pattern
}

func newPrediction(
	predictionType analytics.PredictionType,
	method string,
	horizon analytics.Horizon,
	now time.Time,
	version string,
) analytics.TrendPrediction {
	return analytics.TrendPrediction{
		ID:                uuid.New().String(),
		PredictionType:    predictionType,
		PredictionTarget:  fmt.Sprintf("%s_%s", predictionType, method),
		PredictionHorizon: horizon,
		PredictionDate:    now.AddDate(0, 0, horizon.Days()),
		ModelVersion:      version,
		CreatedAt:         now,
	}
}

func sortChronologically(series []analytics.MetricSample) []analytics.MetricSample {
	sorted := make([]analytics.MetricSample, len(series))
	copy(sorted, series)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CalculatedAt.Before(sorted[j].CalculatedAt)
	})
	return sorted
}

func valuesOf(series []analytics.MetricSample) []float64 {
	values := make([]float64, len(series))
	for i, s := range series {
		values[i] = s.MetricValue
	}
	return values
}
