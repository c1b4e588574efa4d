// internal/service/insights/export.go

package insights

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"

	"pulse/internal/domain/analytics"
)

// ExportFormat selects the serialization of an exported report
type ExportFormat string

const (
	FormatJSON ExportFormat = "json"
	FormatCSV  ExportFormat = "csv"
)

// ContentType returns the MIME type of the format
func (f ExportFormat) ContentType() string {
	if f == FormatCSV {
		return "text/csv"
	}
	return "application/json"
}

// Export serializes a report. CSV output is a fixed set of metric/value rows.
func Export(report *analytics.CommunityInsights, format ExportFormat) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("error marshaling report: %w", err)
		}
		return data, nil
	case FormatCSV:
		return exportCSV(report)
	default:
		return nil, fmt.Errorf("unknown export format %q: %w", format, analytics.ErrInvalidInput)
	}
}

func exportCSV(report *analytics.CommunityInsights) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	dist := report.Sentiment.SentimentDistribution
	rows := [][]string{
		{"Metric", "Value"},
		{"Time Period", string(report.TimePeriod)},
		{"Generated At", report.GeneratedAt.Format("2006-01-02T15:04:05Z07:00")},
		{"Total Posts", strconv.Itoa(report.Metrics.TotalPosts)},
		{"Total Comments", strconv.Itoa(report.Metrics.TotalComments)},
		{"Total Users", strconv.Itoa(report.Metrics.TotalUsers)},
		{"Engagement Rate", formatFloat(report.Metrics.EngagementRate)},
		{"Growth Rate", formatFloat(report.Metrics.GrowthRate)},
		{"Total Analyses", strconv.Itoa(report.Sentiment.TotalAnalyses)},
		{"Average Sentiment", formatFloat(report.Sentiment.AverageSentiment)},
		{"Positive Count", strconv.Itoa(dist.Positive)},
		{"Negative Count", strconv.Itoa(dist.Negative)},
		{"Neutral Count", strconv.Itoa(dist.Neutral)},
		{"Trends", strconv.Itoa(len(report.Trends))},
		{"Predictions", strconv.Itoa(len(report.Predictions))},
		{"Recommendations", strconv.Itoa(len(report.Recommendations))},
	}

	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("error writing csv: %w", err)
	}

	return buf.Bytes(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
