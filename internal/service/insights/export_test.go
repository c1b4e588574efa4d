package insights

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulse/internal/domain/analytics"
)

func sampleReport() *analytics.CommunityInsights {
	return &analytics.CommunityInsights{
		TimePeriod: analytics.PeriodDaily,
		Sentiment: analytics.SentimentSummary{
			TotalAnalyses:         6,
			AverageSentiment:      0.126,
			SentimentDistribution: analytics.SentimentDistribution{Positive: 3, Negative: 1, Neutral: 2},
		},
		Metrics: analytics.CommunityMetrics{
			TotalPosts:     12,
			TotalComments:  30,
			TotalUsers:     7,
			EngagementRate: 600,
			GrowthRate:     -12.5,
		},
		Recommendations: []analytics.Recommendation{{Title: "Declining Growth"}},
		GeneratedAt:     time.Date(2024, 5, 8, 12, 0, 0, 0, time.UTC),
	}
}

func TestExport_CSV(t *testing.T) {
	data, err := Export(sampleReport(), FormatCSV)
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)

	values := make(map[string]string, len(rows))
	for _, row := range rows {
		require.Len(t, row, 2)
		values[row[0]] = row[1]
	}

	assert.Equal(t, []string{"Metric", "Value"}, rows[0])
	assert.Equal(t, "daily", values["Time Period"])
	assert.Equal(t, "2024-05-08T12:00:00Z", values["Generated At"])
	assert.Equal(t, "12", values["Total Posts"])
	assert.Equal(t, "600.00", values["Engagement Rate"])
	assert.Equal(t, "-12.50", values["Growth Rate"])
	assert.Equal(t, "0.13", values["Average Sentiment"])
	assert.Equal(t, "3", values["Positive Count"])
	assert.Equal(t, "1", values["Recommendations"])
}

func TestExport_JSON(t *testing.T) {
	report := sampleReport()

	for _, format := range []ExportFormat{FormatJSON, ""} {
		data, err := Export(report, format)
		require.NoError(t, err)

		var decoded analytics.CommunityInsights
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, report.Metrics, decoded.Metrics)
		assert.True(t, report.GeneratedAt.Equal(decoded.GeneratedAt))
	}
}

func TestExport_UnknownFormat(t *testing.T) {
	_, err := Export(sampleReport(), "xml")
	assert.ErrorIs(t, err, analytics.ErrInvalidInput)
}

func TestExportFormat_ContentType(t *testing.T) {
	assert.Equal(t, "text/csv", FormatCSV.ContentType())
	assert.Equal(t, "application/json", FormatJSON.ContentType())
}
