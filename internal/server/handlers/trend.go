// internal/server/handlers/trend.go

package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"pulse/internal/domain/analytics"
)

// TrendAnalyzer classifies trend dimensions over a window
type TrendAnalyzer interface {
	Analyze(ctx context.Context, trendType analytics.TrendType, since, until time.Time) ([]analytics.TrendAnalysis, error)
	AnalyzeAll(ctx context.Context, since, until time.Time) ([]analytics.TrendAnalysis, error)
}

// TrendHandler handles trend-related HTTP requests
type TrendHandler struct {
	analyzer TrendAnalyzer
	now      func() time.Time
}

// NewTrendHandler creates a new trend handler
func NewTrendHandler(analyzer TrendAnalyzer) *TrendHandler {
	return &TrendHandler{
		analyzer: analyzer,
		now:      time.Now,
	}
}

// GetTrends classifies every trend dimension, or only ?type=, over the period
func (h *TrendHandler) GetTrends(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	since, until := window(h.now(), period)

	var trends []analytics.TrendAnalysis
	if trendType := analytics.TrendType(strings.ToLower(r.URL.Query().Get("type"))); trendType != "" {
		if !knownTrendType(trendType) {
			respondWithError(w, http.StatusBadRequest, "Unknown trend type", nil)
			return
		}
		trends, err = h.analyzer.Analyze(r.Context(), trendType, since, until)
	} else {
		trends, err = h.analyzer.AnalyzeAll(r.Context(), since, until)
	}
	if err != nil {
		respondWithServiceError(w, "Failed to get trends", err)
		return
	}

	respondWithJSON(w, http.StatusOK, trends)
}

func knownTrendType(t analytics.TrendType) bool {
	for _, known := range analytics.AllTrendTypes {
		if known == t {
			return true
		}
	}
	return false
}
