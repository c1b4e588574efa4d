// internal/server/handlers/sentiment.go

package handlers

import (
	"context"
	"net/http"
	"time"

	"pulse/internal/domain/analytics"
)

// SentimentService scores content and summarizes stored sentiment
type SentimentService interface {
	Analyze(ctx context.Context, contentID string, contentType analytics.ContentType, text string) (*analytics.SentimentRecord, error)
	Summary(ctx context.Context, since, until time.Time) (analytics.SentimentSummary, error)
	Trends(ctx context.Context, since, until time.Time) (analytics.SentimentTrendSummary, error)
}

// SentimentHandler handles sentiment HTTP requests
type SentimentHandler struct {
	service SentimentService
	now     func() time.Time
}

// NewSentimentHandler creates a new sentiment handler
func NewSentimentHandler(service SentimentService) *SentimentHandler {
	return &SentimentHandler{
		service: service,
		now:     time.Now,
	}
}

type analyzeRequest struct {
	ContentID   string                `json:"content_id"`
	ContentType analytics.ContentType `json:"content_type"`
	Text        string                `json:"text"`
}

// Analyze scores a piece of content and stores the result
func (h *SentimentHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.ContentType == "" {
		req.ContentType = analytics.ContentPost
	}

	record, err := h.service.Analyze(r.Context(), req.ContentID, req.ContentType, req.Text)
	if err != nil {
		respondWithServiceError(w, "Failed to analyze sentiment", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, record)
}

// GetSummary returns the sentiment summary of the requested period
func (h *SentimentHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	since, until := window(h.now(), period)
	summary, err := h.service.Summary(r.Context(), since, until)
	if err != nil {
		respondWithServiceError(w, "Failed to get sentiment summary", err)
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}

// GetTrends returns the percentage breakdown of the requested period
func (h *SentimentHandler) GetTrends(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	since, until := window(h.now(), period)
	trends, err := h.service.Trends(r.Context(), since, until)
	if err != nil {
		respondWithServiceError(w, "Failed to get sentiment trends", err)
		return
	}

	respondWithJSON(w, http.StatusOK, trends)
}
