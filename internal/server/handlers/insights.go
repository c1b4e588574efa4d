// internal/server/handlers/insights.go

package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pulse/internal/domain/analytics"
	"pulse/internal/service/insights"
)

// InsightsService composes and persists community insight reports
type InsightsService interface {
	GetInsights(ctx context.Context, cfg analytics.InsightsConfig) (*analytics.CommunityInsights, error)
	Store(ctx context.Context, report *analytics.CommunityInsights) error
	History(ctx context.Context, since, until time.Time) ([]analytics.MetricSample, error)
}

// InsightsHandler handles insight report HTTP requests
type InsightsHandler struct {
	service InsightsService
	now     func() time.Time
}

// NewInsightsHandler creates a new insights handler
func NewInsightsHandler(service InsightsService) *InsightsHandler {
	return &InsightsHandler{
		service: service,
		now:     time.Now,
	}
}

// GetInsights returns a report for the requested period, scope and sections
func (h *InsightsHandler) GetInsights(w http.ResponseWriter, r *http.Request) {
	cfg, err := parseInsightsConfig(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid insights request", err)
		return
	}

	report, err := h.service.GetInsights(r.Context(), cfg)
	if err != nil {
		respondWithServiceError(w, "Failed to get insights", err)
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}

// StoreInsights computes a report and persists its headline metrics
func (h *InsightsHandler) StoreInsights(w http.ResponseWriter, r *http.Request) {
	cfg, err := parseInsightsConfig(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid insights request", err)
		return
	}

	report, err := h.service.GetInsights(r.Context(), cfg)
	if err != nil {
		respondWithServiceError(w, "Failed to get insights", err)
		return
	}

	if err := h.service.Store(r.Context(), report); err != nil {
		respondWithServiceError(w, "Failed to store insights", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, report)
}

// GetHistory returns stored report metrics between since and until
func (h *InsightsHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	now := h.now().UTC()

	since, err := parseTime(r, "since", now.Add(-analytics.PeriodMonthly.Duration()))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid since", err)
		return
	}
	until, err := parseTime(r, "until", now)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid until", err)
		return
	}
	if !since.Before(until) {
		respondWithError(w, http.StatusBadRequest, "since must be before until", nil)
		return
	}

	samples, err := h.service.History(r.Context(), since, until)
	if err != nil {
		respondWithServiceError(w, "Failed to get insights history", err)
		return
	}

	respondWithJSON(w, http.StatusOK, samples)
}

// Export returns a report serialized as JSON or CSV
func (h *InsightsHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := insights.ExportFormat(strings.ToLower(r.URL.Query().Get("format")))
	if format == "" {
		format = insights.FormatJSON
	}
	if format != insights.FormatJSON && format != insights.FormatCSV {
		respondWithError(w, http.StatusBadRequest, "Unknown export format", nil)
		return
	}

	cfg, err := parseInsightsConfig(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid insights request", err)
		return
	}

	report, err := h.service.GetInsights(r.Context(), cfg)
	if err != nil {
		respondWithServiceError(w, "Failed to get insights", err)
		return
	}

	data, err := insights.Export(report, format)
	if err != nil {
		respondWithServiceError(w, "Failed to export insights", err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", "attachment; filename=insights."+string(format))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// parseInsightsConfig reads period, enabled and scope query parameters.
// Scope keys are passed as geo.<key>=<value> and demo.<key>=<value>. An
// absent enabled parameter requests every section.
func parseInsightsConfig(r *http.Request) (analytics.InsightsConfig, error) {
	period, err := parsePeriod(r)
	if err != nil {
		return analytics.InsightsConfig{}, err
	}

	cfg := analytics.InsightsConfig{
		TimePeriod:      period,
		EnabledInsights: analytics.AllInsightKinds,
	}

	if enabled := r.URL.Query().Get("enabled"); enabled != "" {
		cfg.EnabledInsights = nil
		for _, name := range strings.Split(enabled, ",") {
			kind := analytics.InsightKind(strings.TrimSpace(name))
			if !knownInsight(kind) {
				return analytics.InsightsConfig{}, fmt.Errorf("unknown insight %q: %w", kind, analytics.ErrInvalidInput)
			}
			cfg.EnabledInsights = append(cfg.EnabledInsights, kind)
		}
	}

	for key, values := range r.URL.Query() {
		if len(values) == 0 {
			continue
		}
		switch {
		case strings.HasPrefix(key, "geo."):
			if cfg.Scope.Geographic == nil {
				cfg.Scope.Geographic = map[string]string{}
			}
			cfg.Scope.Geographic[strings.TrimPrefix(key, "geo.")] = values[0]
		case strings.HasPrefix(key, "demo."):
			if cfg.Scope.Demographic == nil {
				cfg.Scope.Demographic = map[string]string{}
			}
			cfg.Scope.Demographic[strings.TrimPrefix(key, "demo.")] = values[0]
		}
	}

	return cfg, nil
}

func knownInsight(kind analytics.InsightKind) bool {
	for _, k := range analytics.AllInsightKinds {
		if k == kind {
			return true
		}
	}
	return false
}
