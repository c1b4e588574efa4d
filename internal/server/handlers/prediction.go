// internal/server/handlers/prediction.go

package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pulse/internal/domain/analytics"
)

// PredictionService generates, lists and reconciles forecasts
type PredictionService interface {
	Generate(ctx context.Context, predictionType analytics.PredictionType, horizon analytics.Horizon) ([]analytics.TrendPrediction, error)
	List(ctx context.Context, q analytics.PredictionQuery) ([]analytics.TrendPrediction, error)
	Reconcile(ctx context.Context, id string, actual float64) (*analytics.TrendPrediction, error)
}

// PredictionHandler handles forecast HTTP requests
type PredictionHandler struct {
	service PredictionService
}

// NewPredictionHandler creates a new prediction handler
func NewPredictionHandler(service PredictionService) *PredictionHandler {
	return &PredictionHandler{
		service: service,
	}
}

type generateRequest struct {
	PredictionType analytics.PredictionType `json:"prediction_type"`
	Horizon        analytics.Horizon        `json:"horizon"`
}

// Generate forecasts a prediction type over a horizon
func (h *PredictionHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.Horizon == "" {
		req.Horizon = analytics.HorizonMedium
	}

	predictions, err := h.service.Generate(r.Context(), req.PredictionType, req.Horizon)
	if err != nil {
		respondWithServiceError(w, "Failed to generate predictions", err)
		return
	}

	respondWithJSON(w, http.StatusOK, predictions)
}

// ListPredictions returns stored predictions, optionally filtered by ?type=
func (h *PredictionHandler) ListPredictions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid limit", nil)
			return
		}
		limit = n
	}

	predictions, err := h.service.List(r.Context(), analytics.PredictionQuery{
		PredictionType: analytics.PredictionType(r.URL.Query().Get("type")),
		Limit:          limit,
	})
	if err != nil {
		respondWithServiceError(w, "Failed to list predictions", err)
		return
	}

	respondWithJSON(w, http.StatusOK, predictions)
}

type reconcileRequest struct {
	ActualValue *float64 `json:"actual_value"`
}

// Reconcile records the observed value of a prediction
func (h *PredictionHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "Missing prediction ID", nil)
		return
	}

	var req reconcileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ActualValue == nil {
		respondWithError(w, http.StatusBadRequest, "Missing actual_value", nil)
		return
	}

	prediction, err := h.service.Reconcile(r.Context(), id, *req.ActualValue)
	if err != nil {
		respondWithServiceError(w, "Failed to reconcile prediction", err)
		return
	}

	respondWithJSON(w, http.StatusOK, prediction)
}
