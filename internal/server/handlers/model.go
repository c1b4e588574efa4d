// internal/server/handlers/model.go

package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pulse/internal/domain/analytics"
	"pulse/internal/service/mlmodel"
)

// ModelManager stores, trains, activates and serves models
type ModelManager interface {
	Store(ctx context.Context, req mlmodel.StoreRequest) (string, error)
	GetModels(ctx context.Context, modelType analytics.ModelType) ([]analytics.MLModel, error)
	GetActiveModel(ctx context.Context, modelType analytics.ModelType) (*analytics.MLModel, error)
	ActivateModel(ctx context.Context, id string) error
	UpdateMetrics(ctx context.Context, id string, perf map[string]float64) error
	DeleteModel(ctx context.Context, id string) error
	TrainSentimentModel(ctx context.Context, examples []mlmodel.SentimentExample) (string, error)
	TrainTrendModel(ctx context.Context, examples []mlmodel.TrendExample) (string, error)
	Predict(ctx context.Context, modelType analytics.ModelType, input mlmodel.PredictionInput) (*mlmodel.PredictionResult, error)
	BatchPredict(ctx context.Context, modelType analytics.ModelType, inputs []mlmodel.PredictionInput) ([]mlmodel.PredictionResult, error)
}

// ModelHandler handles model lifecycle HTTP requests
type ModelHandler struct {
	manager ModelManager
}

// NewModelHandler creates a new model handler
func NewModelHandler(manager ModelManager) *ModelHandler {
	return &ModelHandler{
		manager: manager,
	}
}

type storeModelRequest struct {
	Name               string                 `json:"model_name"`
	Type               analytics.ModelType    `json:"model_type"`
	Version            string                 `json:"model_version"`
	Params             paramsRequest          `json:"params"`
	Metadata           map[string]interface{} `json:"model_metadata"`
	PerformanceMetrics map[string]float64     `json:"performance_metrics"`
	TrainingDataHash   string                 `json:"training_data_hash"`
}

type paramsRequest struct {
	Kind    mlmodel.ParamsKind     `json:"kind"`
	Lexicon *mlmodel.LexiconParams `json:"lexicon,omitempty"`
	Linear  *mlmodel.LinearParams  `json:"linear,omitempty"`
}

type modelIDResponse struct {
	ModelID string `json:"model_id"`
}

// StoreModel persists a model from explicit parameters
func (h *ModelHandler) StoreModel(w http.ResponseWriter, r *http.Request) {
	var req storeModelRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	id, err := h.manager.Store(r.Context(), mlmodel.StoreRequest{
		Name:    req.Name,
		Type:    req.Type,
		Version: req.Version,
		Params: mlmodel.Params{
			Kind:    req.Params.Kind,
			Lexicon: req.Params.Lexicon,
			Linear:  req.Params.Linear,
		},
		Metadata:         req.Metadata,
		Metrics:          req.PerformanceMetrics,
		TrainingDataHash: req.TrainingDataHash,
	})
	if err != nil {
		respondWithServiceError(w, "Failed to store model", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, modelIDResponse{ModelID: id})
}

// ListModels returns models, optionally filtered by ?type=
func (h *ModelHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	models, err := h.manager.GetModels(r.Context(), analytics.ModelType(r.URL.Query().Get("type")))
	if err != nil {
		respondWithServiceError(w, "Failed to list models", err)
		return
	}

	respondWithJSON(w, http.StatusOK, models)
}

// GetActiveModel returns the active model of a type
func (h *ModelHandler) GetActiveModel(w http.ResponseWriter, r *http.Request) {
	modelType := analytics.ModelType(chi.URLParam(r, "type"))

	model, err := h.manager.GetActiveModel(r.Context(), modelType)
	if err != nil {
		respondWithServiceError(w, "Failed to get active model", err)
		return
	}
	if model == nil {
		respondWithError(w, http.StatusNotFound, "No active model", nil)
		return
	}

	respondWithJSON(w, http.StatusOK, model)
}

// ActivateModel makes a model the active one of its type
func (h *ModelHandler) ActivateModel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.manager.ActivateModel(r.Context(), id); err != nil {
		respondWithServiceError(w, "Failed to activate model", err)
		return
	}

	respondWithJSON(w, http.StatusOK, modelIDResponse{ModelID: id})
}

// UpdateMetrics replaces a model's performance metrics
func (h *ModelHandler) UpdateMetrics(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var perf map[string]float64
	if err := decodeJSON(w, r, &perf); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.manager.UpdateMetrics(r.Context(), id, perf); err != nil {
		respondWithServiceError(w, "Failed to update model metrics", err)
		return
	}

	respondWithJSON(w, http.StatusOK, modelIDResponse{ModelID: id})
}

// DeleteModel removes a model
func (h *ModelHandler) DeleteModel(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.DeleteModel(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondWithServiceError(w, "Failed to delete model", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type trainSentimentRequest struct {
	TrainingData []mlmodel.SentimentExample `json:"training_data"`
}

// TrainSentiment builds and stores a lexicon sentiment model
func (h *ModelHandler) TrainSentiment(w http.ResponseWriter, r *http.Request) {
	var req trainSentimentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	id, err := h.manager.TrainSentimentModel(r.Context(), req.TrainingData)
	if err != nil {
		respondWithServiceError(w, "Failed to train sentiment model", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, modelIDResponse{ModelID: id})
}

type trainTrendRequest struct {
	TrainingData []mlmodel.TrendExample `json:"training_data"`
}

// TrainTrend builds and stores a linear trend model
func (h *ModelHandler) TrainTrend(w http.ResponseWriter, r *http.Request) {
	var req trainTrendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	id, err := h.manager.TrainTrendModel(r.Context(), req.TrainingData)
	if err != nil {
		respondWithServiceError(w, "Failed to train trend model", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, modelIDResponse{ModelID: id})
}

// Predict runs one input through the active model of a type
func (h *ModelHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var input mlmodel.PredictionInput
	if err := decodeJSON(w, r, &input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.manager.Predict(r.Context(), analytics.ModelType(chi.URLParam(r, "type")), input)
	if err != nil {
		respondWithServiceError(w, "Failed to predict", err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

type batchPredictRequest struct {
	Inputs []mlmodel.PredictionInput `json:"inputs"`
}

// BatchPredict runs several inputs through the active model of a type
func (h *ModelHandler) BatchPredict(w http.ResponseWriter, r *http.Request) {
	var req batchPredictRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	results, err := h.manager.BatchPredict(r.Context(), analytics.ModelType(chi.URLParam(r, "type")), req.Inputs)
	if err != nil {
		respondWithServiceError(w, "Failed to predict", err)
		return
	}

	respondWithJSON(w, http.StatusOK, results)
}
