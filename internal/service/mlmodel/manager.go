// internal/service/mlmodel/manager.go

package mlmodel

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pulse/internal/domain/analytics"
	"pulse/internal/logging"
	"pulse/internal/metrics"
	"pulse/internal/service/sentiment"
)

// defaultTrendConfidence is reported by trend models without a stored confidence
const defaultTrendConfidence = 0.5

// ManagerConfig contains configuration for the model manager
type ManagerConfig struct {
	EventsTopic string
	// TrendFeatureCount is used when trend training examples carry no features
	TrendFeatureCount int
}

// StoreRequest describes a model to persist
type StoreRequest struct {
	Name             string
	Type             analytics.ModelType
	Version          string
	Params           Params
	Metadata         map[string]interface{}
	Metrics          map[string]float64
	TrainingDataHash string
}

// SentimentExample is one labelled text used to train a sentiment model
type SentimentExample struct {
	Text  string                   `json:"text"`
	Label analytics.SentimentLabel `json:"label,omitempty"`
}

// TrendExample is one feature vector and target used to train a trend model
type TrendExample struct {
	Features []float64 `json:"features"`
	Target   float64   `json:"target"`
}

// PredictionInput is the input to a stored model. Sentiment models read Text,
// trend models read Features.
type PredictionInput struct {
	Text     string    `json:"text,omitempty"`
	Features []float64 `json:"features,omitempty"`
}

// PredictionResult is the output of a stored model
type PredictionResult struct {
	ModelID    string                   `json:"model_id"`
	Input      PredictionInput          `json:"input"`
	Prediction float64                  `json:"prediction"`
	Label      analytics.SentimentLabel `json:"label,omitempty"`
	Confidence float64                  `json:"confidence"`
	Metadata   map[string]interface{}   `json:"metadata"`
}

// Manager runs the train, store, activate and predict lifecycle of models
type Manager struct {
	store    analytics.ModelRepository
	eventBus analytics.EventPublisher
	config   ManagerConfig
	logger   zerolog.Logger
	now      func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewManager creates a new model manager. eventBus may be nil; a nil rng is
// seeded from the clock.
func NewManager(
	store analytics.ModelRepository,
	eventBus analytics.EventPublisher,
	rng *rand.Rand,
	config ManagerConfig,
) *Manager {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if config.TrendFeatureCount <= 0 {
		config.TrendFeatureCount = 3
	}

	return &Manager{
		store:    store,
		eventBus: eventBus,
		config:   config,
		logger:   logging.Component("models"),
		now:      time.Now,
		rng:      rng,
	}
}

// Store serializes params and persists an inactive model, returning its ID
func (m *Manager) Store(ctx context.Context, req StoreRequest) (string, error) {
	if req.Name == "" || req.Version == "" {
		return "", fmt.Errorf("model name and version are required: %w", analytics.ErrInvalidInput)
	}
	if !req.Type.Valid() {
		return "", fmt.Errorf("unknown model type %q: %w", req.Type, analytics.ErrInvalidInput)
	}
	if kind, err := kindFor(req.Type); err == nil && req.Params.Kind != kind {
		return "", fmt.Errorf("%s models need %s params, got %q: %w", req.Type, kind, req.Params.Kind, analytics.ErrInvalidInput)
	}

	data, err := Encode(req.Params)
	if err != nil {
		return "", fmt.Errorf("error encoding model params: %w", err)
	}

	now := m.now().UTC()
	model := analytics.MLModel{
		ID:                 uuid.New().String(),
		ModelName:          req.Name,
		ModelType:          req.Type,
		ModelVersion:       req.Version,
		ModelData:          data,
		ModelMetadata:      req.Metadata,
		PerformanceMetrics: req.Metrics,
		TrainingDataHash:   req.TrainingDataHash,
		IsActive:           false,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if model.ModelMetadata == nil {
		model.ModelMetadata = map[string]interface{}{}
	}
	if model.PerformanceMetrics == nil {
		model.PerformanceMetrics = map[string]float64{}
	}

	if err := m.store.InsertModel(ctx, model); err != nil {
		return "", fmt.Errorf("error storing model: %w", err)
	}

	m.logger.Info().
		Str("model_id", model.ID).
		Str("model_type", string(model.ModelType)).
		Str("model_version", model.ModelVersion).
		Msg("model stored")

	return model.ID, nil
}

// GetModels lists models of a type, all types when modelType is empty, newest first
func (m *Manager) GetModels(ctx context.Context, modelType analytics.ModelType) ([]analytics.MLModel, error) {
	models, err := m.store.ListModels(ctx, modelType)
	if err != nil {
		return nil, fmt.Errorf("error listing models: %w", err)
	}
	return models, nil
}

// GetActiveModel returns the active model of a type, or nil when none is active
func (m *Manager) GetActiveModel(ctx context.Context, modelType analytics.ModelType) (*analytics.MLModel, error) {
	model, err := m.store.GetActiveModel(ctx, modelType)
	if err != nil {
		return nil, fmt.Errorf("error fetching active model: %w", err)
	}
	return model, nil
}

// ActivateModel makes id the only active model of its type
func (m *Manager) ActivateModel(ctx context.Context, id string) error {
	if err := m.store.ActivateModel(ctx, id); err != nil {
		return fmt.Errorf("error activating model: %w", err)
	}

	model, err := m.store.GetModel(ctx, id)
	if err != nil {
		return fmt.Errorf("error fetching activated model: %w", err)
	}

	metrics.ModelActivations.WithLabelValues(string(model.ModelType)).Inc()
	m.logger.Info().Str("model_id", id).Str("model_type", string(model.ModelType)).Msg("model activated")

	if err := m.publish("models.activated", map[string]interface{}{
		"model_id":      model.ID,
		"model_type":    model.ModelType,
		"model_version": model.ModelVersion,
	}); err != nil {
		m.logger.Warn().Err(err).Msg("failed to publish activation event")
	}

	return nil
}

// UpdateMetrics replaces the performance metrics of a model
func (m *Manager) UpdateMetrics(ctx context.Context, id string, perf map[string]float64) error {
	if err := m.store.UpdateModelMetrics(ctx, id, perf); err != nil {
		return fmt.Errorf("error updating model metrics: %w", err)
	}
	return nil
}

// DeleteModel removes a model
func (m *Manager) DeleteModel(ctx context.Context, id string) error {
	if err := m.store.DeleteModel(ctx, id); err != nil {
		return fmt.Errorf("error deleting model: %w", err)
	}
	return nil
}

// TrainSentimentModel packages the built-in lexicon as a sentiment model,
// scores it against the labelled examples and stores it inactive
func (m *Manager) TrainSentimentModel(ctx context.Context, examples []SentimentExample) (string, error) {
	if len(examples) == 0 {
		return "", analytics.ErrEmptyTrainingData
	}

	lexicon := sentiment.DefaultLexicon()
	scorer := sentiment.NewScorer(lexicon)

	labelled, correct := 0, 0
	for _, ex := range examples {
		if ex.Label == "" {
			continue
		}
		labelled++
		if scorer.Score(ex.Text).Label == ex.Label {
			correct++
		}
	}

	perf := map[string]float64{"training_samples": float64(len(examples))}
	if labelled > 0 {
		perf["accuracy"] = float64(correct) / float64(labelled)
	}

	hash, err := hashTrainingData(examples)
	if err != nil {
		return "", err
	}

	return m.Store(ctx, StoreRequest{
		Name:    "lexicon_sentiment",
		Type:    analytics.ModelSentiment,
		Version: m.nextVersion(),
		Params: NewLexiconParams(LexiconParams{
			Lexicon:   lexicon,
			Threshold: analytics.LabelThreshold,
		}),
		Metadata: map[string]interface{}{
			"algorithm":      "lexicon",
			"positive_words": len(lexicon.Positive),
			"negative_words": len(lexicon.Negative),
		},
		Metrics:          perf,
		TrainingDataHash: hash,
	})
}

// TrainTrendModel stores a linear trend model.
//
// Placeholder fit: the coefficients are drawn at random rather than fitted to
// the examples. Confidence figures downstream assume this weak model.
func (m *Manager) TrainTrendModel(ctx context.Context, examples []TrendExample) (string, error) {
	if len(examples) == 0 {
		return "", analytics.ErrEmptyTrainingData
	}

	featureCount := len(examples[0].Features)
	if featureCount == 0 {
		featureCount = m.config.TrendFeatureCount
	}

	m.rngMu.Lock()
	coefficients := make([]float64, featureCount)
	for i := range coefficients {
		coefficients[i] = m.rng.Float64()
	}
	intercept := m.rng.Float64()
	m.rngMu.Unlock()

	hash, err := hashTrainingData(examples)
	if err != nil {
		return "", err
	}

	return m.Store(ctx, StoreRequest{
		Name:    "linear_trend",
		Type:    analytics.ModelTrend,
		Version: m.nextVersion(),
		Params: NewLinearParams(LinearParams{
			Coefficients: coefficients,
			Intercept:    intercept,
			Placeholder:  true,
		}),
		Metadata: map[string]interface{}{
			"algorithm":     "linear",
			"feature_count": featureCount,
			"fitted":        false,
		},
		Metrics:          map[string]float64{"training_samples": float64(len(examples))},
		TrainingDataHash: hash,
	})
}

// Predict runs input through the active model of modelType. It returns
// ErrNoActiveModel when no model of that type is active.
func (m *Manager) Predict(
	ctx context.Context,
	modelType analytics.ModelType,
	input PredictionInput,
) (*PredictionResult, error) {
	kind, err := kindFor(modelType)
	if err != nil {
		return nil, err
	}

	model, err := m.store.GetActiveModel(ctx, modelType)
	if err != nil {
		return nil, fmt.Errorf("error fetching active model: %w", err)
	}
	if model == nil {
		metrics.ModelPredictions.WithLabelValues(string(modelType), "no_model").Inc()
		return nil, fmt.Errorf("%w: %s", analytics.ErrNoActiveModel, modelType)
	}

	params, err := Decode(model.ModelData)
	if err != nil {
		return nil, fmt.Errorf("error decoding model %s: %w", model.ID, err)
	}
	if params.Kind != kind {
		return nil, fmt.Errorf("%w: model %s carries %s params", ErrCorruptModel, model.ID, params.Kind)
	}

	result := &PredictionResult{
		ModelID: model.ID,
		Input:   input,
		Metadata: map[string]interface{}{
			"model_name":    model.ModelName,
			"model_version": model.ModelVersion,
		},
	}

	switch kind {
	case KindLexicon:
		r := sentiment.NewScorer(params.Lexicon.Lexicon).Score(input.Text)
		result.Prediction = r.Score
		result.Label = r.Label
		result.Confidence = r.Confidence

	case KindLinear:
		result.Prediction = params.Linear.Apply(input.Features)
		result.Confidence = defaultTrendConfidence
		if c, ok := model.PerformanceMetrics["confidence"]; ok {
			result.Confidence = c
		}
		result.Metadata["placeholder"] = params.Linear.Placeholder
	}

	metrics.ModelPredictions.WithLabelValues(string(modelType), "ok").Inc()

	return result, nil
}

// BatchPredict applies Predict to each input in order, stopping at the first error
func (m *Manager) BatchPredict(
	ctx context.Context,
	modelType analytics.ModelType,
	inputs []PredictionInput,
) ([]PredictionResult, error) {
	results := make([]PredictionResult, 0, len(inputs))
	for i, input := range inputs {
		r, err := m.Predict(ctx, modelType, input)
		if err != nil {
			return nil, fmt.Errorf("error predicting input %d: %w", i, err)
		}
		results = append(results, *r)
	}
	return results, nil
}

// Apply evaluates the linear model. Features beyond the coefficients are
// ignored and missing features count as zero.
func (p LinearParams) Apply(features []float64) float64 {
	value := p.Intercept
	for i, c := range p.Coefficients {
		if i < len(features) {
			value += c * features[i]
		}
	}
	return value
}

func (m *Manager) nextVersion() string {
	return fmt.Sprintf("1.0.%d", m.now().UnixNano())
}

// hashTrainingData fingerprints a training set for provenance
func hashTrainingData(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("error marshaling training data: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func (m *Manager) publish(event string, payload interface{}) error {
	if m.eventBus == nil {
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshaling event: %w", err)
	}

	return m.eventBus.Publish(fmt.Sprintf("%s.%s", m.config.EventsTopic, event), data)
}
