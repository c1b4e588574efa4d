// internal/service/mlmodel/params.go

package mlmodel

import (
	"fmt"

	"pulse/internal/domain/analytics"
	"pulse/internal/service/sentiment"
)

// ParamsKind tags which parameter set a model carries
type ParamsKind string

const (
	KindLexicon ParamsKind = "lexicon"
	KindLinear  ParamsKind = "linear"
)

// LexiconParams parameterize a lexicon sentiment model
type LexiconParams struct {
	Lexicon   sentiment.Lexicon `json:"lexicon"`
	Threshold float64           `json:"threshold"`
}

// LinearParams parameterize a linear trend model
type LinearParams struct {
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	// Placeholder marks coefficients that were not fitted to data
	Placeholder bool `json:"placeholder"`
}

// Params is the typed parameter object of a stored model. Exactly one of the
// kind-specific fields is set, matching Kind.
type Params struct {
	Kind    ParamsKind
	Lexicon *LexiconParams
	Linear  *LinearParams
}

// NewLexiconParams wraps lexicon parameters
func NewLexiconParams(p LexiconParams) Params {
	return Params{Kind: KindLexicon, Lexicon: &p}
}

// NewLinearParams wraps linear parameters
func NewLinearParams(p LinearParams) Params {
	return Params{Kind: KindLinear, Linear: &p}
}

// Validate checks that the kind tag matches the populated field
func (p Params) Validate() error {
	switch p.Kind {
	case KindLexicon:
		if p.Lexicon == nil {
			return fmt.Errorf("lexicon params missing: %w", analytics.ErrInvalidInput)
		}
	case KindLinear:
		if p.Linear == nil {
			return fmt.Errorf("linear params missing: %w", analytics.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("unknown params kind %q: %w", p.Kind, analytics.ErrInvalidInput)
	}
	return nil
}

// kindFor returns the params kind a model type must carry
func kindFor(modelType analytics.ModelType) (ParamsKind, error) {
	switch modelType {
	case analytics.ModelSentiment:
		return KindLexicon, nil
	case analytics.ModelTrend:
		return KindLinear, nil
	default:
		return "", fmt.Errorf("%w: %s", analytics.ErrUnsupportedModelType, modelType)
	}
}
