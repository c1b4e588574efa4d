// internal/service/sentiment/scorer.go

package sentiment

import (
	"math"
	"strings"
	"unicode/utf8"

	"pulse/internal/domain/analytics"
)

// intensifierStep is the per-occurrence boost applied by intensifiers
const intensifierStep = 0.3

// Result is the outcome of scoring one text
type Result struct {
	Score      float64                  `json:"score"`
	Label      analytics.SentimentLabel `json:"label"`
	Confidence float64                  `json:"confidence"`
}

// Scorer scores text against a lexicon
type Scorer struct {
	positive     wordSet
	negative     wordSet
	intensifiers wordSet
	negators     wordSet
}

// NewScorer creates a scorer for the given lexicon
func NewScorer(lexicon Lexicon) *Scorer {
	return &Scorer{
		positive:     newWordSet(lexicon.Positive),
		negative:     newWordSet(lexicon.Negative),
		intensifiers: newWordSet(lexicon.Intensifiers),
		negators:     newWordSet(lexicon.Negators),
	}
}

// Score returns a sentiment score in [-1, 1] with its label and confidence.
//
// The scan is order dependent: an intensifier scales the running total by
// 1 + 0.3*k where k is the number of intensifiers seen so far, and a negator
// flips the sign of the running total at the point it appears.
func (s *Scorer) Score(text string) Result {
	tokens := strings.Fields(strings.ToLower(text))

	score := 0.0
	wordCount := 0
	intensifierCount := 0

	for _, token := range tokens {
		switch {
		case s.positive.has(token):
			score++
			wordCount++
		case s.negative.has(token):
			score--
			wordCount++
		case s.intensifiers.has(token):
			intensifierCount++
			score *= 1 + float64(intensifierCount)*intensifierStep
		case s.negators.has(token):
			score *= -1
		}
	}

	normalized := clamp(score/float64(max(wordCount, 1)), -1, 1)

	return Result{
		Score:      normalized,
		Label:      analytics.LabelFor(normalized),
		Confidence: confidence(text, normalized, len(tokens)),
	}
}

// confidence grows with text length, score magnitude and token count
func confidence(text string, score float64, tokenCount int) float64 {
	c := 0.5

	length := utf8.RuneCountInString(text)
	if length > 50 {
		c += 0.2
	}
	if length > 100 {
		c += 0.1
	}

	c += math.Abs(score) * 0.3

	if tokenCount > 10 {
		c += 0.1
	}

	return clamp(c, 0.1, 1.0)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
