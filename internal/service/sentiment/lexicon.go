// internal/service/sentiment/lexicon.go

package sentiment

// Lexicon holds the word categories used by the scorer
type Lexicon struct {
	Positive     []string `json:"positive"`
	Negative     []string `json:"negative"`
	Intensifiers []string `json:"intensifiers"`
	Negators     []string `json:"negators"`
}

// DefaultLexicon returns the built-in community lexicon
func DefaultLexicon() Lexicon {
	return Lexicon{
		Positive: []string{
			"good", "great", "excellent", "amazing", "awesome", "wonderful",
			"fantastic", "love", "like", "happy", "best", "beautiful", "perfect",
			"nice", "helpful", "enjoy", "enjoyed", "glad", "thanks", "thank",
			"brilliant", "positive", "fun", "friendly", "welcome", "support",
			"agree", "useful", "cool", "excited", "proud", "recommend",
		},
		Negative: []string{
			"bad", "terrible", "awful", "horrible", "hate", "worst", "sad",
			"angry", "poor", "disappointing", "disappointed", "ugly", "boring",
			"annoying", "problem", "fail", "failed", "wrong", "negative",
			"broken", "useless", "rude", "toxic", "spam", "scam", "disagree",
			"upset", "worse", "dangerous", "unsafe",
		},
		Intensifiers: []string{
			"very", "really", "extremely", "incredibly", "absolutely",
			"totally", "completely", "so", "super", "highly",
		},
		Negators: []string{
			"not", "no", "never", "neither", "nor", "none", "nobody", "nothing",
			"don't", "doesn't", "didn't", "isn't", "wasn't", "aren't", "can't",
			"won't", "cannot",
		},
	}
}

type wordSet map[string]struct{}

func newWordSet(words []string) wordSet {
	set := make(wordSet, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func (s wordSet) has(word string) bool {
	_, ok := s[word]
	return ok
}
