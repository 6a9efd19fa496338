package sentiment

import (
	"math"

	"github.com/turtacn/BrandPulse-Analytics/internal/analytics/normalizer"
	"github.com/turtacn/BrandPulse-Analytics/pkg/types/review"
)

const (
	// DefaultNegationWindow is how many tokens before a polarity term are
	// scanned for a negation cue.
	DefaultNegationWindow = 3

	// negationFactor flips and dampens a negated term: "not great" is
	// mildly negative, not the mirror image of "great".
	negationFactor = -0.5

	// modifierLookback bounds how far before a polarity term an
	// intensifier may sit and still apply.
	modifierLookback = 2

	// normAlpha controls how fast accumulated term scores saturate toward
	// the [-1, 1] bounds.
	normAlpha = 2.0
)

// Scorer maps normalized documents to polarity scores in [-1, 1].  It is
// stateless apart from its lexicon and safe for concurrent use.
type Scorer struct {
	lex    *Lexicon
	window int
}

// NewScorer builds a Scorer over lex.  A window < 1 falls back to
// DefaultNegationWindow.
func NewScorer(lex *Lexicon, window int) *Scorer {
	if window < 1 {
		window = DefaultNegationWindow
	}
	return &Scorer{lex: lex, window: window}
}

// LexiconVersion reports the version of the lexicon in use, recorded
// alongside trained models so scores stay reproducible.
func (s *Scorer) LexiconVersion() string { return s.lex.Version() }

// Score computes the polarity of a single normalized document.  An empty
// document, or one with no lexicon matches, scores exactly 0.
func (s *Scorer) Score(doc normalizer.Document) review.SentimentScore {
	return review.SentimentScore{
		ReviewID: doc.ReviewID,
		Polarity: s.polarity(doc.Tokens),
	}
}

// ScoreAll scores each document in order.  Output index i always corresponds
// to input index i.
func (s *Scorer) ScoreAll(docs []normalizer.Document) []review.SentimentScore {
	out := make([]review.SentimentScore, len(docs))
	for i, d := range docs {
		out[i] = s.Score(d)
	}
	return out
}

func (s *Scorer) polarity(tokens []string) float64 {
	var sum float64
	for i, tok := range tokens {
		p := s.lex.Polarity(tok)
		if p == 0 {
			continue
		}
		p *= 1 + s.modifier(tokens, i)
		if s.negated(tokens, i) {
			p *= negationFactor
		}
		sum += p
	}
	if sum == 0 {
		return 0
	}
	return clamp(sum / math.Sqrt(sum*sum+normAlpha))
}

// negated reports whether a negation cue occurs within the window before
// position i.
func (s *Scorer) negated(tokens []string, i int) bool {
	for j := i - 1; j >= 0 && j >= i-s.window; j-- {
		if s.lex.IsNegation(tokens[j]) {
			return true
		}
	}
	return false
}

// modifier returns the strongest intensifier factor within the lookback
// before position i.  Nearer cues win over farther ones.
func (s *Scorer) modifier(tokens []string, i int) float64 {
	for j := i - 1; j >= 0 && j >= i-modifierLookback; j-- {
		if f := s.lex.ModifierFactor(tokens[j]); f != 0 {
			return f
		}
	}
	return 0
}

func clamp(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	default:
		return v
	}
}
