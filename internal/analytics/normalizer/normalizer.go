// Package normalizer cleans and tokenizes raw review text into the
// NormalizedDocument consumed by the sentiment and feature stages.
//
// Normalization is pure and deterministic: all state (stopword set, locale,
// preserved cue tokens) is fixed at construction time and never mutated, so a
// single Normalizer is safe to share across concurrent per-document workers.
package normalizer

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/bbalet/stopwords"
)

// Document is the normalized form of one review: a token sequence plus the
// character length of the cleaned text.  It back-references the source review
// by id without owning it.
type Document struct {
	ReviewID string
	Tokens   []string
	CharLen  int
}

// Empty reports whether normalization produced no tokens, which downstream
// stages must tolerate (neutral sentiment, zero-weight feature vector).
func (d Document) Empty() bool { return len(d.Tokens) == 0 }

// Config carries the fixed normalization settings.
type Config struct {
	// Locale selects the stopword list when Stopwords is nil.  ISO 639-1.
	Locale string

	// Stopwords, when non-nil, replaces the locale stopword list entirely.
	Stopwords map[string]struct{}

	// Preserve exempts tokens from stopword removal.  The pipeline passes
	// the sentiment cue tokens (negations, intensifiers) here so that the
	// scorer still sees them.
	Preserve map[string]struct{}

	// Stemming enables light suffix stemming of the surviving tokens.
	Stemming bool
}

// Normalizer converts raw review text to Documents.
type Normalizer struct {
	cfg Config
}

// htmlTag matches markup fragments that survive in scraped review dumps.
var htmlTag = regexp.MustCompile(`<[^>]*>|&[a-z]+;|&#\d+;`)

// New constructs a Normalizer.  An empty Locale defaults to "en".
func New(cfg Config) *Normalizer {
	if cfg.Locale == "" {
		cfg.Locale = "en"
	}
	return &Normalizer{cfg: cfg}
}

// Normalize produces the Document for one review's raw text.  Empty or
// whitespace-only input yields an empty token sequence, never an error.
func (n *Normalizer) Normalize(reviewID, raw string) Document {
	cleaned := n.clean(raw)
	tokens := tokenize(cleaned)
	tokens = n.filterStopwords(tokens)
	if n.cfg.Stemming {
		for i, tok := range tokens {
			tokens[i] = Stem(tok)
		}
	}
	return Document{ReviewID: reviewID, Tokens: tokens, CharLen: len(cleaned)}
}

// clean lowercases the text, strips HTML artifacts, and removes control
// characters while preserving whitespace.
func (n *Normalizer) clean(text string) string {
	text = strings.ToLower(text)
	text = htmlTag.ReplaceAllString(text, " ")

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r == 0 || r == 0xFFFD:
			continue
		case unicode.IsControl(r) && !unicode.IsSpace(r):
			continue
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// tokenize splits on anything that is not a letter, digit, or intra-word
// apostrophe.  Standalone punctuation never becomes a token.
func tokenize(text string) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tok := strings.Trim(cur.String(), "'")
			if tok != "" {
				tokens = append(tokens, tok)
			}
			cur.Reset()
		}
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' {
			cur.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return tokens
}

// filterStopwords removes stopwords from the token sequence, exempting any
// preserved cue tokens.  With an explicit set configured the set is
// authoritative; otherwise the locale list from the stopwords package is
// consulted one token at a time, which keeps removal independent of token
// order.
func (n *Normalizer) filterStopwords(tokens []string) []string {
	if len(tokens) == 0 {
		return tokens
	}
	out := tokens[:0]
	for _, tok := range tokens {
		if _, keep := n.cfg.Preserve[tok]; keep {
			out = append(out, tok)
			continue
		}
		if n.isStopword(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func (n *Normalizer) isStopword(tok string) bool {
	if n.cfg.Stopwords != nil {
		_, ok := n.cfg.Stopwords[tok]
		return ok
	}
	// CleanString returns " " for input consisting solely of stopwords.
	return strings.TrimSpace(stopwords.CleanString(tok, n.cfg.Locale, false)) == ""
}
