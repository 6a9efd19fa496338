// Package sentiment assigns a bounded polarity score per review using a
// precompiled lexicon with negation and intensifier handling.  No training is
// involved: given the same normalized tokens and lexicon version the score is
// identical on every run.
package sentiment

import (
	"github.com/turtacn/BrandPulse-Analytics/internal/analytics/normalizer"
)

// DefaultLexiconVersion identifies the embedded patient-review lexicon.
const DefaultLexiconVersion = "drugreview-en-1"

// Lexicon is the immutable polarity table consulted by the Scorer.  Lookups
// go through the stemmed form of each entry so that the Scorer can consume
// stemmed normalizer output directly.
type Lexicon struct {
	version      string
	polarity     map[string]float64
	negations    map[string]struct{}
	intensifiers map[string]float64
}

// Version returns the lexicon version string recorded in training metadata.
func (l *Lexicon) Version() string { return l.version }

// Polarity returns the polarity weight for a (stemmed or raw) token.
// Unknown terms contribute zero, never an error.
func (l *Lexicon) Polarity(tok string) float64 {
	return l.polarity[normalizer.Stem(tok)]
}

// IsNegation reports whether tok is a negation cue.
func (l *Lexicon) IsNegation(tok string) bool {
	_, ok := l.negations[normalizer.Stem(tok)]
	return ok
}

// ModifierFactor returns the intensifier/diminisher factor for tok:
// positive values amplify the following polarity term, negative values
// dampen it, zero means tok is not a modifier.
func (l *Lexicon) ModifierFactor(tok string) float64 {
	return l.intensifiers[normalizer.Stem(tok)]
}

// CueTokens returns the raw-form negation and modifier cues that the
// normalizer must preserve through stopword removal so the Scorer still sees
// them.
func (l *Lexicon) CueTokens() map[string]struct{} {
	out := make(map[string]struct{}, len(rawNegations)+len(rawIntensifiers))
	for _, w := range rawNegations {
		out[w] = struct{}{}
	}
	for w := range rawIntensifiers {
		out[w] = struct{}{}
	}
	return out
}

// DefaultLexicon builds the embedded patient-review lexicon.  Entries are
// stored under their stemmed form at construction time; building the lexicon
// twice yields identical tables.
func DefaultLexicon() *Lexicon {
	l := &Lexicon{
		version:      DefaultLexiconVersion,
		polarity:     make(map[string]float64, len(rawPolarity)),
		negations:    make(map[string]struct{}, len(rawNegations)),
		intensifiers: make(map[string]float64, len(rawIntensifiers)),
	}
	for term, weight := range rawPolarity {
		l.polarity[normalizer.Stem(term)] = weight
	}
	for _, term := range rawNegations {
		l.negations[normalizer.Stem(term)] = struct{}{}
	}
	for term, factor := range rawIntensifiers {
		l.intensifiers[normalizer.Stem(term)] = factor
	}
	return l
}

// rawPolarity is the embedded polarity table, weighted for the patient
// drug-review domain: efficacy and relief terms score positive, adverse
// reaction vocabulary scores negative.
var rawPolarity = map[string]float64{
	// efficacy / relief
	"relief":      0.9,
	"relieved":    0.9,
	"effective":   0.8,
	"works":       0.7,
	"worked":      0.7,
	"helping":     0.6,
	"helped":      0.6,
	"improvement": 0.7,
	"improved":    0.7,
	"better":      0.6,
	"great":       0.8,
	"excellent":   0.9,
	"amazing":     0.9,
	"wonderful":   0.9,
	"good":        0.5,
	"happy":       0.6,
	"recommend":   0.7,
	"tolerable":   0.3,
	"manageable":  0.3,
	"cured":       0.9,
	"painless":    0.6,
	"comfortable": 0.5,
	"safe":        0.4,

	// adverse reactions / dissatisfaction
	"nausea":       -0.8,
	"vomiting":     -0.8,
	"dizziness":    -0.6,
	"dizzy":        -0.6,
	"headache":     -0.5,
	"migraine":     -0.6,
	"rash":         -0.6,
	"itching":      -0.5,
	"fatigue":      -0.5,
	"insomnia":     -0.6,
	"drowsy":       -0.4,
	"drowsiness":   -0.4,
	"pain":         -0.6,
	"painful":      -0.7,
	"severe":       -0.7,
	"terrible":     -0.9,
	"horrible":     -0.9,
	"awful":        -0.9,
	"worst":        -1.0,
	"worse":        -0.8,
	"bad":          -0.5,
	"useless":      -0.8,
	"ineffective":  -0.8,
	"stopped":      -0.4,
	"quit":         -0.5,
	"discontinued": -0.5,
	"unbearable":   -0.9,
	"weight":       -0.2,
	"depression":   -0.6,
	"anxiety":      -0.5,
	"swelling":     -0.5,
	"bleeding":     -0.7,
	"allergic":     -0.6,
	"reaction":     -0.3,
	"emergency":    -0.8,
	"hospital":     -0.5,
}

// rawNegations are the tokens that flip-and-dampen the following polarity
// term within the scorer's window.
var rawNegations = []string{
	"not", "no", "never", "without", "none", "nothing",
	"didn't", "doesn't", "don't", "wasn't", "isn't", "couldn't", "can't",
	"won't", "haven't", "hasn't", "hardly", "barely",
}

// rawIntensifiers amplify (positive factor) or dampen (negative factor) the
// following polarity term.
var rawIntensifiers = map[string]float64{
	"very":       0.3,
	"extremely":  0.5,
	"really":     0.3,
	"incredibly": 0.5,
	"totally":    0.4,
	"completely": 0.4,
	"absolutely": 0.5,
	"so":         0.2,
	"quite":      0.1,
	"slightly":   -0.3,
	"somewhat":   -0.2,
	"mildly":     -0.3,
	"little":     -0.2,
}
