// Package features builds sparse TF-IDF representations of normalized review
// documents over a capped, deterministically ordered n-gram vocabulary.
package features

import (
	"sort"
	"strings"
)

// Vocabulary maps n-gram terms to dense, 0-based feature indices.  It is
// built once per corpus by Extractor.Fit and immutable afterwards; every
// Vector produced in a run shares the same Vocabulary.
type Vocabulary struct {
	index map[string]int
	terms []string
}

// Len returns the number of terms in the vocabulary.
func (v *Vocabulary) Len() int { return len(v.terms) }

// Index returns the feature index for term and whether it is present.
func (v *Vocabulary) Index(term string) (int, bool) {
	i, ok := v.index[term]
	return i, ok
}

// Term returns the term at feature index i, or "" when out of range.
func (v *Vocabulary) Term(i int) string {
	if i < 0 || i >= len(v.terms) {
		return ""
	}
	return v.terms[i]
}

// Terms returns the terms in index order.  The returned slice is shared;
// callers must not mutate it.
func (v *Vocabulary) Terms() []string { return v.terms }

// newVocabulary selects up to maxSize terms from docFreq, keeping the highest
// document-frequency terms with lexicographic tie-breaks, then assigns dense
// indices in lexicographic order so that identical corpora always produce
// identical index assignments.
func newVocabulary(docFreq map[string]int, maxSize int) *Vocabulary {
	terms := make([]string, 0, len(docFreq))
	for t := range docFreq {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if docFreq[terms[i]] != docFreq[terms[j]] {
			return docFreq[terms[i]] > docFreq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if maxSize > 0 && len(terms) > maxSize {
		terms = terms[:maxSize]
	}
	sort.Strings(terms)

	v := &Vocabulary{
		index: make(map[string]int, len(terms)),
		terms: terms,
	}
	for i, t := range terms {
		v.index[t] = i
	}
	return v
}

// vocabularyFromTerms rebuilds a Vocabulary from terms already in index
// order, as stored in an exported extractor State.
func vocabularyFromTerms(terms []string) *Vocabulary {
	v := &Vocabulary{
		index: make(map[string]int, len(terms)),
		terms: append([]string(nil), terms...),
	}
	for i, t := range v.terms {
		v.index[t] = i
	}
	return v
}

// ngrams emits the space-joined n-grams of tokens for every n in [min, max].
func ngrams(tokens []string, min, max int) []string {
	if len(tokens) == 0 {
		return nil
	}
	var out []string
	for n := min; n <= max; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}
