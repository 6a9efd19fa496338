package features

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/turtacn/BrandPulse-Analytics/internal/analytics/normalizer"
	"github.com/turtacn/BrandPulse-Analytics/pkg/errors"
)

// Default extraction parameters.
const (
	DefaultNGramMin     = 1
	DefaultNGramMax     = 3
	DefaultMaxVocabSize = 20000

	// maxSupportedNGram bounds the n-gram order the extractor accepts.
	maxSupportedNGram = 3
)

// Vector is a sparse feature vector: vocabulary index to TF-IDF weight.
// Absent indices carry weight zero.
type Vector map[int]float64

// Config controls n-gram extraction and vocabulary capping.
type Config struct {
	NGramMin     int
	NGramMax     int
	MaxVocabSize int
}

// DefaultConfig returns the extraction defaults: uni- through trigrams with
// a 20000-term vocabulary cap.
func DefaultConfig() Config {
	return Config{
		NGramMin:     DefaultNGramMin,
		NGramMax:     DefaultNGramMax,
		MaxVocabSize: DefaultMaxVocabSize,
	}
}

// Validate fails fast on incoherent extraction parameters.
func (c Config) Validate() error {
	if c.NGramMin < 1 {
		return errors.NewConfigurationError("ngram_range", "minimum n-gram order must be >= 1")
	}
	if c.NGramMax < c.NGramMin {
		return errors.NewConfigurationError("ngram_range", "minimum n-gram order exceeds maximum")
	}
	if c.NGramMax > maxSupportedNGram {
		return errors.NewConfigurationError("ngram_range", "n-gram order above 3 is not supported")
	}
	if c.MaxVocabSize < 1 {
		return errors.NewConfigurationError("max_vocab_size", "vocabulary cap must be >= 1")
	}
	return nil
}

// Extractor builds a Vocabulary from a corpus and transforms documents into
// L2-normalized TF-IDF vectors.  Fit is a single-writer, whole-corpus
// operation; after it returns, Transform is read-only and safe to call from
// multiple goroutines.
type Extractor struct {
	cfg   Config
	vocab *Vocabulary
	idf   []float64
}

// NewExtractor returns an unfitted Extractor.  Config errors surface from
// Fit, not here, so construction never fails.
func NewExtractor(cfg Config) *Extractor {
	return &Extractor{cfg: cfg}
}

// Vocabulary returns the fitted vocabulary, or nil before Fit.
func (e *Extractor) Vocabulary() *Vocabulary { return e.vocab }

// IDF returns the inverse document frequency for feature index i.
func (e *Extractor) IDF(i int) float64 {
	if i < 0 || i >= len(e.idf) {
		return 0
	}
	return e.idf[i]
}

// Fit builds the vocabulary and IDF table over corpus.  A zero-document
// corpus is an EmptyCorpusError; documents with no tokens are valid and
// simply contribute nothing.
func (e *Extractor) Fit(corpus []normalizer.Document) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	if len(corpus) == 0 {
		return errors.NewEmptyCorpusError("features.fit")
	}

	docFreq := make(map[string]int)
	for _, doc := range corpus {
		seen := make(map[string]struct{})
		for _, g := range ngrams(doc.Tokens, e.cfg.NGramMin, e.cfg.NGramMax) {
			if _, ok := seen[g]; ok {
				continue
			}
			seen[g] = struct{}{}
			docFreq[g]++
		}
	}

	e.vocab = newVocabulary(docFreq, e.cfg.MaxVocabSize)

	n := float64(len(corpus))
	e.idf = make([]float64, e.vocab.Len())
	for i, term := range e.vocab.Terms() {
		df := float64(docFreq[term])
		e.idf[i] = math.Log((n+1)/(df+1)) + 1
	}
	return nil
}

// Transform maps a single document onto the fitted vocabulary.  Terms outside
// the vocabulary are ignored; an empty document yields an empty Vector.
// Transform must not be called before Fit.
func (e *Extractor) Transform(doc normalizer.Document) Vector {
	vec := make(Vector)
	if e.vocab == nil {
		return vec
	}
	for _, g := range ngrams(doc.Tokens, e.cfg.NGramMin, e.cfg.NGramMax) {
		if i, ok := e.vocab.Index(g); ok {
			vec[i]++
		}
	}
	if len(vec) == 0 {
		return vec
	}
	for i := range vec {
		vec[i] *= e.idf[i]
	}
	normalizeL2(vec)
	return vec
}

// State is the serializable fitted state of an Extractor: the extraction
// settings, the retained terms in index order, and the aligned IDF table.
// It is what a model artifact stores so later scoring runs reproduce the
// training-time feature space exactly.
type State struct {
	Config Config    `json:"config"`
	Terms  []string  `json:"terms"`
	IDF    []float64 `json:"idf"`
}

// State exports the fitted state.  Calling it before Fit is an error.
func (e *Extractor) State() (State, error) {
	if e.vocab == nil {
		return State{}, errors.NewInvalidInputError("extractor is not fitted")
	}
	return State{Config: e.cfg, Terms: e.vocab.Terms(), IDF: e.idf}, nil
}

// Restore rebuilds a fitted Extractor from a previously exported State.
func Restore(s State) (*Extractor, error) {
	if err := s.Config.Validate(); err != nil {
		return nil, err
	}
	if len(s.Terms) == 0 || len(s.Terms) != len(s.IDF) {
		return nil, errors.NewInvalidInputError("extractor state has mismatched terms and idf")
	}
	return &Extractor{
		cfg:   s.Config,
		vocab: vocabularyFromTerms(s.Terms),
		idf:   append([]float64(nil), s.IDF...),
	}, nil
}

// FitTransform fits on corpus and returns one Vector per input document, in
// input order.
func (e *Extractor) FitTransform(corpus []normalizer.Document) ([]Vector, error) {
	if err := e.Fit(corpus); err != nil {
		return nil, err
	}
	out := make([]Vector, len(corpus))
	for i, doc := range corpus {
		out[i] = e.Transform(doc)
	}
	return out, nil
}

// normalizeL2 scales vec to unit Euclidean length in place.
func normalizeL2(vec Vector) {
	vals := make([]float64, 0, len(vec))
	for _, w := range vec {
		vals = append(vals, w)
	}
	norm := floats.Norm(vals, 2)
	if norm == 0 {
		return
	}
	for i := range vec {
		vec[i] /= norm
	}
}
