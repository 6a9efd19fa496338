package classifier

import (
	"encoding/json"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/turtacn/BrandPulse-Analytics/internal/analytics/features"
	"github.com/turtacn/BrandPulse-Analytics/pkg/errors"
	"github.com/turtacn/BrandPulse-Analytics/pkg/types/review"
)

// Default training parameters.
const (
	DefaultNumTrees     = 50
	DefaultMaxDepth     = 3
	DefaultLearningRate = 0.1
	DefaultRowSubsample = 0.8
	DefaultColSubsample = 0.8
	DefaultSeed         = 42
)

// Config controls boosting.  Training is deterministic for a fixed Seed.
type Config struct {
	NumTrees     int
	MaxDepth     int
	LearningRate float64
	RowSubsample float64
	ColSubsample float64
	Seed         int64

	// LexiconVersion is recorded in the model metadata so downstream
	// scoring can verify it runs against the lexicon the model saw.
	LexiconVersion string
}

// DefaultConfig returns the stock boosting parameters.
func DefaultConfig() Config {
	return Config{
		NumTrees:     DefaultNumTrees,
		MaxDepth:     DefaultMaxDepth,
		LearningRate: DefaultLearningRate,
		RowSubsample: DefaultRowSubsample,
		ColSubsample: DefaultColSubsample,
		Seed:         DefaultSeed,
	}
}

// Validate fails fast on incoherent training parameters.
func (c Config) Validate() error {
	if c.NumTrees < 1 {
		return errors.NewConfigurationError("classifier_n_trees", "must be >= 1")
	}
	if c.MaxDepth < 1 {
		return errors.NewConfigurationError("classifier_max_depth", "must be >= 1")
	}
	if c.LearningRate <= 0 || c.LearningRate > 1 {
		return errors.NewConfigurationError("classifier_learning_rate", "must be in (0, 1]")
	}
	if c.RowSubsample <= 0 || c.RowSubsample > 1 {
		return errors.NewConfigurationError("row_subsample", "must be in (0, 1]")
	}
	if c.ColSubsample <= 0 || c.ColSubsample > 1 {
		return errors.NewConfigurationError("col_subsample", "must be in (0, 1]")
	}
	return nil
}

// Meta captures training provenance stored inside the model artifact.
type Meta struct {
	CorpusSize     int       `json:"corpus_size"`
	PositiveCount  int       `json:"positive_count"`
	NegativeCount  int       `json:"negative_count"`
	VocabSize      int       `json:"vocab_size"`
	Seed           int64     `json:"seed"`
	LexiconVersion string    `json:"lexicon_version,omitempty"`
	TrainedAt      time.Time `json:"trained_at"`
}

// Model is the trained ensemble.  It is read-only after Fit; Predict and
// Margin are safe for concurrent use.
type Model struct {
	Trees []Tree `json:"trees"`

	// BaseScore is the log-odds prior the ensemble corrects.
	BaseScore float64 `json:"base_score"`

	// NumFeatures counts TF-IDF features plus the sentiment feature;
	// SentimentIndex is always NumFeatures-1.
	NumFeatures    int `json:"num_features"`
	SentimentIndex int `json:"sentiment_index"`

	// Importances maps feature index to accumulated split gain.
	Importances map[int]float64 `json:"importances"`

	Meta Meta `json:"meta"`
}

// Margin returns the raw additive score (log-odds) for one instance.
func (m *Model) Margin(vec features.Vector, sentiment float64) float64 {
	x := m.lookup(vec, sentiment)
	out := m.BaseScore
	for i := range m.Trees {
		out += m.Trees[i].Predict(x)
	}
	return out
}

// Predict maps one instance to a label and the satisfied-class probability.
func (m *Model) Predict(vec features.Vector, sentiment float64) (review.Label, float64) {
	p := sigmoid(m.Margin(vec, sentiment))
	if p >= 0.5 {
		return review.LabelSatisfied, p
	}
	return review.LabelDissatisfied, p
}

// lookup adapts a sparse vector plus the auxiliary sentiment feature into
// the dense accessor the trees route on.
func (m *Model) lookup(vec features.Vector, sentiment float64) func(int) float64 {
	return func(feature int) float64 {
		if feature == m.SentimentIndex {
			return sentiment
		}
		return vec[feature]
	}
}

// Marshal serializes the model for storage.  Unmarshal of the result yields
// a model with bit-identical predictions.
func (m *Model) Marshal() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "marshal model")
	}
	return data, nil
}

// LoadModel deserializes a model artifact produced by Marshal.
func LoadModel(data []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "unmarshal model")
	}
	if len(m.Trees) == 0 || m.NumFeatures < 1 {
		return nil, errors.New(errors.ErrCodeSerialization, "model artifact is incomplete")
	}
	return &m, nil
}

// Trainer fits boosted ensembles.  A Trainer carries no state between Fit
// calls; every run trains a fresh model.
type Trainer struct {
	cfg Config
}

// NewTrainer returns a Trainer with cfg.  Config errors surface from Fit.
func NewTrainer(cfg Config) *Trainer {
	return &Trainer{cfg: cfg}
}

// Fit trains the ensemble on aligned slices of feature vectors, sentiment
// scores, and labels.  numTFIDF is the vocabulary size; the sentiment score
// becomes the feature at index numTFIDF.  Fit requires both label classes to
// be present and is free of external I/O.
func (t *Trainer) Fit(vecs []features.Vector, sentiments []float64, labels []review.Label, numTFIDF int) (*Model, error) {
	if err := t.cfg.Validate(); err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, errors.NewEmptyCorpusError("classifier.fit")
	}
	if len(sentiments) != len(vecs) || len(labels) != len(vecs) {
		return nil, errors.NewInvalidInputError("features, sentiments, and labels must be aligned")
	}

	y := make([]float64, len(labels))
	var pos, neg int
	for i, l := range labels {
		switch l {
		case review.LabelSatisfied:
			y[i] = 1
			pos++
		case review.LabelDissatisfied:
			y[i] = 0
			neg++
		default:
			return nil, errors.NewInvalidInputError("unlabeled instance in training set")
		}
	}
	if pos == 0 || neg == 0 {
		return nil, errors.NewInsufficientDataError(pos, neg)
	}

	numFeatures := numTFIDF + 1
	m := &Model{
		BaseScore:      math.Log(float64(pos) / float64(neg)),
		NumFeatures:    numFeatures,
		SentimentIndex: numFeatures - 1,
		Importances:    make(map[int]float64),
		Meta: Meta{
			CorpusSize:     len(vecs),
			PositiveCount:  pos,
			NegativeCount:  neg,
			VocabSize:      numTFIDF,
			Seed:           t.cfg.Seed,
			LexiconVersion: t.cfg.LexiconVersion,
			TrainedAt:      time.Now().UTC(),
		},
	}

	mat := &matrix{vecs: vecs, sentiments: sentiments, sentimentIndex: m.SentimentIndex}
	rng := rand.New(rand.NewSource(t.cfg.Seed))

	margins := make([]float64, len(vecs))
	for i := range margins {
		margins[i] = m.BaseScore
	}

	grad := make([]float64, len(vecs))
	hess := make([]float64, len(vecs))
	builder := &treeBuilder{
		matrix:   mat,
		grad:     grad,
		hess:     hess,
		maxDepth: t.cfg.MaxDepth,
		shrink:   t.cfg.LearningRate,
		gain:     m.Importances,
	}

	for round := 0; round < t.cfg.NumTrees; round++ {
		for i := range vecs {
			p := sigmoid(margins[i])
			grad[i] = y[i] - p
			hess[i] = p * (1 - p)
		}

		rows := sample(rng, len(vecs), t.cfg.RowSubsample)
		cols := sample(rng, numFeatures, t.cfg.ColSubsample)

		tree := builder.build(rows, cols)
		m.Trees = append(m.Trees, tree)

		for i := range vecs {
			margins[i] += tree.Predict(mat.accessor(i))
		}
	}
	return m, nil
}

// sample draws frac*n distinct indices without replacement and returns them
// sorted, so downstream scans stay deterministic.
func sample(rng *rand.Rand, n int, frac float64) []int {
	if frac >= 1 {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}
	k := int(frac * float64(n))
	if k < 1 {
		k = 1
	}
	perm := rng.Perm(n)
	out := append([]int(nil), perm[:k]...)
	sort.Ints(out)
	return out
}

// matrix adapts sparse feature vectors plus aligned sentiment scores into a
// row/feature accessor for tree building.
type matrix struct {
	vecs           []features.Vector
	sentiments     []float64
	sentimentIndex int
}

func (m *matrix) at(row, feature int) float64 {
	if feature == m.sentimentIndex {
		return m.sentiments[row]
	}
	return m.vecs[row][feature]
}

func (m *matrix) accessor(row int) func(int) float64 {
	return func(feature int) float64 { return m.at(row, feature) }
}
