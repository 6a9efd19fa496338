package classifier

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/BrandPulse-Analytics/internal/analytics/features"
	"github.com/turtacn/BrandPulse-Analytics/internal/analytics/normalizer"
	"github.com/turtacn/BrandPulse-Analytics/pkg/errors"
	"github.com/turtacn/BrandPulse-Analytics/pkg/types/review"
)

// fullFitConfig trains on every row and column so tiny corpora are not
// starved by subsampling.
func fullFitConfig() Config {
	cfg := DefaultConfig()
	cfg.RowSubsample = 1.0
	cfg.ColSubsample = 1.0
	return cfg
}

// separableCorpus is the canonical sanity corpus: two satisfied reviews
// praising relief, two dissatisfied ones reporting nausea.
func separableCorpus(t *testing.T) ([]features.Vector, []float64, []review.Label, int) {
	t.Helper()
	docs := []normalizer.Document{
		{ReviewID: "p1", Tokens: []string{"great", "relief", "no", "side", "effects"}},
		{ReviewID: "p2", Tokens: []string{"great", "relief", "no", "side", "effects"}},
		{ReviewID: "n1", Tokens: []string{"severe", "nausea", "stopped", "taking", "it"}},
		{ReviewID: "n2", Tokens: []string{"severe", "nausea", "stopped", "taking", "it"}},
	}
	ex := features.NewExtractor(features.DefaultConfig())
	vecs, err := ex.FitTransform(docs)
	require.NoError(t, err)

	sentiments := []float64{0.7, 0.7, -0.8, -0.8}
	labels := []review.Label{
		review.LabelSatisfied, review.LabelSatisfied,
		review.LabelDissatisfied, review.LabelDissatisfied,
	}
	return vecs, sentiments, labels, ex.Vocabulary().Len()
}

func TestFit_SeparableCorpusLearns(t *testing.T) {
	vecs, sentiments, labels, vocabLen := separableCorpus(t)

	m, err := NewTrainer(fullFitConfig()).Fit(vecs, sentiments, labels, vocabLen)
	require.NoError(t, err)

	correct := 0
	for i := range vecs {
		got, p := m.Predict(vecs[i], sentiments[i])
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
		if got == labels[i] {
			correct++
		}
	}
	assert.GreaterOrEqual(t, correct, 3, "training accuracy below 75%% on separable corpus")
}

func TestFit_EmptyCorpus(t *testing.T) {
	_, err := NewTrainer(fullFitConfig()).Fit(nil, nil, nil, 10)
	require.Error(t, err)
	assert.True(t, errors.IsEmptyCorpus(err))
}

func TestFit_SingleClassIsInsufficient(t *testing.T) {
	vecs, sentiments, _, vocabLen := separableCorpus(t)
	same := []review.Label{
		review.LabelSatisfied, review.LabelSatisfied,
		review.LabelSatisfied, review.LabelSatisfied,
	}

	_, err := NewTrainer(fullFitConfig()).Fit(vecs, sentiments, same, vocabLen)
	require.Error(t, err)
	assert.True(t, errors.IsInsufficientData(err))
}

func TestFit_MisalignedInputs(t *testing.T) {
	vecs, sentiments, labels, vocabLen := separableCorpus(t)
	_, err := NewTrainer(fullFitConfig()).Fit(vecs, sentiments[:2], labels, vocabLen)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput))
}

func TestFit_UnlabeledInstanceRejected(t *testing.T) {
	vecs, sentiments, labels, vocabLen := separableCorpus(t)
	labels[2] = review.LabelUnknown

	_, err := NewTrainer(fullFitConfig()).Fit(vecs, sentiments, labels, vocabLen)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput))
}

func TestFit_BaseScoreIsLogOdds(t *testing.T) {
	vecs, sentiments, _, vocabLen := separableCorpus(t)
	labels := []review.Label{
		review.LabelSatisfied,
		review.LabelDissatisfied, review.LabelDissatisfied, review.LabelDissatisfied,
	}

	m, err := NewTrainer(fullFitConfig()).Fit(vecs, sentiments, labels, vocabLen)
	require.NoError(t, err)
	assert.InDelta(t, math.Log(1.0/3.0), m.BaseScore, 1e-12)
	assert.Equal(t, 1, m.Meta.PositiveCount)
	assert.Equal(t, 3, m.Meta.NegativeCount)
}

func TestFit_DeterministicForFixedSeed(t *testing.T) {
	vecs, sentiments, labels, vocabLen := noisyCorpus(60, vocab40)

	cfg := DefaultConfig()
	a, err := NewTrainer(cfg).Fit(vecs, sentiments, labels, vocabLen)
	require.NoError(t, err)
	b, err := NewTrainer(cfg).Fit(vecs, sentiments, labels, vocabLen)
	require.NoError(t, err)

	assert.Equal(t, a.Trees, b.Trees)
	assert.Equal(t, a.BaseScore, b.BaseScore)
	for i := range vecs {
		assert.Equal(t, a.Margin(vecs[i], sentiments[i]), b.Margin(vecs[i], sentiments[i]))
	}
}

func TestFit_SeedChangesEnsemble(t *testing.T) {
	vecs, sentiments, labels, vocabLen := noisyCorpus(60, vocab40)

	a, err := NewTrainer(DefaultConfig()).Fit(vecs, sentiments, labels, vocabLen)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Seed = 7
	b, err := NewTrainer(cfg).Fit(vecs, sentiments, labels, vocabLen)
	require.NoError(t, err)

	assert.NotEqual(t, a.Trees, b.Trees)
}

func TestFit_SubsampledTrainingStillLearns(t *testing.T) {
	vecs, sentiments, labels, vocabLen := noisyCorpus(80, vocab40)

	m, err := NewTrainer(DefaultConfig()).Fit(vecs, sentiments, labels, vocabLen)
	require.NoError(t, err)

	correct := 0
	for i := range vecs {
		if got, _ := m.Predict(vecs[i], sentiments[i]); got == labels[i] {
			correct++
		}
	}
	assert.GreaterOrEqual(t, float64(correct)/float64(len(vecs)), 0.9)
	assert.NotEmpty(t, m.Importances)
}

func TestModel_RoundTripPredictionsIdentical(t *testing.T) {
	vecs, sentiments, labels, vocabLen := noisyCorpus(60, vocab40)

	// Hold out the tail; train on the head.
	m, err := NewTrainer(DefaultConfig()).Fit(vecs[:40], sentiments[:40], labels[:40], vocabLen)
	require.NoError(t, err)

	data, err := m.Marshal()
	require.NoError(t, err)

	loaded, err := LoadModel(data)
	require.NoError(t, err)

	for i := 40; i < len(vecs); i++ {
		wantLabel, wantP := m.Predict(vecs[i], sentiments[i])
		gotLabel, gotP := loaded.Predict(vecs[i], sentiments[i])
		assert.Equal(t, wantLabel, gotLabel)
		assert.Equal(t, wantP, gotP)
	}
}

func TestLoadModel_RejectsGarbage(t *testing.T) {
	_, err := LoadModel([]byte("not json"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSerialization))

	_, err = LoadModel([]byte(`{"trees":[],"num_features":0}`))
	require.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	for _, mut := range []func(*Config){
		func(c *Config) { c.NumTrees = 0 },
		func(c *Config) { c.MaxDepth = 0 },
		func(c *Config) { c.LearningRate = 0 },
		func(c *Config) { c.LearningRate = 1.5 },
		func(c *Config) { c.RowSubsample = 0 },
		func(c *Config) { c.ColSubsample = 1.1 },
	} {
		cfg := DefaultConfig()
		mut(&cfg)
		err := cfg.Validate()
		require.Error(t, err)
		assert.True(t, errors.IsConfiguration(err))
	}
}

const vocab40 = 40

// noisyCorpus builds n sparse rows over vocabSize features where feature 0
// drives the satisfied class and feature 1 the dissatisfied class, with a
// few random noise features per row.
func noisyCorpus(n, vocabSize int) ([]features.Vector, []float64, []review.Label, int) {
	rng := rand.New(rand.NewSource(99))
	vecs := make([]features.Vector, n)
	sentiments := make([]float64, n)
	labels := make([]review.Label, n)
	for i := 0; i < n; i++ {
		v := features.Vector{}
		if i%2 == 0 {
			v[0] = 0.6 + 0.2*rng.Float64()
			sentiments[i] = 0.4 + 0.3*rng.Float64()
			labels[i] = review.LabelSatisfied
		} else {
			v[1] = 0.6 + 0.2*rng.Float64()
			sentiments[i] = -0.4 - 0.3*rng.Float64()
			labels[i] = review.LabelDissatisfied
		}
		for k := 0; k < 3; k++ {
			v[2+rng.Intn(vocabSize-2)] = 0.3 * rng.Float64()
		}
		vecs[i] = v
	}
	return vecs, sentiments, labels, vocabSize
}
