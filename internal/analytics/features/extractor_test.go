package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/BrandPulse-Analytics/internal/analytics/normalizer"
	"github.com/turtacn/BrandPulse-Analytics/pkg/errors"
)

func doc(id string, tokens ...string) normalizer.Document {
	return normalizer.Document{ReviewID: id, Tokens: tokens}
}

func fitted(t *testing.T, cfg Config, corpus ...normalizer.Document) *Extractor {
	t.Helper()
	e := NewExtractor(cfg)
	require.NoError(t, e.Fit(corpus))
	return e
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	bad := []Config{
		{NGramMin: 0, NGramMax: 2, MaxVocabSize: 10},
		{NGramMin: 2, NGramMax: 1, MaxVocabSize: 10},
		{NGramMin: 1, NGramMax: 4, MaxVocabSize: 10},
		{NGramMin: 1, NGramMax: 1, MaxVocabSize: 0},
	}
	for _, cfg := range bad {
		err := cfg.Validate()
		require.Error(t, err)
		assert.True(t, errors.IsConfiguration(err))
	}
}

func TestFit_EmptyCorpus(t *testing.T) {
	e := NewExtractor(DefaultConfig())
	err := e.Fit(nil)
	require.Error(t, err)
	assert.True(t, errors.IsEmptyCorpus(err))
}

func TestFit_SingleDocumentCorpusIsValid(t *testing.T) {
	e := NewExtractor(DefaultConfig())
	require.NoError(t, e.Fit([]normalizer.Document{doc("r1", "severe", "nausea")}))
	assert.Positive(t, e.Vocabulary().Len())
}

func TestFit_BuildsUniBiTrigrams(t *testing.T) {
	e := fitted(t, DefaultConfig(), doc("r1", "severe", "nausea", "daily"))

	for _, term := range []string{
		"severe", "nausea", "daily",
		"severe nausea", "nausea daily",
		"severe nausea daily",
	} {
		_, ok := e.Vocabulary().Index(term)
		assert.True(t, ok, "missing n-gram %q", term)
	}
	assert.Equal(t, 6, e.Vocabulary().Len())
}

func TestFit_CapKeepsHighestDocFrequency(t *testing.T) {
	cfg := Config{NGramMin: 1, NGramMax: 1, MaxVocabSize: 2}
	e := fitted(t, cfg,
		doc("r1", "nausea", "relief"),
		doc("r2", "nausea", "relief"),
		doc("r3", "nausea", "rash"),
	)

	v := e.Vocabulary()
	require.Equal(t, 2, v.Len())
	_, ok := v.Index("nausea")
	assert.True(t, ok)
	_, ok = v.Index("relief")
	assert.True(t, ok)
	_, ok = v.Index("rash")
	assert.False(t, ok)
}

func TestFit_CapTieBreaksLexicographically(t *testing.T) {
	// All four terms appear in exactly one document.
	cfg := Config{NGramMin: 1, NGramMax: 1, MaxVocabSize: 2}
	e := fitted(t, cfg, doc("r1", "dizzy", "cramp", "ache", "bloating"))

	v := e.Vocabulary()
	require.Equal(t, 2, v.Len())
	assert.Equal(t, []string{"ache", "bloating"}, v.Terms())
}

func TestFit_Deterministic(t *testing.T) {
	corpus := []normalizer.Document{
		doc("r1", "severe", "nausea", "stopped"),
		doc("r2", "great", "relief", "nausea"),
		doc("r3", "rash", "itching", "stopped"),
	}
	cfg := Config{NGramMin: 1, NGramMax: 2, MaxVocabSize: 5}

	first := fitted(t, cfg, corpus...).Vocabulary().Terms()
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, fitted(t, cfg, corpus...).Vocabulary().Terms())
	}
}

func TestTransform_EmptyDocumentIsZeroVector(t *testing.T) {
	e := fitted(t, DefaultConfig(), doc("r1", "nausea"), doc("r2"))
	assert.Empty(t, e.Transform(doc("r2")))
}

func TestTransform_UnknownTermsIgnored(t *testing.T) {
	e := fitted(t, DefaultConfig(), doc("r1", "nausea"))
	vec := e.Transform(doc("x", "unrelated", "tokens"))
	assert.Empty(t, vec)
}

func TestTransform_L2Normalized(t *testing.T) {
	e := fitted(t, DefaultConfig(),
		doc("r1", "severe", "nausea"),
		doc("r2", "great", "relief"),
	)

	vec := e.Transform(doc("r1", "severe", "nausea"))
	require.NotEmpty(t, vec)

	var sumSq float64
	for _, w := range vec {
		assert.GreaterOrEqual(t, w, 0.0)
		sumSq += w * w
	}
	assert.InDelta(t, 1.0, sumSq, 1e-9)
}

func TestFit_IDFSmoothing(t *testing.T) {
	// A term present in every document gets idf = log((N+1)/(N+1)) + 1 = 1.
	cfg := Config{NGramMin: 1, NGramMax: 1, MaxVocabSize: 10}
	e := fitted(t, cfg,
		doc("r1", "nausea", "relief"),
		doc("r2", "nausea"),
	)

	i, ok := e.Vocabulary().Index("nausea")
	require.True(t, ok)
	assert.InDelta(t, 1.0, e.IDF(i), 1e-12)

	j, ok := e.Vocabulary().Index("relief")
	require.True(t, ok)
	assert.InDelta(t, math.Log(3.0/2.0)+1, e.IDF(j), 1e-12)
}

func TestStateRestore_ReproducesTransforms(t *testing.T) {
	cfg := Config{NGramMin: 1, NGramMax: 2, MaxVocabSize: 50}
	e := fitted(t, cfg,
		doc("r1", "severe", "nausea", "relief"),
		doc("r2", "nausea", "relief"),
		doc("r3", "relief"),
	)

	state, err := e.State()
	require.NoError(t, err)
	restored, err := Restore(state)
	require.NoError(t, err)

	probe := doc("r4", "severe", "nausea", "unknown", "relief")
	assert.Equal(t, e.Transform(probe), restored.Transform(probe))
	assert.Equal(t, e.Vocabulary().Terms(), restored.Vocabulary().Terms())
}

func TestState_UnfittedExtractor(t *testing.T) {
	_, err := NewExtractor(DefaultConfig()).State()
	require.Error(t, err)
}

func TestRestore_RejectsMismatchedState(t *testing.T) {
	_, err := Restore(State{
		Config: DefaultConfig(),
		Terms:  []string{"nausea", "relief"},
		IDF:    []float64{1.0},
	})
	require.Error(t, err)

	_, err = Restore(State{Config: DefaultConfig()})
	require.Error(t, err)
}

func TestFitTransform_OrderMatchesInput(t *testing.T) {
	corpus := []normalizer.Document{
		doc("r1", "nausea"),
		doc("r2"),
		doc("r3", "relief"),
	}
	e := NewExtractor(DefaultConfig())
	vecs, err := e.FitTransform(corpus)
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.NotEmpty(t, vecs[0])
	assert.Empty(t, vecs[1])
	assert.NotEmpty(t, vecs[2])
}
