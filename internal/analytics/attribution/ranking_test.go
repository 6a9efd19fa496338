package attribution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/BrandPulse-Analytics/internal/analytics/features"
	"github.com/turtacn/BrandPulse-Analytics/internal/analytics/normalizer"
	"github.com/turtacn/BrandPulse-Analytics/pkg/types/review"
)

func testNamer(t *testing.T) *TermNamer {
	t.Helper()
	ex := features.NewExtractor(features.Config{NGramMin: 1, NGramMax: 1, MaxVocabSize: 10})
	require.NoError(t, ex.Fit([]normalizer.Document{
		{ReviewID: "r1", Tokens: []string{"nausea", "rash", "relief"}},
	}))
	// Vocabulary order is lexicographic: nausea=0, rash=1, relief=2.
	return NewTermNamer(ex.Vocabulary(), 3)
}

func TestTermNamer_Name(t *testing.T) {
	n := testNamer(t)
	assert.Equal(t, "nausea", n.Name(0))
	assert.Equal(t, "relief", n.Name(2))
	assert.Equal(t, review.SentimentTerm, n.Name(3))
	assert.Equal(t, "", n.Name(99))
}

func TestTermNamer_TermsSortedByMagnitude(t *testing.T) {
	n := testNamer(t)
	got := n.Terms(map[int]float64{0: -0.9, 1: 0.2, 3: 0.5})

	require.Len(t, got, 3)
	assert.Equal(t, "nausea", got[0].Term)
	assert.Equal(t, -0.9, got[0].Attribution)
	assert.Equal(t, review.SentimentTerm, got[1].Term)
	assert.Equal(t, "rash", got[2].Term)
}

func TestMeanAbsolute(t *testing.T) {
	corpus := []map[int]float64{
		{0: -0.4, 1: 0.2},
		{0: 0.8},
	}
	got := MeanAbsolute(corpus)
	assert.InDelta(t, 0.6, got[0], 1e-12)
	assert.InDelta(t, 0.1, got[1], 1e-12)

	assert.Empty(t, MeanAbsolute(nil))
}

func TestTopTerms_CapAndTieBreak(t *testing.T) {
	n := testNamer(t)
	weights := map[int]float64{0: 0.5, 1: 0.5, 2: 0.1}

	got := TopTerms(weights, n, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "nausea", got[0].Term)
	assert.Equal(t, "rash", got[1].Term)

	all := TopTerms(weights, n, 0)
	assert.Len(t, all, 3)
}

func TestTopTermsByClass(t *testing.T) {
	n := testNamer(t)
	corpus := []map[int]float64{
		{0: -0.6, 2: 0.4},
		{0: -0.2, 2: 0.2, 1: 0.0},
	}

	satisfied, dissatisfied := TopTermsByClass(corpus, n, 5)

	require.Len(t, satisfied, 1)
	assert.Equal(t, "relief", satisfied[0].Term)
	assert.InDelta(t, 0.3, satisfied[0].Weight, 1e-12)

	require.Len(t, dissatisfied, 1)
	assert.Equal(t, "nausea", dissatisfied[0].Term)
	assert.InDelta(t, 0.4, dissatisfied[0].Weight, 1e-12)
}
