package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func set(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

func TestNormalize_Basic(t *testing.T) {
	n := New(Config{Stopwords: set("the", "a", "it")})
	doc := n.Normalize("rev-1", "The drug worked! It reduced my migraine.")
	assert.Equal(t, "rev-1", doc.ReviewID)
	assert.Equal(t, []string{"drug", "worked", "reduced", "my", "migraine"}, doc.Tokens)
	assert.False(t, doc.Empty())
}

func TestNormalize_EmptyAndWhitespace(t *testing.T) {
	n := New(Config{Stopwords: set()})
	for _, raw := range []string{"", "   ", "\t\n", "!!! ??? ..."} {
		doc := n.Normalize("rev-x", raw)
		assert.True(t, doc.Empty(), "raw=%q", raw)
		assert.Empty(t, doc.Tokens)
	}
}

func TestNormalize_StripsHTMLArtifacts(t *testing.T) {
	n := New(Config{Stopwords: set()})
	doc := n.Normalize("rev-2", "<p>no more&nbsp;nausea</p> <br/>finally&#33;")
	assert.Equal(t, []string{"no", "more", "nausea", "finally"}, doc.Tokens)
}

func TestNormalize_PreservedCueTokens(t *testing.T) {
	n := New(Config{
		Stopwords: set("not", "no", "very"),
		Preserve:  set("not", "no"),
	})
	doc := n.Normalize("rev-3", "not very effective, no relief")
	assert.Equal(t, []string{"not", "effective", "no", "relief"}, doc.Tokens)
}

func TestNormalize_LocaleStopwords(t *testing.T) {
	// Nil explicit set falls back to the package stopword list for "en".
	n := New(Config{})
	doc := n.Normalize("rev-4", "the side effects were severe")
	assert.Contains(t, doc.Tokens, "severe")
	assert.NotContains(t, doc.Tokens, "the")
	assert.NotContains(t, doc.Tokens, "were")
}

func TestNormalize_Deterministic(t *testing.T) {
	n := New(Config{Stopwords: set("the"), Stemming: true})
	raw := "The tablets stopped my headaches completely."
	first := n.Normalize("rev-5", raw)
	for i := 0; i < 10; i++ {
		again := n.Normalize("rev-5", raw)
		require.Equal(t, first, again)
	}
}

func TestNormalize_ApostropheHandling(t *testing.T) {
	n := New(Config{Stopwords: set()})
	doc := n.Normalize("rev-6", "didn't help 'much'")
	assert.Equal(t, []string{"didn't", "help", "much"}, doc.Tokens)
}

func TestStem(t *testing.T) {
	cases := map[string]string{
		"headaches":  "headach",
		"headache":   "headach", // base and plural share a stem
		"allergies":  "allergy",
		"taking":     "tak",
		"take":       "tak",
		"stopping":   "stop",
		"stopped":    "stop",
		"rashes":     "rash",
		"completely": "complet",
		"happiness":  "happy",
		"nausea":     "nausea",
		"dizziness":  "dizzy",
		"less":       "less",
		"its":        "its",
		"us":         "us",
	}
	for in, want := range cases {
		assert.Equal(t, want, Stem(in), "stem(%q)", in)
	}
}

func TestStem_ShortTokensUntouched(t *testing.T) {
	for _, tok := range []string{"a", "is", "the", "dry"} {
		assert.Equal(t, tok, Stem(tok))
	}
}
