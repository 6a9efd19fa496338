package attribution

import (
	"sort"

	"github.com/turtacn/BrandPulse-Analytics/internal/analytics/features"
	"github.com/turtacn/BrandPulse-Analytics/pkg/types/review"
)

// TermNamer maps a feature index to its interpretable term.  The auxiliary
// sentiment feature is reported under review.SentimentTerm.
type TermNamer struct {
	vocab          *features.Vocabulary
	sentimentIndex int
}

// NewTermNamer builds a namer over the fitted vocabulary; sentimentIndex is
// the model's auxiliary feature slot.
func NewTermNamer(vocab *features.Vocabulary, sentimentIndex int) *TermNamer {
	return &TermNamer{vocab: vocab, sentimentIndex: sentimentIndex}
}

// Name returns the term for a feature index.
func (n *TermNamer) Name(feature int) string {
	if feature == n.sentimentIndex {
		return review.SentimentTerm
	}
	return n.vocab.Term(feature)
}

// Terms converts a raw attribution map into named term attributions sorted
// by descending absolute contribution, ties broken lexicographically.
func (n *TermNamer) Terms(phi map[int]float64) []review.TermAttribution {
	out := make([]review.TermAttribution, 0, len(phi))
	for feature, v := range phi {
		out = append(out, review.TermAttribution{Term: n.Name(feature), Attribution: v})
	}
	sort.Slice(out, func(i, j int) bool {
		ai, aj := abs(out[i].Attribution), abs(out[j].Attribution)
		if ai != aj {
			return ai > aj
		}
		return out[i].Term < out[j].Term
	})
	return out
}

// MeanAbsolute averages |attribution| per feature over a corpus of instance
// attributions.  Instances missing a feature contribute zero for it, so the
// denominator is always the corpus size.
func MeanAbsolute(corpus []map[int]float64) map[int]float64 {
	if len(corpus) == 0 {
		return map[int]float64{}
	}
	sums := make(map[int]float64)
	for _, phi := range corpus {
		for feature, v := range phi {
			sums[feature] += abs(v)
		}
	}
	n := float64(len(corpus))
	for feature := range sums {
		sums[feature] /= n
	}
	return sums
}

// TopTerms ranks the k highest-weight entries of a per-feature weight map as
// named terms.  Determinism: equal weights order lexicographically.
func TopTerms(weights map[int]float64, namer *TermNamer, k int) []review.TermWeight {
	out := make([]review.TermWeight, 0, len(weights))
	for feature, w := range weights {
		out = append(out, review.TermWeight{Term: namer.Name(feature), Weight: w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Term < out[j].Term
	})
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}

// TopTermsByClass splits corpus attributions into the terms that push
// predictions toward satisfied (positive mean contribution) and toward
// dissatisfied (negative mean), each ranked by magnitude.  This backs the
// per-class word-cloud export.
func TopTermsByClass(corpus []map[int]float64, namer *TermNamer, k int) (satisfied, dissatisfied []review.TermWeight) {
	if len(corpus) == 0 {
		return nil, nil
	}
	sums := make(map[int]float64)
	for _, phi := range corpus {
		for feature, v := range phi {
			sums[feature] += v
		}
	}

	pos := make(map[int]float64)
	neg := make(map[int]float64)
	n := float64(len(corpus))
	for feature, s := range sums {
		mean := s / n
		switch {
		case mean > 0:
			pos[feature] = mean
		case mean < 0:
			neg[feature] = -mean
		}
	}
	return TopTerms(pos, namer, k), TopTerms(neg, namer, k)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
