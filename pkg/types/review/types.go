// Package review defines the public data model exchanged between the
// analytics core and its ingestion / reporting collaborators.  Everything
// here is plain structured data: the core defines the schema but not the
// storage format.
package review

import (
	"strings"
	"time"

	"github.com/turtacn/BrandPulse-Analytics/pkg/errors"
)

// Label is the discrete satisfaction class predicted by the classifier.
type Label string

const (
	LabelSatisfied    Label = "satisfied"
	LabelDissatisfied Label = "dissatisfied"

	// LabelUnknown marks a review that carries neither an annotated label
	// nor a rating from which one can be derived.  Such reviews are scored
	// but excluded from training.
	LabelUnknown Label = ""
)

// RatingSatisfiedThreshold is the labeling rule applied when a review carries
// a 1-10 rating but no annotated label: satisfied means rating >= 7.
const RatingSatisfiedThreshold = 7

// Review is an immutable raw review record supplied by the ingestion
// collaborator.  Created once per pipeline run, never mutated.
type Review struct {
	ID        string    `json:"id"`
	RawText   string    `json:"raw_text"`
	Timestamp time.Time `json:"timestamp"`
	BrandID   string    `json:"brand_id"`

	// Rating is the optional 1-10 patient rating; 0 means absent.
	Rating int `json:"rating,omitempty"`

	// Label is the optional ground-truth satisfaction annotation.
	Label Label `json:"label,omitempty"`
}

// Validate checks the schema constraints enforced at the ingestion boundary.
// Records failing validation are reported and skipped; they never reach the
// feature or model stages.
func (r *Review) Validate() error {
	if r == nil {
		return errors.NewMalformedRecordError("", "nil review record")
	}
	if strings.TrimSpace(r.ID) == "" {
		return errors.NewMalformedRecordError("", "missing id")
	}
	if r.RawText == "" {
		return errors.NewMalformedRecordError(r.ID, "missing raw_text")
	}
	if r.Rating < 0 || r.Rating > 10 {
		return errors.NewMalformedRecordError(r.ID, "rating out of range [0, 10]")
	}
	switch r.Label {
	case LabelSatisfied, LabelDissatisfied, LabelUnknown:
	default:
		return errors.NewMalformedRecordError(r.ID, "unrecognized label "+string(r.Label))
	}
	return nil
}

// EffectiveLabel resolves the training label for a review: the annotated
// label wins; otherwise the rating-threshold rule applies; otherwise
// LabelUnknown.
func (r *Review) EffectiveLabel() Label {
	if r.Label != LabelUnknown {
		return r.Label
	}
	if r.Rating > 0 {
		if r.Rating >= RatingSatisfiedThreshold {
			return LabelSatisfied
		}
		return LabelDissatisfied
	}
	return LabelUnknown
}

// SentimentScore is the lexicon-derived polarity for one review.
// Polarity is bounded to [-1, 1]; 0 is the neutral midpoint.
type SentimentScore struct {
	ReviewID string  `json:"review_id"`
	Polarity float64 `json:"polarity"`
}

// TermAttribution is a single interpretable term with its additive
// contribution to a prediction.
type TermAttribution struct {
	Term        string  `json:"term"`
	Attribution float64 `json:"attribution"`
}

// Prediction is the scored output for one review, produced after training.
// Never mutated once emitted.
type Prediction struct {
	ReviewID    string  `json:"review_id"`
	BrandID     string  `json:"brand_id"`
	Label       Label   `json:"label"`
	Probability float64 `json:"probability"`

	// Attributions maps interpretable terms to their additive contribution
	// to the raw model output for this review.  The auxiliary sentiment
	// feature is reported under the reserved term "__sentiment__".
	Attributions []TermAttribution `json:"attributions,omitempty"`
}

// SentimentTerm is the reserved attribution key for the auxiliary sentiment
// feature appended after the vocabulary block.
const SentimentTerm = "__sentiment__"

// BucketGranularity selects the time-bucket truncation for aggregation.
type BucketGranularity string

const (
	BucketDay   BucketGranularity = "day"
	BucketWeek  BucketGranularity = "week"
	BucketMonth BucketGranularity = "month"
)

// Valid reports whether g is a recognized granularity.
func (g BucketGranularity) Valid() bool {
	switch g {
	case BucketDay, BucketWeek, BucketMonth:
		return true
	}
	return false
}

// TermWeight is a ranked term with an aggregate weight, used for the
// top-driving-terms output and the word-cloud export.
type TermWeight struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// BrandHealthMetric is one time-bucketed rollup of predictions and
// sentiment scores.  Recomputed on every run, never incrementally patched.
type BrandHealthMetric struct {
	BrandID          string            `json:"brand_id"`
	Bucket           time.Time         `json:"bucket"`
	Granularity      BucketGranularity `json:"granularity"`
	ReviewCount      int               `json:"review_count"`
	MeanSentiment    float64           `json:"mean_sentiment"`
	SatisfactionRate float64           `json:"satisfaction_rate"`
	TopTerms         []TermWeight      `json:"top_terms"`
}

// BrandSummary is the per-brand overview rollup: review volume, mean rating
// where present, satisfaction rate, and mean sentiment across the whole
// analyzed window.
type BrandSummary struct {
	BrandID          string  `json:"brand_id"`
	ReviewCount      int     `json:"review_count"`
	RatedCount       int     `json:"rated_count"`
	MeanRating       float64 `json:"mean_rating"`
	SatisfactionRate float64 `json:"satisfaction_rate"`
	MeanSentiment    float64 `json:"mean_sentiment"`
}
