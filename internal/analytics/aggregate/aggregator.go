// Package aggregate rolls per-review predictions and sentiment scores into
// time-bucketed brand-health metrics.  Aggregation is a pure recomputation:
// no state survives between runs, so reprocessing identical input always
// yields identical metrics.
package aggregate

import (
	"sort"
	"time"

	"github.com/turtacn/BrandPulse-Analytics/internal/analytics/attribution"
	"github.com/turtacn/BrandPulse-Analytics/pkg/errors"
	"github.com/turtacn/BrandPulse-Analytics/pkg/types/review"
)

// DefaultTopK is how many driving terms each bucket reports.
const DefaultTopK = 10

// Config controls bucketing and the per-bucket term ranking.
type Config struct {
	Granularity review.BucketGranularity
	TopK        int
}

// DefaultConfig buckets by week with the stock term cap.
func DefaultConfig() Config {
	return Config{Granularity: review.BucketWeek, TopK: DefaultTopK}
}

// Validate fails fast on an unusable aggregation setup.
func (c Config) Validate() error {
	if !c.Granularity.Valid() {
		return errors.NewConfigurationError("time_bucket_granularity", "must be day, week, or month")
	}
	if c.TopK < 1 {
		return errors.NewConfigurationError("top_k_terms", "must be >= 1")
	}
	return nil
}

// TruncateBucket maps a timestamp to its bucket start in UTC.  Week buckets
// start on Monday.
func TruncateBucket(ts time.Time, g review.BucketGranularity) time.Time {
	ts = ts.UTC()
	switch g {
	case review.BucketDay:
		return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	case review.BucketWeek:
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case review.BucketMonth:
		return time.Date(ts.Year(), ts.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return ts
}

// Instance is one scored review presented to the Aggregator: the prediction,
// its sentiment polarity, timestamp, and the raw per-feature attributions.
type Instance struct {
	Prediction review.Prediction
	Sentiment  float64
	Timestamp  time.Time

	// Attributions is the per-feature decomposition used for the bucket's
	// top-terms ranking.
	Attributions map[int]float64
}

// Aggregator groups scored instances into brand/time buckets.
type Aggregator struct {
	cfg   Config
	namer *attribution.TermNamer
}

// New builds an Aggregator; namer translates feature indices into terms for
// the top-terms output.
func New(cfg Config, namer *attribution.TermNamer) *Aggregator {
	return &Aggregator{cfg: cfg, namer: namer}
}

type bucketKey struct {
	brand  string
	bucket time.Time
}

// Aggregate computes one BrandHealthMetric per non-empty (brand, bucket)
// pair, sorted by brand then bucket start.  Empty buckets are never emitted,
// so every metric's statistics are defined.
func (a *Aggregator) Aggregate(instances []Instance) ([]review.BrandHealthMetric, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}

	groups := make(map[bucketKey][]Instance)
	for _, inst := range instances {
		k := bucketKey{
			brand:  inst.Prediction.BrandID,
			bucket: TruncateBucket(inst.Timestamp, a.cfg.Granularity),
		}
		groups[k] = append(groups[k], inst)
	}

	out := make([]review.BrandHealthMetric, 0, len(groups))
	for k, members := range groups {
		out = append(out, a.metric(k, members))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BrandID != out[j].BrandID {
			return out[i].BrandID < out[j].BrandID
		}
		return out[i].Bucket.Before(out[j].Bucket)
	})
	return out, nil
}

func (a *Aggregator) metric(k bucketKey, members []Instance) review.BrandHealthMetric {
	var sentimentSum float64
	var satisfied int
	attrs := make([]map[int]float64, 0, len(members))
	for _, inst := range members {
		sentimentSum += inst.Sentiment
		if inst.Prediction.Label == review.LabelSatisfied {
			satisfied++
		}
		if inst.Attributions != nil {
			attrs = append(attrs, inst.Attributions)
		}
	}

	n := float64(len(members))
	m := review.BrandHealthMetric{
		BrandID:          k.brand,
		Bucket:           k.bucket,
		Granularity:      a.cfg.Granularity,
		ReviewCount:      len(members),
		MeanSentiment:    sentimentSum / n,
		SatisfactionRate: float64(satisfied) / n,
	}
	if a.namer != nil && len(attrs) > 0 {
		m.TopTerms = attribution.TopTerms(attribution.MeanAbsolute(attrs), a.namer, a.cfg.TopK)
	}
	return m
}

// Summaries computes the per-brand overview rollup across the whole window:
// review volume, mean rating over rated reviews, satisfaction rate, and mean
// sentiment.  Brands are sorted by id.
func Summaries(reviews []review.Review, predictions map[string]review.Prediction, sentiments map[string]float64) []review.BrandSummary {
	type acc struct {
		count, rated, satisfied int
		ratingSum, sentimentSum float64
	}
	byBrand := make(map[string]*acc)
	for _, r := range reviews {
		s := byBrand[r.BrandID]
		if s == nil {
			s = &acc{}
			byBrand[r.BrandID] = s
		}
		s.count++
		if r.Rating > 0 {
			s.rated++
			s.ratingSum += float64(r.Rating)
		}
		if p, ok := predictions[r.ID]; ok && p.Label == review.LabelSatisfied {
			s.satisfied++
		}
		s.sentimentSum += sentiments[r.ID]
	}

	out := make([]review.BrandSummary, 0, len(byBrand))
	for brand, s := range byBrand {
		sum := review.BrandSummary{
			BrandID:          brand,
			ReviewCount:      s.count,
			RatedCount:       s.rated,
			SatisfactionRate: float64(s.satisfied) / float64(s.count),
			MeanSentiment:    s.sentimentSum / float64(s.count),
		}
		if s.rated > 0 {
			sum.MeanRating = s.ratingSum / float64(s.rated)
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BrandID < out[j].BrandID })
	return out
}
