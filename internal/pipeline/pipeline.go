// Package pipeline orchestrates the full analysis run: validation,
// normalization, sentiment scoring, feature extraction, classifier training,
// per-review attribution, and brand-health aggregation.  The pipeline owns
// the stage ordering barriers (fit before transform, train before attribute)
// and the malformed-record skip policy; the stages themselves stay pure.
package pipeline

import (
	"context"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/BrandPulse-Analytics/internal/analytics/aggregate"
	"github.com/turtacn/BrandPulse-Analytics/internal/analytics/attribution"
	"github.com/turtacn/BrandPulse-Analytics/internal/analytics/classifier"
	"github.com/turtacn/BrandPulse-Analytics/internal/analytics/common"
	"github.com/turtacn/BrandPulse-Analytics/internal/analytics/features"
	"github.com/turtacn/BrandPulse-Analytics/internal/analytics/normalizer"
	"github.com/turtacn/BrandPulse-Analytics/internal/analytics/sentiment"
	"github.com/turtacn/BrandPulse-Analytics/internal/config"
	"github.com/turtacn/BrandPulse-Analytics/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/BrandPulse-Analytics/pkg/errors"
	"github.com/turtacn/BrandPulse-Analytics/pkg/types/review"
)

// Stage names reported to metrics and logs.
const (
	stageNormalize = "normalize"
	stageSentiment = "sentiment"
	stageTransform = "transform"
	stageAttribute = "attribute"
)

// Skip reasons reported to metrics.
const (
	skipMalformed = "malformed"
	skipDuplicate = "duplicate_id"
)

// SkippedRecord reports one input review that was rejected at the validation
// boundary and excluded from the run.
type SkippedRecord struct {
	ReviewID string `json:"review_id"`
	Reason   string `json:"reason"`
}

// Result is the complete output of one pipeline run.  Everything in it is
// recomputed from scratch; nothing carries over between runs.
type Result struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	// Model is the trained ensemble; nil for scoring-only runs would never
	// happen, ScoreWith reuses the artifact's model here.
	Model    *classifier.Model
	Artifact *Artifact

	Sentiments  []review.SentimentScore
	Predictions []review.Prediction

	HealthMetrics []review.BrandHealthMetric
	Summaries     []review.BrandSummary

	// TopSatisfied and TopDissatisfied are the corpus-level driving terms per
	// predicted class, ranked by signed mean attribution.
	TopSatisfied    []review.TermWeight
	TopDissatisfied []review.TermWeight

	Skipped      []SkippedRecord
	TrainingSize int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger replaces the no-op default logger.
func WithLogger(l logging.Logger) Option {
	return func(p *Pipeline) { p.log = l.Named("pipeline") }
}

// WithMetrics replaces the no-op default metrics collector.
func WithMetrics(m common.PipelineMetrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithConcurrency bounds the per-document worker fan-out.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// Pipeline wires the analysis stages together.  A Pipeline is immutable after
// New and safe to reuse across runs; each Run trains a fresh model.
type Pipeline struct {
	analysis   config.AnalysisConfig
	lex        *sentiment.Lexicon
	norm       *normalizer.Normalizer
	scorer     *sentiment.Scorer
	featureCfg features.Config
	trainCfg   classifier.Config
	aggCfg     aggregate.Config

	log         logging.Logger
	metrics     common.PipelineMetrics
	concurrency int
}

// New builds a Pipeline from the analysis configuration.  The sentiment cue
// tokens are registered as stopword exemptions so negations like "not"
// survive normalization and reach the scorer.
func New(cfg config.AnalysisConfig, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	lex := sentiment.DefaultLexicon()
	if v := cfg.SentimentLexiconVersion; v != "" && v != lex.Version() {
		return nil, errors.NewConfigurationError("sentiment_lexicon_version",
			"unknown lexicon "+v+", have "+lex.Version())
	}

	normCfg := normalizer.Config{
		Locale:   cfg.Locale,
		Preserve: lex.CueTokens(),
		Stemming: cfg.Stemming,
	}
	if len(cfg.Stopwords) > 0 {
		normCfg.Stopwords = make(map[string]struct{}, len(cfg.Stopwords))
		for _, w := range cfg.Stopwords {
			normCfg.Stopwords[w] = struct{}{}
		}
	}

	p := &Pipeline{
		analysis: cfg,
		lex:      lex,
		norm:     normalizer.New(normCfg),
		scorer:   sentiment.NewScorer(lex, sentiment.DefaultNegationWindow),
		featureCfg: features.Config{
			NGramMin:     cfg.NGramMin,
			NGramMax:     cfg.NGramMax,
			MaxVocabSize: cfg.MaxVocabSize,
		},
		trainCfg: classifier.Config{
			NumTrees:       cfg.ClassifierNTrees,
			MaxDepth:       cfg.ClassifierMaxDepth,
			LearningRate:   cfg.ClassifierLearningRate,
			RowSubsample:   cfg.RowSubsample,
			ColSubsample:   cfg.ColSubsample,
			Seed:           cfg.RandomSeed,
			LexiconVersion: lex.Version(),
		},
		aggCfg: aggregate.Config{
			Granularity: review.BucketGranularity(cfg.TimeBucketGranularity),
			TopK:        cfg.TopKTerms,
		},
		log:         logging.NewNopLogger(),
		metrics:     common.NewNoopPipelineMetrics(),
		concurrency: runtime.NumCPU(),
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Run executes the full train-and-score pipeline over one batch of reviews.
// Malformed records are skipped and reported, never fatal; an empty or
// single-class surviving corpus fails the run.
func (p *Pipeline) Run(ctx context.Context, reviews []review.Review) (*Result, error) {
	res, err := p.run(ctx, reviews, nil)
	return res, err
}

// ScoreWith executes a scoring-only run against a previously trained
// artifact: no fitting, no training, the artifact's feature space and
// ensemble are applied as-is.
func (p *Pipeline) ScoreWith(ctx context.Context, art *Artifact, reviews []review.Review) (*Result, error) {
	if art == nil || art.Model == nil {
		return nil, errors.NewInvalidInputError("scoring requires a trained artifact")
	}
	return p.run(ctx, reviews, art)
}

func (p *Pipeline) run(ctx context.Context, reviews []review.Review, art *Artifact) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: uuid.NewString(), StartedAt: start.UTC()}
	log := p.log.With(logging.String("run_id", res.RunID))
	log.Info("pipeline run started",
		logging.Int("reviews", len(reviews)),
		logging.Bool("training", art == nil))

	fail := func(err error) (*Result, error) {
		p.metrics.RecordRun(ctx, len(reviews), msSince(start), false)
		log.Error("pipeline run failed", logging.Err(err))
		return nil, err
	}

	valid := p.validate(ctx, reviews, res, log)
	if len(valid) == 0 {
		return fail(errors.NewEmptyCorpusError("pipeline.run"))
	}

	docs, err := p.normalize(ctx, valid, log)
	if err != nil {
		return fail(err)
	}

	scores, err := p.sentiments(ctx, docs, log)
	if err != nil {
		return fail(err)
	}
	res.Sentiments = scores

	var extractor *features.Extractor
	var model *classifier.Model
	if art != nil {
		extractor, err = features.Restore(art.Features)
		if err != nil {
			return fail(err)
		}
		model = art.Model
		res.Artifact = art
	} else {
		extractor = features.NewExtractor(p.featureCfg)
		if err := extractor.Fit(docs); err != nil {
			return fail(err)
		}
	}

	vecs, err := p.transform(ctx, extractor, docs, log)
	if err != nil {
		return fail(err)
	}

	if art == nil {
		model, err = p.train(ctx, valid, vecs, scores, extractor, log)
		if err != nil {
			return fail(err)
		}
		res.TrainingSize = model.Meta.CorpusSize

		state, err := extractor.State()
		if err != nil {
			return fail(err)
		}
		res.Artifact = NewArtifact(model, state)
	}
	res.Model = model

	if err := p.score(ctx, res, model, extractor, valid, vecs, scores, log); err != nil {
		return fail(err)
	}

	res.FinishedAt = time.Now().UTC()
	p.metrics.RecordRun(ctx, len(reviews), msSince(start), true)
	log.Info("pipeline run finished",
		logging.Int("scored", len(res.Predictions)),
		logging.Int("skipped", len(res.Skipped)),
		logging.Int("buckets", len(res.HealthMetrics)),
		logging.Duration("took", time.Since(start)))
	return res, nil
}

// validate applies the ingestion-boundary schema checks and drops duplicate
// ids, reporting every rejection.  It never fails the run by itself.
func (p *Pipeline) validate(ctx context.Context, reviews []review.Review, res *Result, log logging.Logger) []review.Review {
	valid := make([]review.Review, 0, len(reviews))
	seen := make(map[string]struct{}, len(reviews))
	for i := range reviews {
		r := reviews[i]
		if err := r.Validate(); err != nil {
			res.Skipped = append(res.Skipped, SkippedRecord{ReviewID: r.ID, Reason: err.Error()})
			p.metrics.RecordSkippedRecord(ctx, skipMalformed)
			log.Warn("skipping malformed review",
				logging.String("review_id", r.ID), logging.Err(err))
			continue
		}
		if _, dup := seen[r.ID]; dup {
			res.Skipped = append(res.Skipped, SkippedRecord{ReviewID: r.ID, Reason: "duplicate id"})
			p.metrics.RecordSkippedRecord(ctx, skipDuplicate)
			log.Warn("skipping duplicate review", logging.String("review_id", r.ID))
			continue
		}
		seen[r.ID] = struct{}{}
		valid = append(valid, r)
	}
	return valid
}

func (p *Pipeline) normalize(ctx context.Context, valid []review.Review, log logging.Logger) ([]normalizer.Document, error) {
	out, err := common.ParallelMap(ctx, valid,
		func(_ context.Context, r review.Review) (normalizer.Document, error) {
			return p.norm.Normalize(r.ID, r.RawText), nil
		},
		p.mapOpts(stageNormalize, log)...)
	if err != nil {
		return nil, err
	}
	if !out.Ok() {
		return nil, out.Failed[0].Err
	}
	return out.Results, nil
}

func (p *Pipeline) sentiments(ctx context.Context, docs []normalizer.Document, log logging.Logger) ([]review.SentimentScore, error) {
	out, err := common.ParallelMap(ctx, docs,
		func(_ context.Context, d normalizer.Document) (review.SentimentScore, error) {
			return p.scorer.Score(d), nil
		},
		p.mapOpts(stageSentiment, log)...)
	if err != nil {
		return nil, err
	}
	if !out.Ok() {
		return nil, out.Failed[0].Err
	}
	return out.Results, nil
}

func (p *Pipeline) transform(ctx context.Context, extractor *features.Extractor, docs []normalizer.Document, log logging.Logger) ([]features.Vector, error) {
	out, err := common.ParallelMap(ctx, docs,
		func(_ context.Context, d normalizer.Document) (features.Vector, error) {
			return extractor.Transform(d), nil
		},
		p.mapOpts(stageTransform, log)...)
	if err != nil {
		return nil, err
	}
	if !out.Ok() {
		return nil, out.Failed[0].Err
	}
	return out.Results, nil
}

// train fits the ensemble on the labeled subset of the corpus.  Unlabeled
// reviews are scored later but contribute nothing to training.
func (p *Pipeline) train(ctx context.Context, valid []review.Review, vecs []features.Vector, scores []review.SentimentScore, extractor *features.Extractor, log logging.Logger) (*classifier.Model, error) {
	var (
		trainVecs   []features.Vector
		trainSents  []float64
		trainLabels []review.Label
	)
	for i := range valid {
		label := valid[i].EffectiveLabel()
		if label == review.LabelUnknown {
			continue
		}
		trainVecs = append(trainVecs, vecs[i])
		trainSents = append(trainSents, scores[i].Polarity)
		trainLabels = append(trainLabels, label)
	}

	start := time.Now()
	model, err := classifier.NewTrainer(p.trainCfg).Fit(
		trainVecs, trainSents, trainLabels, extractor.Vocabulary().Len())
	p.metrics.RecordTraining(ctx, len(trainVecs), msSince(start), err == nil)
	if err != nil {
		return nil, err
	}
	log.Info("classifier trained",
		logging.Int("corpus", model.Meta.CorpusSize),
		logging.Int("satisfied", model.Meta.PositiveCount),
		logging.Int("dissatisfied", model.Meta.NegativeCount),
		logging.Int("vocab", model.Meta.VocabSize),
		logging.Int64("seed", model.Meta.Seed))
	return model, nil
}

// scored carries one attributed prediction through the fan-out.
type scored struct {
	pred review.Prediction
	phi  map[int]float64
}

// score predicts and attributes every valid review, then aggregates.
func (p *Pipeline) score(ctx context.Context, res *Result, model *classifier.Model, extractor *features.Extractor, valid []review.Review, vecs []features.Vector, scores []review.SentimentScore, log logging.Logger) error {
	engine := attribution.NewEngine(model)
	namer := attribution.NewTermNamer(extractor.Vocabulary(), model.SentimentIndex)

	idx := make([]int, len(valid))
	for i := range idx {
		idx[i] = i
	}
	out, err := common.ParallelMap(ctx, idx,
		func(_ context.Context, i int) (scored, error) {
			vec, polarity := vecs[i], scores[i].Polarity
			label, prob := model.Predict(vec, polarity)
			phi := engine.Attribute(vec, polarity)
			return scored{
				pred: review.Prediction{
					ReviewID:     valid[i].ID,
					BrandID:      valid[i].BrandID,
					Label:        label,
					Probability:  prob,
					Attributions: namer.Terms(phi),
				},
				phi: phi,
			}, nil
		},
		p.mapOpts(stageAttribute, log)...)
	if err != nil {
		return err
	}
	if !out.Ok() {
		return out.Failed[0].Err
	}

	res.Predictions = make([]review.Prediction, len(valid))
	instances := make([]aggregate.Instance, len(valid))
	phis := make([]map[int]float64, len(valid))
	predByID := make(map[string]review.Prediction, len(valid))
	sentByID := make(map[string]float64, len(valid))
	for i, s := range out.Results {
		res.Predictions[i] = s.pred
		phis[i] = s.phi
		predByID[s.pred.ReviewID] = s.pred
		sentByID[s.pred.ReviewID] = scores[i].Polarity
		instances[i] = aggregate.Instance{
			Prediction:   s.pred,
			Sentiment:    scores[i].Polarity,
			Timestamp:    valid[i].Timestamp,
			Attributions: s.phi,
		}
	}

	metrics, err := aggregate.New(p.aggCfg, namer).Aggregate(instances)
	if err != nil {
		return err
	}
	res.HealthMetrics = metrics
	res.Summaries = aggregate.Summaries(valid, predByID, sentByID)
	res.TopSatisfied, res.TopDissatisfied = attribution.TopTermsByClass(phis, namer, p.aggCfg.TopK)
	return nil
}

func (p *Pipeline) mapOpts(stage string, log logging.Logger) []common.MapOption {
	return []common.MapOption{
		common.WithConcurrency(p.concurrency),
		common.WithStage(stage),
		common.WithLogger(log),
		common.WithMetrics(p.metrics),
	}
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000.0
}
