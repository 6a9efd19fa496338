// Package common holds the shared runtime plumbing for pipeline stages: the
// metrics contract and the parallel batch executor used by the
// embarrassingly-parallel per-document stages.
package common

import (
	"context"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics is the unified telemetry contract for pipeline runs.
// Stages record through this interface so the backing implementation
// (Prometheus, noop) can be swapped without touching stage code.
type PipelineMetrics interface {
	// RecordStage records one completed stage pass over a batch.
	RecordStage(ctx context.Context, stage string, items int, durationMs float64)

	// RecordSkippedRecord counts a malformed review rejected at ingestion.
	RecordSkippedRecord(ctx context.Context, reason string)

	// RecordTraining records a model fit with its outcome.
	RecordTraining(ctx context.Context, corpusSize int, durationMs float64, success bool)

	// RecordRun records a whole pipeline run.
	RecordRun(ctx context.Context, reviews int, durationMs float64, success bool)
}

const metricsPrefix = "brandpulse_pipeline_"

var stageDurationBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 15000, 60000}

type prometheusPipelineMetrics struct {
	stageDuration   *prometheus.HistogramVec
	stageItems      *prometheus.CounterVec
	skippedRecords  *prometheus.CounterVec
	trainingRuns    *prometheus.CounterVec
	trainingSeconds prometheus.Histogram
	runDuration     *prometheus.HistogramVec
	runReviews      prometheus.Counter
}

// NewPrometheusPipelineMetrics builds a Prometheus-backed collector and
// registers every metric with registerer (DefaultRegisterer when nil).
func NewPrometheusPipelineMetrics(registerer prometheus.Registerer) (PipelineMetrics, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &prometheusPipelineMetrics{
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metricsPrefix + "stage_duration_milliseconds",
			Help:    "Histogram of per-stage processing duration in milliseconds.",
			Buckets: stageDurationBuckets,
		}, []string{"stage"}),
		stageItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricsPrefix + "stage_items_total",
			Help: "Total items processed per stage.",
		}, []string{"stage"}),
		skippedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricsPrefix + "skipped_records_total",
			Help: "Total malformed review records skipped at ingestion.",
		}, []string{"reason"}),
		trainingRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricsPrefix + "training_runs_total",
			Help: "Total classifier training runs by outcome.",
		}, []string{"status"}),
		trainingSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    metricsPrefix + "training_duration_milliseconds",
			Help:    "Histogram of classifier training duration in milliseconds.",
			Buckets: stageDurationBuckets,
		}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metricsPrefix + "run_duration_milliseconds",
			Help:    "Histogram of whole pipeline run duration in milliseconds.",
			Buckets: stageDurationBuckets,
		}, []string{"status"}),
		runReviews: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricsPrefix + "run_reviews_total",
			Help: "Total reviews accepted into pipeline runs.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.stageDuration, m.stageItems, m.skippedRecords,
		m.trainingRuns, m.trainingSeconds, m.runDuration, m.runReviews,
	} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *prometheusPipelineMetrics) RecordStage(_ context.Context, stage string, items int, durationMs float64) {
	m.stageDuration.WithLabelValues(stage).Observe(durationMs)
	m.stageItems.WithLabelValues(stage).Add(float64(items))
}

func (m *prometheusPipelineMetrics) RecordSkippedRecord(_ context.Context, reason string) {
	m.skippedRecords.WithLabelValues(reason).Inc()
}

func (m *prometheusPipelineMetrics) RecordTraining(_ context.Context, _ int, durationMs float64, success bool) {
	m.trainingRuns.WithLabelValues(statusLabel(success)).Inc()
	m.trainingSeconds.Observe(durationMs)
}

func (m *prometheusPipelineMetrics) RecordRun(_ context.Context, reviews int, durationMs float64, success bool) {
	m.runDuration.WithLabelValues(statusLabel(success)).Observe(durationMs)
	m.runReviews.Add(float64(reviews))
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// noopPipelineMetrics discards all telemetry but keeps simple counters so
// tests can assert that stages report at all.
type noopPipelineMetrics struct {
	stages  atomic.Int64
	skipped atomic.Int64
	runs    atomic.Int64
}

// NewNoopPipelineMetrics returns a collector that records nothing externally.
func NewNoopPipelineMetrics() *NoopPipelineMetrics { return &NoopPipelineMetrics{} }

// NoopPipelineMetrics is the exported noop collector; see
// NewNoopPipelineMetrics.
type NoopPipelineMetrics struct {
	inner noopPipelineMetrics
}

func (m *NoopPipelineMetrics) RecordStage(context.Context, string, int, float64) {
	m.inner.stages.Add(1)
}

func (m *NoopPipelineMetrics) RecordSkippedRecord(context.Context, string) {
	m.inner.skipped.Add(1)
}

func (m *NoopPipelineMetrics) RecordTraining(context.Context, int, float64, bool) {}

func (m *NoopPipelineMetrics) RecordRun(context.Context, int, float64, bool) {
	m.inner.runs.Add(1)
}

// StageCount reports how many stage events were recorded.
func (m *NoopPipelineMetrics) StageCount() int64 { return m.inner.stages.Load() }

// SkippedCount reports how many skipped-record events were recorded.
func (m *NoopPipelineMetrics) SkippedCount() int64 { return m.inner.skipped.Load() }

var _ PipelineMetrics = (*NoopPipelineMetrics)(nil)
