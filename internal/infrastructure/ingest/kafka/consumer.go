// Package kafka consumes raw review records from the ingestion topic and
// hands them to the pipeline in batches.  Records that fail to decode are
// reported and skipped; a bad message never stalls the partition.
package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/turtacn/BrandPulse-Analytics/internal/analytics/common"
	"github.com/turtacn/BrandPulse-Analytics/internal/config"
	"github.com/turtacn/BrandPulse-Analytics/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/BrandPulse-Analytics/pkg/errors"
	"github.com/turtacn/BrandPulse-Analytics/pkg/types/review"
)

// BatchHandler receives one decoded batch.  A handler error stops the
// consumer loop; the batch's offsets are not committed so the records are
// redelivered.
type BatchHandler func(ctx context.Context, batch []review.Review) error

// reader abstracts kafka.Reader for testing.
type reader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Consumer reads review records and groups them into size- or time-bounded
// batches.
type Consumer struct {
	reader  reader
	cfg     config.KafkaConfig
	log     logging.Logger
	metrics common.PipelineMetrics

	consumed atomic.Int64
	skipped  atomic.Int64
}

// NewConsumer builds a Consumer from config.  Offsets start at the earliest
// message unless auto_offset_reset says otherwise.
func NewConsumer(cfg config.KafkaConfig, log logging.Logger, metrics common.PipelineMetrics) (*Consumer, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" || cfg.GroupID == "" {
		return nil, errors.NewConfigurationError("kafka", "brokers, topic, and group_id are required")
	}

	startOffset := kafkago.FirstOffset
	if cfg.AutoOffsetReset == "latest" {
		startOffset = kafkago.LastOffset
	}
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.Topic,
		MinBytes:    cfg.MinBytes,
		MaxBytes:    cfg.MaxBytes,
		StartOffset: startOffset,
	})
	return newConsumer(r, cfg, log, metrics), nil
}

func newConsumer(r reader, cfg config.KafkaConfig, log logging.Logger, metrics common.PipelineMetrics) *Consumer {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	if cfg.BatchWindow <= 0 {
		cfg.BatchWindow = 30 * time.Second
	}
	if metrics == nil {
		metrics = common.NewNoopPipelineMetrics()
	}
	return &Consumer{reader: r, cfg: cfg, log: log.Named("ingest.kafka"), metrics: metrics}
}

// Consumed returns the number of successfully decoded records.
func (c *Consumer) Consumed() int64 { return c.consumed.Load() }

// Skipped returns the number of undecodable records dropped.
func (c *Consumer) Skipped() int64 { return c.skipped.Load() }

// Run consumes until ctx is cancelled or the handler fails.  Batches flush
// when they reach batch_size or when batch_window elapses with at least one
// record pending.
func (c *Consumer) Run(ctx context.Context, handle BatchHandler) error {
	if handle == nil {
		return errors.NewInvalidInputError("batch handler must not be nil")
	}
	defer c.reader.Close()

	var (
		batch    []review.Review
		pending  []kafkago.Message
		deadline time.Time
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := handle(ctx, batch); err != nil {
			return err
		}
		if err := c.reader.CommitMessages(ctx, pending...); err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "commit offsets")
		}
		c.log.Debug("batch dispatched", logging.Int("records", len(batch)))
		batch, pending = nil, nil
		return nil
	}

	for {
		fetchCtx := ctx
		var cancel context.CancelFunc
		if len(batch) > 0 {
			fetchCtx, cancel = context.WithDeadline(ctx, deadline)
		}
		msg, err := c.reader.FetchMessage(fetchCtx)
		if cancel != nil {
			cancel()
		}

		switch {
		case err == nil:
			r, decodeErr := decode(msg.Value)
			if decodeErr != nil {
				c.skipped.Add(1)
				c.metrics.RecordSkippedRecord(ctx, "undecodable")
				c.log.Warn("dropping undecodable record",
					logging.Int64("offset", msg.Offset), logging.Err(decodeErr))
				pending = append(pending, msg)
				continue
			}
			c.consumed.Add(1)
			if len(batch) == 0 {
				deadline = time.Now().Add(c.cfg.BatchWindow)
			}
			batch = append(batch, r)
			pending = append(pending, msg)
			if len(batch) >= c.cfg.BatchSize {
				if err := flush(); err != nil {
					return err
				}
			}

		case ctx.Err() != nil:
			// Shutdown: hand off what we have, then stop.
			if ferr := flush(); ferr != nil {
				return ferr
			}
			return ctx.Err()

		case len(batch) > 0 && errors.Is(err, context.DeadlineExceeded):
			// Window elapsed with a partial batch.
			if err := flush(); err != nil {
				return err
			}

		default:
			return errors.Wrap(err, errors.ErrCodeInternal, "fetch message")
		}
	}
}

// decode parses one record off the wire.
func decode(value []byte) (review.Review, error) {
	var r review.Review
	if err := json.Unmarshal(value, &r); err != nil {
		return review.Review{}, errors.Wrap(err, errors.ErrCodeDecodeFailed, "unmarshal review record")
	}
	return r, nil
}
