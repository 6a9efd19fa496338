package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/BrandPulse-Analytics/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/BrandPulse-Analytics/pkg/errors"
	"github.com/turtacn/BrandPulse-Analytics/pkg/types/review"
)

// Store persists the outputs of one pipeline run.  A run's rows are written
// in a single transaction keyed by run id, so readers never observe a
// half-written run.
type Store struct {
	pool *pgxpool.Pool
	log  logging.Logger
}

// NewStore builds a Store over an established connection.
func NewStore(conn *Connection, log logging.Logger) *Store {
	return &Store{pool: conn.Pool(), log: log.Named("store")}
}

// SaveRun writes all predictions and brand metrics of a run atomically.
// Sentiments are keyed by review id and stored alongside each prediction.
func (s *Store) SaveRun(ctx context.Context, runID string, preds []review.Prediction, sentiments map[string]float64, metrics []review.BrandHealthMetric) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "begin run transaction")
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, p := range preds {
		attrs, err := json.Marshal(p.Attributions)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "marshal attributions")
		}
		batch.Queue(
			`INSERT INTO predictions
			   (run_id, review_id, brand_id, label, probability, sentiment, attributions)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			runID, p.ReviewID, p.BrandID, string(p.Label), p.Probability,
			sentiments[p.ReviewID], attrs)
	}
	for _, m := range metrics {
		terms, err := json.Marshal(m.TopTerms)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "marshal top terms")
		}
		batch.Queue(
			`INSERT INTO brand_metrics
			   (run_id, brand_id, bucket, granularity, review_count, mean_sentiment, satisfaction_rate, top_terms)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			runID, m.BrandID, m.Bucket, string(m.Granularity), m.ReviewCount,
			m.MeanSentiment, m.SatisfactionRate, terms)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "write run rows")
	}
	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "commit run transaction")
	}

	s.log.Info("run persisted",
		logging.String("run_id", runID),
		logging.Int("predictions", len(preds)),
		logging.Int("metrics", len(metrics)))
	return nil
}

// BrandMetrics loads the stored metrics of one run for a brand, ordered by
// bucket start.
func (s *Store) BrandMetrics(ctx context.Context, runID, brandID string) ([]review.BrandHealthMetric, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT brand_id, bucket, granularity, review_count, mean_sentiment, satisfaction_rate, top_terms
		   FROM brand_metrics
		  WHERE run_id = $1 AND brand_id = $2
		  ORDER BY bucket`,
		runID, brandID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "query brand metrics")
	}
	defer rows.Close()

	var out []review.BrandHealthMetric
	for rows.Next() {
		var m review.BrandHealthMetric
		var granularity string
		var terms []byte
		if err := rows.Scan(&m.BrandID, &m.Bucket, &granularity, &m.ReviewCount,
			&m.MeanSentiment, &m.SatisfactionRate, &terms); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeStorage, "scan brand metric")
		}
		m.Granularity = review.BucketGranularity(granularity)
		if err := json.Unmarshal(terms, &m.TopTerms); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "unmarshal top terms")
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "iterate brand metrics")
	}
	return out, nil
}

// Predictions loads the stored predictions of one run, ordered by review id.
func (s *Store) Predictions(ctx context.Context, runID string) ([]review.Prediction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT review_id, brand_id, label, probability, attributions
		   FROM predictions
		  WHERE run_id = $1
		  ORDER BY review_id`,
		runID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "query predictions")
	}
	defer rows.Close()

	var out []review.Prediction
	for rows.Next() {
		var p review.Prediction
		var label string
		var attrs []byte
		if err := rows.Scan(&p.ReviewID, &p.BrandID, &label, &p.Probability, &attrs); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeStorage, "scan prediction")
		}
		p.Label = review.Label(label)
		if err := json.Unmarshal(attrs, &p.Attributions); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "unmarshal attributions")
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "iterate predictions")
	}
	return out, nil
}
