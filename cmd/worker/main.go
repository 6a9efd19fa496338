// Command worker is the streaming entry point: it consumes review batches
// from Kafka, runs the analysis pipeline over each batch, and persists the
// results to the enabled sinks (Postgres, MinIO, Redis).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/turtacn/BrandPulse-Analytics/internal/analytics/common"
	"github.com/turtacn/BrandPulse-Analytics/internal/config"
	"github.com/turtacn/BrandPulse-Analytics/internal/infrastructure/artifacts/minio"
	rediscache "github.com/turtacn/BrandPulse-Analytics/internal/infrastructure/cache/redis"
	ingestkafka "github.com/turtacn/BrandPulse-Analytics/internal/infrastructure/ingest/kafka"
	"github.com/turtacn/BrandPulse-Analytics/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/BrandPulse-Analytics/internal/infrastructure/storage/postgres"
	"github.com/turtacn/BrandPulse-Analytics/internal/pipeline"
	"github.com/turtacn/BrandPulse-Analytics/pkg/types/review"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (omit to configure from environment)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return err
	}
	if !cfg.Kafka.Enabled {
		return errors.New("kafka ingestion is disabled; the worker has no input source")
	}

	log, err := logging.NewLogger(logging.LogConfig{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		OutputPaths: outputPaths(cfg.Log.Output),
	})
	if err != nil {
		return err
	}
	log = log.Named("worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics, metricsSrv, err := setupMetrics(cfg.Metrics, log)
	if err != nil {
		return err
	}

	p, err := pipeline.New(cfg.Analysis,
		pipeline.WithLogger(log),
		pipeline.WithMetrics(metrics),
		pipeline.WithConcurrency(cfg.Worker.Concurrency),
	)
	if err != nil {
		return err
	}

	sinks, err := setupSinks(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer sinks.Close()

	consumer, err := ingestkafka.NewConsumer(cfg.Kafka, log, metrics)
	if err != nil {
		return err
	}

	log.Info("worker started",
		logging.String("topic", cfg.Kafka.Topic),
		logging.String("group_id", cfg.Kafka.GroupID),
		logging.Int("concurrency", cfg.Worker.Concurrency),
	)

	runErr := consumer.Run(ctx, func(batchCtx context.Context, reviews []review.Review) error {
		res, err := p.Run(batchCtx, reviews)
		if err != nil {
			return err
		}
		return sinks.Persist(batchCtx, res)
	})
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("consumer stopped", logging.Err(runErr))
	}

	log.Info("shutting down",
		logging.Int64("consumed", consumer.Consumed()),
		logging.Int64("skipped", consumer.Skipped()),
	)

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownTimeout)
		defer cancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			log.Warn("metrics server shutdown", logging.Err(err))
		}
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func outputPaths(output string) []string {
	if output == "" {
		return []string{"stdout"}
	}
	return []string{output}
}

// setupMetrics builds the pipeline metrics sink and, when exposition is
// enabled, starts an HTTP listener serving /metrics and /healthz.
func setupMetrics(cfg config.MetricsConfig, log logging.Logger) (common.PipelineMetrics, *http.Server, error) {
	if !cfg.Enabled {
		return common.NewNoopPipelineMetrics(), nil, nil
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := common.NewPrometheusPipelineMetrics(registry)
	if err != nil {
		return nil, nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("metrics listener started", logging.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics listener failed", logging.Err(err))
		}
	}()
	return metrics, srv, nil
}

// resultSinks holds the optional persistence targets for pipeline runs.
// Every field may be nil when its section of the configuration is disabled.
type resultSinks struct {
	pg        *postgres.Connection
	store     *postgres.Store
	artifacts *minio.ArtifactStore
	redis     *rediscache.Client
	cache     *rediscache.MetricCache
	log       logging.Logger
}

func setupSinks(ctx context.Context, cfg *config.Config, log logging.Logger) (*resultSinks, error) {
	sinks := &resultSinks{log: log.Named("sinks")}

	if cfg.Database.Enabled {
		if err := postgres.Migrate(cfg.Database, log); err != nil {
			return nil, err
		}
		conn, err := postgres.Connect(ctx, cfg.Database, log)
		if err != nil {
			return nil, err
		}
		sinks.pg = conn
		sinks.store = postgres.NewStore(conn, log)
	}

	if cfg.MinIO.Enabled {
		store, err := minio.NewArtifactStore(cfg.MinIO, log)
		if err != nil {
			sinks.Close()
			return nil, err
		}
		sinks.artifacts = store
	}

	if cfg.Redis.Enabled {
		client, err := rediscache.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			sinks.Close()
			return nil, err
		}
		sinks.redis = client
		sinks.cache = rediscache.NewMetricCache(client, cfg.Redis, log)
	}

	return sinks, nil
}

// Persist writes one pipeline result to every enabled sink.  A failure in
// one sink aborts the batch so the consumer does not commit its offsets.
func (s *resultSinks) Persist(ctx context.Context, res *pipeline.Result) error {
	if s.store != nil {
		sentiments := make(map[string]float64, len(res.Sentiments))
		for _, sc := range res.Sentiments {
			sentiments[sc.ReviewID] = sc.Polarity
		}
		if err := s.store.SaveRun(ctx, res.RunID, res.Predictions, sentiments, res.HealthMetrics); err != nil {
			return err
		}
	}

	if s.artifacts != nil && res.Artifact != nil {
		if err := s.artifacts.Put(ctx, res.RunID, res.Artifact); err != nil {
			return err
		}
	}

	if s.cache != nil {
		for _, m := range res.HealthMetrics {
			if err := s.cache.Put(ctx, m, "run", res.RunID, "brand", m.BrandID, m.Bucket.UTC().Format(time.RFC3339)); err != nil {
				return err
			}
		}
	}

	s.log.Info("run persisted",
		logging.String("run_id", res.RunID),
		logging.Int("predictions", len(res.Predictions)),
		logging.Int("brand_metrics", len(res.HealthMetrics)),
	)
	return nil
}

func (s *resultSinks) Close() {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.log.Warn("redis close", logging.Err(err))
		}
	}
	if s.pg != nil {
		s.pg.Close()
	}
}
