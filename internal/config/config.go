// Package config defines all configuration structures for the
// BrandPulse-Analytics pipeline.  No I/O or parsing logic lives here — only
// plain data types and validation.
package config

import (
	"time"

	"github.com/turtacn/BrandPulse-Analytics/pkg/errors"
	"github.com/turtacn/BrandPulse-Analytics/pkg/types/review"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// AnalysisConfig holds every tunable of the core analysis pipeline.  All
// fields have defaults; Validate rejects incoherent combinations before
// anything runs.
type AnalysisConfig struct {
	MaxVocabSize int `mapstructure:"max_vocab_size"`
	NGramMin     int `mapstructure:"ngram_min"`
	NGramMax     int `mapstructure:"ngram_max"`

	// Stopwords overrides the locale stopword list when non-empty.
	Stopwords []string `mapstructure:"stopwords"`
	Locale    string   `mapstructure:"locale"`
	Stemming  bool     `mapstructure:"stemming"`

	SentimentLexiconVersion string `mapstructure:"sentiment_lexicon_version"`

	ClassifierLearningRate float64 `mapstructure:"classifier_learning_rate"`
	ClassifierNTrees       int     `mapstructure:"classifier_n_trees"`
	ClassifierMaxDepth     int     `mapstructure:"classifier_max_depth"`
	RowSubsample           float64 `mapstructure:"row_subsample"`
	ColSubsample           float64 `mapstructure:"col_subsample"`
	RandomSeed             int64   `mapstructure:"random_seed"`

	TimeBucketGranularity string `mapstructure:"time_bucket_granularity"`
	TopKTerms             int    `mapstructure:"top_k_terms"`
}

// DatabaseConfig holds PostgreSQL connection parameters for the prediction
// and metric stores.
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig holds Redis connection parameters for the metric cache.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds the review-ingestion consumer parameters.
type KafkaConfig struct {
	Enabled         bool     `mapstructure:"enabled"`
	Brokers         []string `mapstructure:"brokers"`
	Topic           string   `mapstructure:"topic"`
	GroupID         string   `mapstructure:"group_id"`
	AutoOffsetReset string   `mapstructure:"auto_offset_reset"` // "earliest" | "latest"
	MinBytes        int      `mapstructure:"min_bytes"`
	MaxBytes        int      `mapstructure:"max_bytes"`
	BatchSize       int      `mapstructure:"batch_size"`
	BatchWindow     time.Duration `mapstructure:"batch_window"`
}

// MinIOConfig holds the object-storage parameters for model artifacts.
type MinIOConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// WorkerConfig holds execution parameters for the parallel stages and the
// ingestion worker.
type WorkerConfig struct {
	Concurrency     int           `mapstructure:"concurrency"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"
	Output string `mapstructure:"output"`
}

// MetricsConfig holds the Prometheus exposition parameters for the worker.
type MetricsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ListenAddr string `mapstructure:"listen_addr"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration for the pipeline and its surrounding
// infrastructure.  Infrastructure sections are optional and only validated
// when enabled; the analysis section is always validated.
type Config struct {
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.  It
// returns the first error encountered; callers must treat any error as fatal
// and refuse to run.
func (c *Config) Validate() error {
	if err := c.Analysis.Validate(); err != nil {
		return err
	}

	if c.Database.Enabled {
		if c.Database.Host == "" {
			return errors.NewConfigurationError("database.host", "required when database is enabled")
		}
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return errors.NewConfigurationError("database.port", "out of range [1, 65535]")
		}
		if c.Database.User == "" {
			return errors.NewConfigurationError("database.user", "required when database is enabled")
		}
		if c.Database.DBName == "" {
			return errors.NewConfigurationError("database.db_name", "required when database is enabled")
		}
		if c.Database.MaxConns < 1 {
			return errors.NewConfigurationError("database.max_conns", "must be >= 1")
		}
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			return errors.NewConfigurationError("redis.addr", "required when redis is enabled")
		}
		if c.Redis.DB < 0 {
			return errors.NewConfigurationError("redis.db", "must be >= 0")
		}
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return errors.NewConfigurationError("kafka.brokers", "at least one broker address is required")
		}
		if c.Kafka.Topic == "" {
			return errors.NewConfigurationError("kafka.topic", "required when kafka is enabled")
		}
		if c.Kafka.GroupID == "" {
			return errors.NewConfigurationError("kafka.group_id", "required when kafka is enabled")
		}
		switch c.Kafka.AutoOffsetReset {
		case "earliest", "latest":
		default:
			return errors.NewConfigurationError("kafka.auto_offset_reset", "expected earliest or latest")
		}
	}

	if c.MinIO.Enabled {
		if c.MinIO.Endpoint == "" {
			return errors.NewConfigurationError("minio.endpoint", "required when minio is enabled")
		}
		if c.MinIO.Bucket == "" {
			return errors.NewConfigurationError("minio.bucket", "required when minio is enabled")
		}
	}

	if c.Worker.Concurrency < 1 {
		return errors.NewConfigurationError("worker.concurrency", "must be >= 1")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.NewConfigurationError("log.level", "expected debug, info, warn, or error")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return errors.NewConfigurationError("log.format", "expected json or console")
	}

	return nil
}

// Validate rejects incoherent analysis parameters.  Cross-field rules live
// here; per-stage packages re-validate the subset they consume.
func (a *AnalysisConfig) Validate() error {
	if a.MaxVocabSize < 1 {
		return errors.NewConfigurationError("max_vocab_size", "must be >= 1")
	}
	if a.NGramMin < 1 {
		return errors.NewConfigurationError("ngram_range", "minimum n-gram order must be >= 1")
	}
	if a.NGramMax < a.NGramMin {
		return errors.NewConfigurationError("ngram_range", "minimum n-gram order exceeds maximum")
	}
	if a.ClassifierLearningRate <= 0 || a.ClassifierLearningRate > 1 {
		return errors.NewConfigurationError("classifier_learning_rate", "must be in (0, 1]")
	}
	if a.ClassifierNTrees < 1 {
		return errors.NewConfigurationError("classifier_n_trees", "must be >= 1")
	}
	if a.ClassifierMaxDepth < 1 {
		return errors.NewConfigurationError("classifier_max_depth", "must be >= 1")
	}
	if a.RowSubsample <= 0 || a.RowSubsample > 1 {
		return errors.NewConfigurationError("row_subsample", "must be in (0, 1]")
	}
	if a.ColSubsample <= 0 || a.ColSubsample > 1 {
		return errors.NewConfigurationError("col_subsample", "must be in (0, 1]")
	}
	if !review.BucketGranularity(a.TimeBucketGranularity).Valid() {
		return errors.NewConfigurationError("time_bucket_granularity", "must be day, week, or month")
	}
	if a.TopKTerms < 1 {
		return errors.NewConfigurationError("top_k_terms", "must be >= 1")
	}
	return nil
}
