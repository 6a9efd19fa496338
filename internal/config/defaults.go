package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultMaxVocabSize   = 20000
	DefaultNGramMin       = 1
	DefaultNGramMax       = 3
	DefaultLocale         = "en"
	DefaultLexiconVersion = "drugreview-en-1"

	DefaultLearningRate = 0.1
	DefaultNTrees       = 50
	DefaultMaxDepth     = 3
	DefaultRowSubsample = 0.8
	DefaultColSubsample = 0.8
	DefaultRandomSeed   = 42

	DefaultGranularity = "week"
	DefaultTopKTerms   = 10

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "brandpulse"
	DefaultDBMaxConns = 25

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisKeyPrefix = "brandpulse:"

	DefaultKafkaBroker  = "localhost:9092"
	DefaultKafkaTopic   = "reviews.raw"
	DefaultKafkaGroupID = "brandpulse-ingest"

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "brandpulse-models"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultWorkerConcurrency = 8

	DefaultMetricsListenAddr = ":9090"
)

// ApplyDefaults fills every zero-value field in cfg with the stock default.
// Fields already set by the caller are left unchanged so that explicit
// configuration always wins.  Call after unmarshalling and before Validate.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Analysis ──────────────────────────────────────────────────────────────
	a := &cfg.Analysis
	if a.MaxVocabSize == 0 {
		a.MaxVocabSize = DefaultMaxVocabSize
	}
	if a.NGramMin == 0 {
		a.NGramMin = DefaultNGramMin
	}
	if a.NGramMax == 0 {
		a.NGramMax = DefaultNGramMax
	}
	if a.Locale == "" {
		a.Locale = DefaultLocale
	}
	if a.SentimentLexiconVersion == "" {
		a.SentimentLexiconVersion = DefaultLexiconVersion
	}
	if a.ClassifierLearningRate == 0 {
		a.ClassifierLearningRate = DefaultLearningRate
	}
	if a.ClassifierNTrees == 0 {
		a.ClassifierNTrees = DefaultNTrees
	}
	if a.ClassifierMaxDepth == 0 {
		a.ClassifierMaxDepth = DefaultMaxDepth
	}
	if a.RowSubsample == 0 {
		a.RowSubsample = DefaultRowSubsample
	}
	if a.ColSubsample == 0 {
		a.ColSubsample = DefaultColSubsample
	}
	if a.RandomSeed == 0 {
		a.RandomSeed = DefaultRandomSeed
	}
	if a.TimeBucketGranularity == "" {
		a.TimeBucketGranularity = DefaultGranularity
	}
	if a.TopKTerms == 0 {
		a.TopKTerms = DefaultTopKTerms
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = time.Hour
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = 15 * time.Minute
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = 5 * time.Second
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = DefaultKafkaTopic
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = "earliest"
	}
	if cfg.Kafka.MinBytes == 0 {
		cfg.Kafka.MinBytes = 1
	}
	if cfg.Kafka.MaxBytes == 0 {
		cfg.Kafka.MaxBytes = 10 << 20
	}
	if cfg.Kafka.BatchSize == 0 {
		cfg.Kafka.BatchSize = 500
	}
	if cfg.Kafka.BatchWindow == 0 {
		cfg.Kafka.BatchWindow = 30 * time.Second
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.ShutdownTimeout == 0 {
		cfg.Worker.ShutdownTimeout = 30 * time.Second
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.ListenAddr == "" {
		cfg.Metrics.ListenAddr = DefaultMetricsListenAddr
	}
}
