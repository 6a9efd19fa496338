// Configuration loading: YAML file plus BRANDPULSE_* environment overrides.
package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix for all settings.
const envPrefix = "BRANDPULSE"

// newViper builds a pre-configured Viper instance: YAML file type,
// BRANDPULSE_ env prefix, automatic env binding, and a key replacer mapping
// "." to "_" so that nested keys like "database.host" resolve to
// "BRANDPULSE_DATABASE_HOST".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	registerKeys(v)
	return v
}

// registerKeys declares every configuration key to viper.  AutomaticEnv only
// surfaces environment variables for keys viper already knows about, so
// without this an env-only deployment would unmarshal an empty Config.
func registerKeys(v *viper.Viper) {
	for _, key := range []string{
		"analysis.max_vocab_size", "analysis.ngram_min", "analysis.ngram_max",
		"analysis.stopwords", "analysis.locale", "analysis.stemming",
		"analysis.sentiment_lexicon_version",
		"analysis.classifier_learning_rate", "analysis.classifier_n_trees",
		"analysis.classifier_max_depth", "analysis.row_subsample",
		"analysis.col_subsample", "analysis.random_seed",
		"analysis.time_bucket_granularity", "analysis.top_k_terms",
		"database.enabled", "database.host", "database.port", "database.user",
		"database.password", "database.db_name", "database.ssl_mode",
		"database.max_conns", "database.min_conns", "database.conn_max_lifetime",
		"redis.enabled", "redis.addr", "redis.password", "redis.db",
		"redis.pool_size", "redis.dial_timeout", "redis.read_timeout",
		"redis.write_timeout", "redis.default_ttl", "redis.key_prefix",
		"kafka.enabled", "kafka.brokers", "kafka.topic", "kafka.group_id",
		"kafka.auto_offset_reset", "kafka.min_bytes", "kafka.max_bytes",
		"kafka.batch_size", "kafka.batch_window",
		"minio.enabled", "minio.endpoint", "minio.access_key",
		"minio.secret_key", "minio.bucket", "minio.use_ssl",
		"worker.concurrency", "worker.shutdown_timeout",
		"log.level", "log.format", "log.output",
		"metrics.enabled", "metrics.listen_addr",
	} {
		v.SetDefault(key, nil)
	}
}

// Load reads the YAML file at configPath, merges BRANDPULSE_* environment
// overrides, applies defaults for unset fields, and validates the result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}
	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from BRANDPULSE_* environment
// variables with no config file.  Preferred for containerised deployments.
//
// Naming convention:
//
//	BRANDPULSE_<SECTION>_<FIELD>   e.g.  BRANDPULSE_DATABASE_HOST
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Watch monitors configPath and invokes onChange with the newly parsed
// Config whenever the file changes on disk.  Intended for hot-reloading
// non-critical settings such as log level; a change that fails to parse or
// validate is dropped without invoking onChange.  Non-blocking.
func Watch(configPath string, onChange func(*Config)) {
	v := newViper()
	v.SetConfigFile(configPath)
	_ = v.ReadInConfig()

	v.WatchConfig()
	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			return
		}
		onChange(cfg)
	})
}

// MustLoad wraps Load and panics on any error.  For use in main() where a
// config-load failure is always fatal.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}
