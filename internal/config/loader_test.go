package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ReadsFileAndAppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
analysis:
  max_vocab_size: 1000
  time_bucket_granularity: day
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.Analysis.MaxVocabSize)
	assert.Equal(t, "day", cfg.Analysis.TimeBucketGranularity)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Unset fields get defaults.
	assert.Equal(t, DefaultNTrees, cfg.Analysis.ClassifierNTrees)
	assert.Equal(t, DefaultLogFormat, cfg.Log.Format)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidCombinationFailsFast(t *testing.T) {
	path := writeConfigFile(t, `
analysis:
  ngram_min: 3
  ngram_max: 2
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("BRANDPULSE_ANALYSIS_MAX_VOCAB_SIZE", "250")
	t.Setenv("BRANDPULSE_LOG_LEVEL", "warn")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.Analysis.MaxVocabSize)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestMustLoad_PanicsOnError(t *testing.T) {
	assert.Panics(t, func() {
		MustLoad(filepath.Join(t.TempDir(), "absent.yaml"))
	})
}
