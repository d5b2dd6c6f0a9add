package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 50, cfg.EmbeddingDim)
	assert.Equal(t, []string{"K1", "K2", "K3"}, cfg.Foundational)
	assert.Equal(t, 0.7, cfg.Tuning.Mastery.Alpha)
	assert.Equal(t, 3, cfg.Tuning.Recommend.BatchSize)
	assert.Equal(t, 0.05, cfg.Tuning.Decay.Floor)
}

func TestLoad_YAMLOverlaysDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "kgtutor.yaml")
	doc := `
data_dir: /srv/data
store:
  backend: memory
tuning:
  mastery:
    alpha: 0.5
  recommend:
    batch_size: 5
    strong_weights:
      coverage: 0.25
      relevance: 0.25
      difficulty: 0.25
      diversity: 0.25
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/data", cfg.DataDir)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, 0.5, cfg.Tuning.Mastery.Alpha)
	assert.Equal(t, 5, cfg.Tuning.Recommend.BatchSize)
	assert.Equal(t, 0.25, cfg.Tuning.Recommend.StrongWeights.Diversity)
	// Untouched keys keep their defaults.
	assert.Equal(t, 0.3, cfg.Tuning.Mastery.IncorrectStrength)
	assert.Equal(t, 0.4, cfg.Tuning.Recommend.DefaultWeights.Coverage)
}

func TestLoad_UnknownKey(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "kgtutor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tuning:\n  mastery:\n    alfa: 0.5\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "kgtutor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_mode: dev\n"), 0o644))

	t.Setenv("KGTUTOR_LOG_MODE", "prod")
	t.Setenv("KGTUTOR_FOUNDATIONAL", "K2, K5,")
	t.Setenv("KGTUTOR_BATCH_SIZE", "4")
	t.Setenv("KGTUTOR_MASTERY_THRESHOLD", "0.6")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.LogMode)
	assert.Equal(t, []string{"K2", "K5"}, cfg.Foundational)
	assert.Equal(t, 4, cfg.Tuning.Recommend.BatchSize)
	assert.Equal(t, 0.6, cfg.Tuning.Recommend.MasteryThreshold)
	assert.Equal(t, 0.6, cfg.Tuning.Diagnosis.MasteryThreshold)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("KGTUTOR_STORE=memory\n"), 0o644))
	// godotenv never overrides variables that are already set; make sure
	// this one is unset and cleaned up afterwards.
	t.Setenv("KGTUTOR_STORE", "")
	os.Unsetenv("KGTUTOR_STORE")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store.Backend)
}

func TestApplyEnv_BadNumbers(t *testing.T) {
	cfg := Default()
	env := map[string]string{
		"KGTUTOR_BATCH_SIZE": "three",
		"KGTUTOR_ALPHA":      "high",
	}
	err := applyEnv(&cfg, func(k string) string { return env[k] })
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "KGTUTOR_BATCH_SIZE"))
	assert.True(t, strings.Contains(err.Error(), "KGTUTOR_ALPHA"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative dim", func(c *Config) { c.EmbeddingDim = -1 }},
		{"log mode", func(c *Config) { c.LogMode = "verbose" }},
		{"backend", func(c *Config) { c.Store.Backend = "etcd" }},
		{"redis without address", func(c *Config) { c.Store.Backend = "redis" }},
		{"tuning", func(c *Config) { c.Tuning.Recommend.DifficultySigma = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestGraphOptions(t *testing.T) {
	cfg := Default()
	assert.Len(t, cfg.GraphOptions(), 2)
	cfg.Foundational = nil
	assert.Len(t, cfg.GraphOptions(), 1)
}
