// Package config assembles the runtime configuration from defaults, an
// optional YAML file, a .env file and KGTUTOR_* environment variables, in
// increasing order of precedence. Command-line flags are applied on top by
// the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/kgtutor/internal/knowledge"
	"github.com/abhisek/kgtutor/internal/session"
	"github.com/abhisek/kgtutor/internal/store"
)

// Config holds all runtime configuration.
type Config struct {
	// DataDir holds embeddings.csv, knowledge_graph.csv and
	// question_bank.json. Empty means the bundled sample data.
	DataDir string `yaml:"data_dir"`

	// EmbeddingDim is the required embedding dimension. 0 accepts the
	// dimension of the data.
	EmbeddingDim int `yaml:"embedding_dim"`

	// Foundational are the cold-start seed points.
	Foundational []string `yaml:"foundational"`

	// LogMode is "dev" or "prod".
	LogMode string `yaml:"log_mode"`

	Store  StoreConfig    `yaml:"store"`
	Tuning session.Config `yaml:"tuning"`
}

// StoreConfig selects where learner states live.
type StoreConfig struct {
	// Backend is "sqlite", "redis" or "memory".
	Backend   string `yaml:"backend"`
	DBPath    string `yaml:"db_path"`
	RedisAddr string `yaml:"redis_addr"`
	// Keep is how many versions of each learner SQLite retains.
	Keep int `yaml:"keep"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		EmbeddingDim: knowledge.DefaultDim,
		Foundational: []string{"K1", "K2", "K3"},
		LogMode:      "dev",
		Store: StoreConfig{
			Backend: store.BackendSQLite,
			Keep:    store.DefaultKeep,
		},
		Tuning: session.DefaultConfig(),
	}
}

// Load builds a Config. A .env file in the working directory is loaded
// into the environment first when present. path names an optional YAML
// file; an empty path skips it.
func Load(path string) (Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := decodeYAML(f, &cfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, os.Getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// decodeYAML overlays the document in r onto cfg. Unknown keys are errors.
func decodeYAML(r io.Reader, cfg *Config) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyEnv overlays KGTUTOR_* variables read through getenv.
func applyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("KGTUTOR_DATA"); v != "" {
		cfg.DataDir = v
	}
	if v := getenv("KGTUTOR_DB"); v != "" {
		cfg.Store.DBPath = v
	}
	if v := getenv("KGTUTOR_STORE"); v != "" {
		cfg.Store.Backend = v
	}
	if v := getenv("KGTUTOR_REDIS_ADDR"); v != "" {
		cfg.Store.RedisAddr = v
	}
	if v := getenv("KGTUTOR_LOG_MODE"); v != "" {
		cfg.LogMode = v
	}
	if v := getenv("KGTUTOR_FOUNDATIONAL"); v != "" {
		cfg.Foundational = splitList(v)
	}

	var errs []error
	intVar := func(key string, dst *int) {
		if v := getenv(key); v != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s=%q is not an integer", key, v))
				return
			}
			*dst = n
		}
	}
	floatVar := func(key string, dsts ...*float64) {
		if v := getenv(key); v != "" {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s=%q is not a number", key, v))
				return
			}
			for _, d := range dsts {
				*d = f
			}
		}
	}

	t := &cfg.Tuning
	intVar("KGTUTOR_EMBEDDING_DIM", &cfg.EmbeddingDim)
	intVar("KGTUTOR_STORE_KEEP", &cfg.Store.Keep)
	intVar("KGTUTOR_BATCH_SIZE", &t.Recommend.BatchSize)
	intVar("KGTUTOR_REVIEW_SLOTS", &t.Recommend.ReviewSlots)
	floatVar("KGTUTOR_ALPHA", &t.Mastery.Alpha)
	floatVar("KGTUTOR_MASTERY_THRESHOLD", &t.Recommend.MasteryThreshold, &t.Diagnosis.MasteryThreshold)
	floatVar("KGTUTOR_WEAK_THRESHOLD", &t.Diagnosis.Threshold)
	floatVar("KGTUTOR_DIFFICULTY_SIGMA", &t.Recommend.DifficultySigma)
	floatVar("KGTUTOR_DECAY_FLOOR", &t.Decay.Floor)
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.EmbeddingDim < 0 {
		return fmt.Errorf("embedding dim must be >= 0, got %d", c.EmbeddingDim)
	}
	switch strings.ToLower(c.LogMode) {
	case "", "dev", "development", "prod", "production":
	default:
		return fmt.Errorf("unknown log mode: %q", c.LogMode)
	}
	switch c.Store.Backend {
	case store.BackendSQLite, store.BackendMemory:
	case store.BackendRedis:
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("KGTUTOR_REDIS_ADDR is required for the redis store")
		}
	default:
		return fmt.Errorf("unknown store backend: %q", c.Store.Backend)
	}
	if err := c.Tuning.Validate(); err != nil {
		return fmt.Errorf("tuning: %w", err)
	}
	return nil
}

// GraphOptions returns the knowledge-graph build options implied by c.
func (c Config) GraphOptions() []knowledge.Option {
	opts := []knowledge.Option{knowledge.WithDim(c.EmbeddingDim)}
	if len(c.Foundational) > 0 {
		opts = append(opts, knowledge.WithFoundational(c.Foundational...))
	}
	return opts
}

// StoreOptions returns the options for store.Open.
func (c Config) StoreOptions() store.Options {
	return store.Options{
		Backend:   c.Store.Backend,
		DBPath:    c.Store.DBPath,
		RedisAddr: c.Store.RedisAddr,
		Keep:      c.Store.Keep,
	}
}
