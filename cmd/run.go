package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/kgtutor/internal/config"
	"github.com/abhisek/kgtutor/internal/dataset"
	"github.com/abhisek/kgtutor/internal/logger"
	"github.com/abhisek/kgtutor/internal/session"
	"github.com/abhisek/kgtutor/internal/store"
)

// env is what a command needs: configuration, logger, loaded data and,
// for commands that touch learners, a store and a tutor.
type env struct {
	cfg   config.Config
	log   *logger.Logger
	data  *dataset.Dataset
	store store.Backend
	tutor *session.Tutor
}

// loadConfig reads the config file named by --config or KGTUTOR_CONFIG and
// applies the global flags on top.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = os.Getenv("KGTUTOR_CONFIG")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}

	if v, _ := cmd.Flags().GetString("data"); v != "" {
		cfg.DataDir = v
	}
	if v, _ := cmd.Flags().GetString("db"); v != "" {
		cfg.Store.DBPath = v
	}
	if v, _ := cmd.Flags().GetString("store"); v != "" {
		cfg.Store.Backend = v
	}
	if v, _ := cmd.Flags().GetString("log-mode"); v != "" {
		cfg.LogMode = v
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// openData loads configuration, logger and data, without a store.
func openData(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	data, err := dataset.Load(cfg.DataDir, cfg.GraphOptions()...)
	if err != nil {
		log.Sync()
		return nil, err
	}
	log.Debug("loaded data",
		"dir", cfg.DataDir,
		"points", data.Graph.Len(),
		"questions", data.Bank.Len(),
		"dim", data.Graph.Dim(),
	)
	return &env{cfg: cfg, log: log, data: data}, nil
}

// openTutor is openData plus the learner store and the tutor over it.
func openTutor(cmd *cobra.Command) (*env, error) {
	e, err := openData(cmd)
	if err != nil {
		return nil, err
	}
	e.store, err = store.Open(e.cfg.StoreOptions(), e.data.Graph, e.log)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	e.tutor, err = session.New(e.data.Graph, e.data.Bank, e.cfg.Tuning, e.store, session.WithLogger(e.log))
	if err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *env) Close() {
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			e.log.Warn("close store", "error", err)
		}
	}
	e.log.Sync()
}

func wantJSON(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
