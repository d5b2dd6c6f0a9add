// Package store provides session.Store backends: in memory, SQLite and
// Redis. Every backend keeps learners in the export format of package
// learner and decodes them against the graph it was opened with.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abhisek/kgtutor/internal/knowledge"
	"github.com/abhisek/kgtutor/internal/learner"
	"github.com/abhisek/kgtutor/internal/logger"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Backend   string
	DBPath    string
	RedisAddr string
	// Keep is how many versions of each learner SQLite retains.
	Keep int
}

// Open returns the backend named by opts.Backend.
func Open(opts Options, g *knowledge.Graph, log *logger.Logger) (Backend, error) {
	switch opts.Backend {
	case "", BackendSQLite:
		path := opts.DBPath
		if path == "" {
			var err error
			if path, err = DefaultDBPath(); err != nil {
				return nil, err
			}
		}
		s, err := OpenSQLite(path, g, SQLiteOptions{Keep: opts.Keep, Logger: log})
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendRedis:
		r, err := OpenRedis(opts.RedisAddr, g, log)
		if err != nil {
			return nil, err
		}
		return r, nil
	case BackendMemory:
		return NewMemoryStore(g), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}

// decode rebuilds a learner from its export, logging dropped points.
func decode(data []byte, g *knowledge.Graph, log *logger.Logger) (*learner.State, error) {
	st, dropped, err := learner.Import(data, g)
	if err != nil {
		return nil, err
	}
	if len(dropped) > 0 {
		log.Warn("dropping unknown knowledge points from stored learner", "student", st.StudentID, "ids", dropped)
	}
	return st, nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. KGTUTOR_DB environment variable
// 2. $XDG_DATA_HOME/kgtutor/kgtutor.db
// 3. ~/.local/share/kgtutor/kgtutor.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("KGTUTOR_DB"); p != "" {
		return p, ensureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "kgtutor", "kgtutor.db")
	return p, ensureDir(p)
}

// ensureDir creates the parent directory of path if it doesn't exist.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
