package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/abhisek/kgtutor/internal/knowledge"
	"github.com/abhisek/kgtutor/internal/learner"
	"github.com/abhisek/kgtutor/internal/logger"
	"github.com/abhisek/kgtutor/internal/session"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

const snapshotTable = "learner_snapshots"

// DefaultKeep is how many versions of a learner are retained by default.
const DefaultKeep = 5

// SQLiteOptions configures OpenSQLite.
type SQLiteOptions struct {
	// Keep is how many versions of each learner are retained; 0 means
	// DefaultKeep.
	Keep   int
	Logger *logger.Logger
}

// SQLiteStore keeps every learner as a series of versioned snapshots in a
// single SQLite table. Get returns the newest version; Put appends one and
// prunes the oldest beyond Keep.
type SQLiteStore struct {
	db    *sql.DB
	graph *knowledge.Graph
	keep  int
	log   *logger.Logger
	now   func() time.Time
}

// Version describes one stored snapshot of a learner.
type Version struct {
	ID        string
	Version   int
	Format    string
	CreatedAt time.Time
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string, g *knowledge.Graph, opts SQLiteOptions) (*SQLiteStore, error) {
	if err := ensureDir(path); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	// One writer at a time; Put reads then writes inside a transaction.
	db.SetMaxOpenConns(1)

	keep := opts.Keep
	if keep <= 0 {
		keep = DefaultKeep
	}
	return &SQLiteStore{
		db:    db,
		graph: g,
		keep:  keep,
		log:   logger.OrNop(opts.Logger).With("store", "sqlite"),
		now:   time.Now,
	}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

// Close closes the database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func builder() *entsql.DialectBuilder { return entsql.Dialect(dialect.SQLite) }

func (s *SQLiteStore) Get(ctx context.Context, studentID string) (*learner.State, error) {
	query, args := builder().
		Select("data").
		From(entsql.Table(snapshotTable)).
		Where(entsql.EQ("student_id", studentID)).
		OrderBy(entsql.Desc("version")).
		Limit(1).
		Query()

	var data string
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%q: %w", studentID, session.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query learner %q: %w", studentID, err)
	}
	return decode([]byte(data), s.graph, s.log)
}

func (s *SQLiteStore) Put(ctx context.Context, st *learner.State) error {
	data, err := st.Export()
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	query, args := builder().
		Select(entsql.Max("version")).
		From(entsql.Table(snapshotTable)).
		Where(entsql.EQ("student_id", st.StudentID)).
		Query()
	var latest sql.NullInt64
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&latest); err != nil {
		return fmt.Errorf("query latest version: %w", err)
	}
	version := int(latest.Int64) + 1

	query, args = builder().
		Insert(snapshotTable).
		Columns("id", "student_id", "version", "format", "data", "created_at").
		Values(uuid.NewString(), st.StudentID, version, learner.FormatVersion, string(data), s.now().UTC().Format(time.RFC3339Nano)).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save learner %q: %w", st.StudentID, err)
	}

	if cutoff := version - s.keep; cutoff > 0 {
		query, args = builder().
			Delete(snapshotTable).
			Where(entsql.And(
				entsql.EQ("student_id", st.StudentID),
				entsql.LTE("version", cutoff),
			)).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("prune learner %q: %w", st.StudentID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Remove(ctx context.Context, studentID string) error {
	query, args := builder().
		Delete(snapshotTable).
		Where(entsql.EQ("student_id", studentID)).
		Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("remove learner %q: %w", studentID, err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	query, args := builder().
		Select("student_id").
		Distinct().
		From(entsql.Table(snapshotTable)).
		OrderBy("student_id").
		Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list learners: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan learner id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Versions returns the retained snapshots of a learner, newest first.
func (s *SQLiteStore) Versions(ctx context.Context, studentID string) ([]Version, error) {
	query, args := builder().
		Select("id", "version", "format", "created_at").
		From(entsql.Table(snapshotTable)).
		Where(entsql.EQ("student_id", studentID)).
		OrderBy(entsql.Desc("version")).
		Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query versions of %q: %w", studentID, err)
	}
	defer rows.Close()

	var out []Version
	for rows.Next() {
		var v Version
		var created string
		if err := rows.Scan(&v.ID, &v.Version, &v.Format, &created); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		if v.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("parse created_at of %s: %w", v.ID, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
