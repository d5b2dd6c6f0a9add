// Package session is the facade over the recommendation core. A Tutor loads
// a learner's state from a Store, runs one operation on it and writes it
// back. Calls for the same learner are serialized; calls for different
// learners run in parallel.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/kgtutor/internal/diagnosis"
	"github.com/abhisek/kgtutor/internal/knowledge"
	"github.com/abhisek/kgtutor/internal/learner"
	"github.com/abhisek/kgtutor/internal/logger"
	"github.com/abhisek/kgtutor/internal/mastery"
	"github.com/abhisek/kgtutor/internal/questionbank"
	"github.com/abhisek/kgtutor/internal/recommend"
	"github.com/abhisek/kgtutor/internal/spacedrep"
)

// ExistingPolicy decides what StartSession does for a learner that is
// already stored.
type ExistingPolicy int

const (
	// RejectExisting fails with ErrExists.
	RejectExisting ExistingPolicy = iota
	// ResetExisting discards the stored state and starts over.
	ResetExisting
	// ResumeExisting keeps the stored state after a decay pass.
	ResumeExisting
)

// Tutor runs the core operations against stored learner states.
type Tutor struct {
	graph     *knowledge.Graph
	bank      *questionbank.Bank
	cfg       Config
	updater   *mastery.Updater
	engine    *recommend.Engine
	analyzer  *diagnosis.Analyzer
	scheduler *spacedrep.Scheduler
	store     Store
	log       *logger.Logger
	now       func() time.Time

	mu    sync.Mutex
	locks map[string]*learnerLock
}

// Option configures a Tutor.
type Option func(*Tutor)

// WithLogger sets the logger passed to every component.
func WithLogger(l *logger.Logger) Option {
	return func(t *Tutor) { t.log = logger.OrNop(l) }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tutor) { t.now = now }
}

// New builds a tutor over g and b that keeps learner states in store.
func New(g *knowledge.Graph, b *questionbank.Bank, cfg Config, store Store, opts ...Option) (*Tutor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	t := &Tutor{
		graph: g,
		bank:  b,
		cfg:   cfg,
		store: store,
		log:   logger.Nop(),
		now:   time.Now,
		locks: make(map[string]*learnerLock),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.updater = mastery.NewUpdater(g, b, cfg.Mastery, t.log)
	t.engine = recommend.NewEngine(g, b, cfg.Recommend, t.log)
	t.analyzer = diagnosis.NewAnalyzer(g, cfg.Diagnosis)
	t.scheduler = spacedrep.NewScheduler(g, cfg.Decay, t.log)
	return t, nil
}

// Graph returns the knowledge graph the tutor serves.
func (t *Tutor) Graph() *knowledge.Graph { return t.graph }

// Bank returns the question bank the tutor serves.
func (t *Tutor) Bank() *questionbank.Bank { return t.bank }

// learnerLock serializes the operations on one learner. refs counts the
// holders and waiters; the entry is dropped when it reaches zero.
type learnerLock struct {
	sync.Mutex
	refs int
}

// lock acquires the lock of one learner and returns its release func.
func (t *Tutor) lock(studentID string) func() {
	t.mu.Lock()
	l, ok := t.locks[studentID]
	if !ok {
		l = &learnerLock{}
		t.locks[studentID] = l
	}
	l.refs++
	t.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		t.mu.Lock()
		defer t.mu.Unlock()
		if l.refs--; l.refs == 0 {
			delete(t.locks, studentID)
		}
	}
}

// withLearner loads a learner under its lock and runs fn. When fn returns
// a non-nil state it is stored.
func (t *Tutor) withLearner(ctx context.Context, studentID string, fn func(st *learner.State) (*learner.State, error)) error {
	defer t.lock(studentID)()

	st, err := t.store.Get(ctx, studentID)
	if err != nil {
		return fmt.Errorf("load learner %q: %w", studentID, err)
	}
	next, err := fn(st)
	if err != nil || next == nil {
		return err
	}
	if err := t.store.Put(ctx, next); err != nil {
		return fmt.Errorf("save learner %q: %w", studentID, err)
	}
	return nil
}

// StartResult describes a started session.
type StartResult struct {
	SessionID string
	State     *learner.State
	// Skipped lists knowledge-point ids in the initial mastery map that the
	// graph does not know.
	Skipped []string
	Resumed bool
}

// StartSession creates the state of a learner, seeded with an optional
// initial mastery map, and stores it.
func (t *Tutor) StartSession(ctx context.Context, studentID string, initial map[string]float64, policy ExistingPolicy) (*StartResult, error) {
	defer t.lock(studentID)()

	now := t.now()
	existing, err := t.store.Get(ctx, studentID)
	switch {
	case err == nil:
		switch policy {
		case RejectExisting:
			return nil, fmt.Errorf("start session %q: %w", studentID, ErrExists)
		case ResumeExisting:
			next, changes := t.scheduler.Decay(existing, now)
			if err := t.store.Put(ctx, next); err != nil {
				return nil, fmt.Errorf("save learner %q: %w", studentID, err)
			}
			t.log.Info("resumed session", "student", studentID, "decayed", len(changes))
			return &StartResult{SessionID: uuid.NewString(), State: next, Resumed: true}, nil
		}
	case !errors.Is(err, ErrNotFound):
		return nil, fmt.Errorf("load learner %q: %w", studentID, err)
	}

	st, skipped, err := t.updater.StartSession(studentID, initial, now)
	if err != nil {
		return nil, err
	}
	if err := t.store.Put(ctx, st); err != nil {
		return nil, fmt.Errorf("save learner %q: %w", studentID, err)
	}
	t.log.Info("started session", "student", studentID, "seeded", len(initial)-len(skipped))
	return &StartResult{SessionID: uuid.NewString(), State: st, Skipped: skipped}, nil
}

// Recommend returns the next batch for a learner, with due error-recurrence
// questions interleaved. It does not change the stored state. A
// NoQuestionsAvailableError is returned together with the empty batch.
func (t *Tutor) Recommend(ctx context.Context, studentID string, n int) (*recommend.Batch, error) {
	var batch *recommend.Batch
	var recErr error
	err := t.withLearner(ctx, studentID, func(st *learner.State) (*learner.State, error) {
		cands := t.scheduler.Candidates(st, t.now())
		reviews := make([]recommend.ReviewItem, len(cands))
		for i, c := range cands {
			reviews[i] = recommend.ReviewItem{QuestionID: c.QuestionID, Reason: c.Reason()}
		}
		batch, recErr = t.engine.Recommend(st, n, reviews)
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return batch, recErr
}

// Submit grades answers and folds them into the learner's state. Per-item
// problems are reported in the results and do not fail the call.
func (t *Tutor) Submit(ctx context.Context, studentID string, answers []mastery.Answer) ([]mastery.Result, *learner.State, error) {
	var results []mastery.Result
	var out *learner.State
	err := t.withLearner(ctx, studentID, func(st *learner.State) (*learner.State, error) {
		out, results = t.updater.ApplyAt(st, answers, t.now())
		return out, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return results, out, nil
}

// Check grades answers without touching any learner.
func (t *Tutor) Check(answers []mastery.Answer) mastery.CheckReport {
	return t.updater.Check(answers)
}

// WeakPoints analyzes a learner. A threshold <= 0 uses the configured one.
func (t *Tutor) WeakPoints(ctx context.Context, studentID string, threshold float64) (diagnosis.Report, error) {
	var report diagnosis.Report
	err := t.withLearner(ctx, studentID, func(st *learner.State) (*learner.State, error) {
		report = t.analyzer.Analyze(st, threshold)
		return nil, nil
	})
	return report, err
}

// Decay applies the forgetting curve to a learner up to now and stores the
// result.
func (t *Tutor) Decay(ctx context.Context, studentID string) ([]spacedrep.Change, error) {
	var changes []spacedrep.Change
	err := t.withLearner(ctx, studentID, func(st *learner.State) (*learner.State, error) {
		var next *learner.State
		next, changes = t.scheduler.Decay(st, t.now())
		return next, nil
	})
	return changes, err
}

// ReviewCandidates lists the missed questions due for a learner.
func (t *Tutor) ReviewCandidates(ctx context.Context, studentID string) ([]spacedrep.Candidate, error) {
	var cands []spacedrep.Candidate
	err := t.withLearner(ctx, studentID, func(st *learner.State) (*learner.State, error) {
		cands = t.scheduler.Candidates(st, t.now())
		return nil, nil
	})
	return cands, err
}

// Status summarizes a learner's progress.
func (t *Tutor) Status(ctx context.Context, studentID string) (learner.Summary, error) {
	var sum learner.Summary
	err := t.withLearner(ctx, studentID, func(st *learner.State) (*learner.State, error) {
		sum = st.Summarize(t.cfg.Recommend.MasteryThreshold, t.cfg.Diagnosis.Threshold)
		return nil, nil
	})
	return sum, err
}

// State returns a copy of a learner's stored state.
func (t *Tutor) State(ctx context.Context, studentID string) (*learner.State, error) {
	var out *learner.State
	err := t.withLearner(ctx, studentID, func(st *learner.State) (*learner.State, error) {
		out = st.Clone()
		return nil, nil
	})
	return out, err
}

// Learners lists the stored learner ids.
func (t *Tutor) Learners(ctx context.Context) ([]string, error) {
	return t.store.List(ctx)
}

// Remove deletes a learner.
func (t *Tutor) Remove(ctx context.Context, studentID string) error {
	defer t.lock(studentID)()
	return t.store.Remove(ctx, studentID)
}
