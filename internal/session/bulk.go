package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/abhisek/kgtutor/internal/learner"
)

// DecayAll runs a decay pass over every stored learner, at most limit at a
// time (limit <= 0 means no limit). It returns the number of points that
// changed per learner. The first failure cancels the remaining work.
func (t *Tutor) DecayAll(ctx context.Context, limit int) (map[string]int, error) {
	ids, err := t.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list learners: %w", err)
	}

	var mu sync.Mutex
	out := make(map[string]int, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, id := range ids {
		g.Go(func() error {
			changes, err := t.Decay(gctx, id)
			if err != nil {
				return err
			}
			mu.Lock()
			out[id] = len(changes)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	t.log.Info("decay pass complete", "learners", len(ids))
	return out, nil
}

// Export serializes one learner.
func (t *Tutor) Export(ctx context.Context, studentID string) ([]byte, error) {
	var data []byte
	err := t.withLearner(ctx, studentID, func(st *learner.State) (*learner.State, error) {
		var err error
		data, err = st.Export()
		return nil, err
	})
	return data, err
}

// Archive is the bulk export format: snapshots keyed by learner id.
type Archive struct {
	Version  string                       `json:"version"`
	Students map[string]*learner.Snapshot `json:"students"`
}

// ExportAll serializes every stored learner into one archive.
func (t *Tutor) ExportAll(ctx context.Context) ([]byte, error) {
	ids, err := t.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list learners: %w", err)
	}
	archive := Archive{Version: learner.FormatVersion, Students: make(map[string]*learner.Snapshot, len(ids))}
	for _, id := range ids {
		err := t.withLearner(ctx, id, func(st *learner.State) (*learner.State, error) {
			archive.Students[id] = st.Snapshot()
			return nil, nil
		})
		if err != nil {
			return nil, err
		}
	}
	return json.MarshalIndent(archive, "", "  ")
}

// ImportReport lists what an import did, per learner.
type ImportReport struct {
	Imported []string
	// Dropped holds the knowledge-point ids each learner's data carried
	// that the graph does not know.
	Dropped map[string][]string
	Failed  map[string]error
}

// Err joins the per-learner failures, or returns nil.
func (r ImportReport) Err() error {
	ids := make([]string, 0, len(r.Failed))
	for id := range r.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	errs := make([]error, len(ids))
	for i, id := range ids {
		errs[i] = fmt.Errorf("%s: %w", id, r.Failed[id])
	}
	return errors.Join(errs...)
}

// Import stores one exported learner, replacing any stored state.
func (t *Tutor) Import(ctx context.Context, data []byte) (*learner.State, []string, error) {
	st, dropped, err := learner.Import(data, t.graph)
	if err != nil {
		return nil, nil, err
	}
	if err := t.put(ctx, st); err != nil {
		return nil, nil, err
	}
	return st, dropped, nil
}

// ImportAll stores every learner of an archive. A learner that fails to
// decode or store is reported and does not stop the others.
func (t *Tutor) ImportAll(ctx context.Context, data []byte) (ImportReport, error) {
	var archive Archive
	if err := json.Unmarshal(data, &archive); err != nil {
		return ImportReport{}, fmt.Errorf("decode archive: %w", err)
	}

	report := ImportReport{Dropped: make(map[string][]string), Failed: make(map[string]error)}
	ids := make([]string, 0, len(archive.Students))
	for id := range archive.Students {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		snap := archive.Students[id]
		if snap == nil {
			report.Failed[id] = errors.New("empty snapshot")
			continue
		}
		if snap.StudentID == "" {
			snap.StudentID = id
		}
		if snap.Version == "" {
			snap.Version = archive.Version
		}
		st, dropped, err := learner.FromSnapshot(snap, t.graph)
		if err == nil {
			err = t.put(ctx, st)
		}
		if err != nil {
			t.log.Warn("skipping learner in import", "student", id, "error", err)
			report.Failed[id] = err
			continue
		}
		report.Imported = append(report.Imported, id)
		if len(dropped) > 0 {
			report.Dropped[id] = dropped
		}
	}
	return report, nil
}

func (t *Tutor) put(ctx context.Context, st *learner.State) error {
	defer t.lock(st.StudentID)()
	if err := t.store.Put(ctx, st); err != nil {
		return fmt.Errorf("save learner %q: %w", st.StudentID, err)
	}
	return nil
}
