// Package spacedrep models forgetting: it decays mastery of points not
// practiced recently and decides which missed questions are due to come
// back.
package spacedrep

import (
	"math"
	"time"

	"github.com/abhisek/kgtutor/internal/knowledge"
	"github.com/abhisek/kgtutor/internal/learner"
	"github.com/abhisek/kgtutor/internal/logger"
)

const day = 24 * time.Hour

// Change records the decay of one knowledge point.
type Change struct {
	ID        string  `json:"id"`
	Before    float64 `json:"before"`
	After     float64 `json:"after"`
	Days      float64 `json:"days"`
	Retention float64 `json:"retention"`
}

// Scheduler applies the forgetting curve and ranks error recurrence. It
// holds only read-only data and may be shared across goroutines.
type Scheduler struct {
	graph *knowledge.Graph
	cfg   Config
	log   *logger.Logger
}

// NewScheduler creates a scheduler over g.
func NewScheduler(g *knowledge.Graph, cfg Config, log *logger.Logger) *Scheduler {
	return &Scheduler{graph: g, cfg: cfg, log: logger.OrNop(log)}
}

// Config returns the constants the scheduler was built with.
func (s *Scheduler) Config() Config { return s.cfg }

// Retention returns exp(-days/S) with S = max(MinStrength, mastery*StrengthScale).
func (s *Scheduler) Retention(mastery, days float64) float64 {
	strength := max(s.cfg.MinStrength, mastery*s.cfg.StrengthScale)
	return math.Exp(-days / strength)
}

// Decay returns the state after forgetting up to now, and the points that
// changed. Elapsed time for a point runs from its last practice or the
// previous decay pass, whichever is later, so repeated passes do not
// compound. Points never practiced, and points at or below the floor, are
// left alone. The input state is not modified.
func (s *Scheduler) Decay(st *learner.State, now time.Time) (*learner.State, []Change) {
	now = now.UTC()
	next := st.Clone()

	var changes []Change
	for i, last := range next.LastPractice {
		if last.IsZero() {
			continue
		}
		from := last
		if next.LastDecayAt.After(from) {
			from = next.LastDecayAt
		}
		if !now.After(from) {
			continue
		}
		m := next.Mastery[i]
		if m <= s.cfg.Floor {
			continue
		}

		days := float64(now.Sub(from)) / float64(day)
		r := s.Retention(m, days)
		after := max(s.cfg.Floor, m*r)
		if after == m {
			continue
		}
		next.Mastery[i] = after
		changes = append(changes, Change{
			ID:        s.graph.ID(i),
			Before:    m,
			After:     after,
			Days:      days,
			Retention: r,
		})
	}

	if now.After(next.LastDecayAt) {
		next.LastDecayAt = now
	}
	if len(changes) > 0 {
		next.UpdatedAt = now
	}

	s.log.Debug("decay pass", "student", next.StudentID, "changed", len(changes))
	return next, changes
}
