// Package learner holds the per-learner knowledge state: the direction of
// the learner in embedding space, per-point mastery and counters, answer
// history, and the log of missed questions.
package learner

import (
	"fmt"
	"slices"
	"time"

	"github.com/abhisek/kgtutor/internal/knowledge"
	"github.com/abhisek/kgtutor/internal/vecmath"
)

// MaxVectorHistory bounds how many past vectors are kept.
const MaxVectorHistory = 50

// Record is one graded answer.
type Record struct {
	ID              string
	QuestionID      string
	Chosen          string
	Correct         bool
	KnowledgePoints []string
	At              time.Time
	Review          bool
}

// ErrorEntry is a missed question waiting to be re-surfaced.
type ErrorEntry struct {
	QuestionID      string
	KnowledgePoints []string
	At              time.Time
	// MinMastery is the lowest mastery among KnowledgePoints when the
	// question was missed.
	MinMastery float64
	Misses     int
}

// State is the mutable record of one learner. Per-point slices are indexed
// by knowledge.KnowledgePoint.Index of the graph the state was built for.
//
// A State is owned by one caller at a time; it is not safe for concurrent
// mutation.
type State struct {
	StudentID string

	// Vector is nil until the session is started, unit length afterwards.
	Vector vecmath.Vector

	Mastery       []float64
	PracticeCount []int
	CorrectCount  []int
	// LastPractice holds the zero time for points never practiced.
	LastPractice []time.Time

	History    []Record
	BatchCount int

	DifficultyOffset float64
	Errors           []ErrorEntry
	VectorHistory    []vecmath.Vector
	LastDecayAt      time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	graph *knowledge.Graph
}

// New returns an empty state for studentID sized for g.
func New(studentID string, g *knowledge.Graph, now time.Time) *State {
	n := g.Len()
	now = now.UTC()
	return &State{
		StudentID:     studentID,
		Mastery:       make([]float64, n),
		PracticeCount: make([]int, n),
		CorrectCount:  make([]int, n),
		LastPractice:  make([]time.Time, n),
		CreatedAt:     now,
		UpdatedAt:     now,
		graph:         g,
	}
}

// Graph returns the graph the state is indexed against.
func (s *State) Graph() *knowledge.Graph { return s.graph }

// Started reports whether the state has a learner vector.
func (s *State) Started() bool { return s.Vector != nil }

// MasteryOf returns the mastery score of id.
func (s *State) MasteryOf(id string) (float64, error) {
	idx, ok := s.graph.Index(id)
	if !ok {
		return 0, &knowledge.UnknownKnowledgePointError{ID: id}
	}
	return s.Mastery[idx], nil
}

// MasteryMap returns the non-zero mastery scores keyed by id.
func (s *State) MasteryMap() map[string]float64 {
	out := make(map[string]float64)
	for i, m := range s.Mastery {
		if m != 0 {
			out[s.graph.ID(i)] = m
		}
	}
	return out
}

// Tracked reports whether point idx has any evidence: practice or mastery.
func (s *State) Tracked(idx int) bool {
	return s.PracticeCount[idx] > 0 || s.Mastery[idx] > 0
}

// AverageMastery is the mean mastery over tracked points, or 0 if none are
// tracked.
func (s *State) AverageMastery() float64 {
	var sum float64
	var n int
	for i, m := range s.Mastery {
		if s.Tracked(i) {
			sum += m
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// RecentAccuracy returns the fraction of correct answers among the last
// window history records, and the number of records considered.
func (s *State) RecentAccuracy(window int) (float64, int) {
	h := s.History
	if window > 0 && len(h) > window {
		h = h[len(h)-window:]
	}
	if len(h) == 0 {
		return 0, 0
	}
	correct := 0
	for _, r := range h {
		if r.Correct {
			correct++
		}
	}
	return float64(correct) / float64(len(h)), len(h)
}

// Answered reports whether questionID appears in history, and whether any
// of those answers was correct.
func (s *State) Answered(questionID string) (answered, correct bool) {
	for _, r := range s.History {
		if r.QuestionID == questionID {
			answered = true
			if r.Correct {
				return true, true
			}
		}
	}
	return answered, false
}

// ErrorIndex returns the position of questionID in the error log, or -1.
func (s *State) ErrorIndex(questionID string) int {
	return slices.IndexFunc(s.Errors, func(e ErrorEntry) bool { return e.QuestionID == questionID })
}

// PushVector appends v to the vector history, keeping the most recent
// MaxVectorHistory entries.
func (s *State) PushVector(v vecmath.Vector) {
	s.VectorHistory = append(s.VectorHistory, v.Clone())
	if over := len(s.VectorHistory) - MaxVectorHistory; over > 0 {
		s.VectorHistory = slices.Clone(s.VectorHistory[over:])
	}
}

// Clone returns a deep copy of s sharing only the read-only graph.
func (s *State) Clone() *State {
	c := *s
	c.Vector = s.Vector.Clone()
	c.Mastery = slices.Clone(s.Mastery)
	c.PracticeCount = slices.Clone(s.PracticeCount)
	c.CorrectCount = slices.Clone(s.CorrectCount)
	c.LastPractice = slices.Clone(s.LastPractice)
	if s.History != nil {
		c.History = make([]Record, len(s.History))
		for i, r := range s.History {
			r.KnowledgePoints = slices.Clone(r.KnowledgePoints)
			c.History[i] = r
		}
	}
	if s.Errors != nil {
		c.Errors = make([]ErrorEntry, len(s.Errors))
		for i, e := range s.Errors {
			e.KnowledgePoints = slices.Clone(e.KnowledgePoints)
			c.Errors[i] = e
		}
	}
	if s.VectorHistory != nil {
		c.VectorHistory = make([]vecmath.Vector, len(s.VectorHistory))
		for i, v := range s.VectorHistory {
			c.VectorHistory[i] = v.Clone()
		}
	}
	return &c
}

// Check verifies the structural invariants of s.
func (s *State) Check() error {
	n := s.graph.Len()
	if len(s.Mastery) != n || len(s.PracticeCount) != n || len(s.CorrectCount) != n || len(s.LastPractice) != n {
		return fmt.Errorf("learner %q: per-point arrays do not match graph size %d", s.StudentID, n)
	}
	for i, m := range s.Mastery {
		if m < 0 || m > 1 {
			return fmt.Errorf("learner %q: mastery of %s out of range: %v", s.StudentID, s.graph.ID(i), m)
		}
		if s.CorrectCount[i] > s.PracticeCount[i] {
			return fmt.Errorf("learner %q: %s has more correct answers than attempts", s.StudentID, s.graph.ID(i))
		}
	}
	for i := 1; i < len(s.History); i++ {
		if s.History[i].At.Before(s.History[i-1].At) {
			return fmt.Errorf("learner %q: history out of order at %d", s.StudentID, i)
		}
	}
	return nil
}
