package learner

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"golang.org/x/mod/semver"

	"github.com/abhisek/kgtutor/internal/knowledge"
	"github.com/abhisek/kgtutor/internal/vecmath"
)

// FormatVersion is the version written by Export. Import accepts any
// version with the same major.
const FormatVersion = "v1.2.0"

// Snapshot is the serialized form of a State. Per-point values are keyed
// by knowledge-point id so a snapshot survives reordering of the graph.
type Snapshot struct {
	Version          string               `json:"version"`
	StudentID        string               `json:"student_id"`
	Vector           []float64            `json:"vector"`
	Mastery          map[string]float64   `json:"mastery"`
	PracticeCount    map[string]int       `json:"practice_count"`
	CorrectCount     map[string]int       `json:"correct_count"`
	LastPractice     map[string]time.Time `json:"last_practice"`
	History          []RecordData         `json:"history"`
	BatchCount       int                  `json:"batch_count"`
	DifficultyOffset float64              `json:"difficulty_offset"`
	Errors           []ErrorData          `json:"wrong_questions"`
	VectorHistory    [][]float64          `json:"vector_history,omitempty"`
	LastDecayAt      *time.Time           `json:"last_decay_at,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// RecordData is the serialized form of a Record.
type RecordData struct {
	ID              string    `json:"id"`
	QuestionID      string    `json:"qid"`
	Chosen          string    `json:"chosen"`
	Correct         bool      `json:"correct"`
	KnowledgePoints []string  `json:"knowledge_points"`
	At              time.Time `json:"timestamp"`
	Review          bool      `json:"is_review,omitempty"`
}

// ErrorData is the serialized form of an ErrorEntry.
type ErrorData struct {
	QuestionID      string    `json:"qid"`
	KnowledgePoints []string  `json:"knowledge_points"`
	At              time.Time `json:"timestamp"`
	MinMastery      float64   `json:"min_mastery"`
	Misses          int       `json:"misses"`
}

// Snapshot converts s to its serialized form.
func (s *State) Snapshot() *Snapshot {
	snap := &Snapshot{
		Version:          FormatVersion,
		StudentID:        s.StudentID,
		Mastery:          make(map[string]float64),
		PracticeCount:    make(map[string]int),
		CorrectCount:     make(map[string]int),
		LastPractice:     make(map[string]time.Time),
		History:          make([]RecordData, 0, len(s.History)),
		BatchCount:       s.BatchCount,
		DifficultyOffset: s.DifficultyOffset,
		Errors:           make([]ErrorData, 0, len(s.Errors)),
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
	if s.Vector != nil {
		snap.Vector = slices.Clone(s.Vector)
	}
	for i := range s.Mastery {
		id := s.graph.ID(i)
		if s.Mastery[i] != 0 {
			snap.Mastery[id] = s.Mastery[i]
		}
		if s.PracticeCount[i] != 0 {
			snap.PracticeCount[id] = s.PracticeCount[i]
		}
		if s.CorrectCount[i] != 0 {
			snap.CorrectCount[id] = s.CorrectCount[i]
		}
		if !s.LastPractice[i].IsZero() {
			snap.LastPractice[id] = s.LastPractice[i]
		}
	}
	for _, r := range s.History {
		snap.History = append(snap.History, RecordData{
			ID:              r.ID,
			QuestionID:      r.QuestionID,
			Chosen:          r.Chosen,
			Correct:         r.Correct,
			KnowledgePoints: slices.Clone(r.KnowledgePoints),
			At:              r.At,
			Review:          r.Review,
		})
	}
	for _, e := range s.Errors {
		snap.Errors = append(snap.Errors, ErrorData{
			QuestionID:      e.QuestionID,
			KnowledgePoints: slices.Clone(e.KnowledgePoints),
			At:              e.At,
			MinMastery:      e.MinMastery,
			Misses:          e.Misses,
		})
	}
	for _, v := range s.VectorHistory {
		snap.VectorHistory = append(snap.VectorHistory, slices.Clone(v))
	}
	if !s.LastDecayAt.IsZero() {
		t := s.LastDecayAt
		snap.LastDecayAt = &t
	}
	return snap
}

// Export serializes s as JSON.
func (s *State) Export() ([]byte, error) {
	b, err := json.Marshal(s.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("marshal learner %q: %w", s.StudentID, err)
	}
	return b, nil
}

// Import decodes a state previously produced by Export and re-indexes it
// against g. Knowledge points unknown to g are dropped and returned.
func Import(data []byte, g *knowledge.Graph) (*State, []string, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, nil, fmt.Errorf("decode learner snapshot: %w", err)
	}
	return FromSnapshot(&snap, g)
}

// FromSnapshot rebuilds a State from snap, indexed against g.
func FromSnapshot(snap *Snapshot, g *knowledge.Graph) (*State, []string, error) {
	if err := checkVersion(snap.Version); err != nil {
		return nil, nil, err
	}
	if snap.StudentID == "" {
		return nil, nil, fmt.Errorf("learner snapshot has no student id")
	}
	if snap.Vector != nil && len(snap.Vector) != g.Dim() {
		return nil, nil, fmt.Errorf("learner %q: vector has %d dimensions, graph has %d", snap.StudentID, len(snap.Vector), g.Dim())
	}

	s := New(snap.StudentID, g, snap.CreatedAt)
	s.CreatedAt = snap.CreatedAt
	s.UpdatedAt = snap.UpdatedAt
	s.BatchCount = snap.BatchCount
	s.DifficultyOffset = snap.DifficultyOffset
	if snap.Vector != nil {
		s.Vector = vecmath.Vector(slices.Clone(snap.Vector))
	}
	if snap.LastDecayAt != nil {
		s.LastDecayAt = *snap.LastDecayAt
	}

	dropped := make(map[string]bool)
	index := func(id string) (int, bool) {
		idx, ok := g.Index(id)
		if !ok {
			dropped[id] = true
		}
		return idx, ok
	}
	for id, m := range snap.Mastery {
		if idx, ok := index(id); ok {
			s.Mastery[idx] = min(1, max(0, m))
		}
	}
	for id, c := range snap.PracticeCount {
		if idx, ok := index(id); ok {
			s.PracticeCount[idx] = c
		}
	}
	for id, c := range snap.CorrectCount {
		if idx, ok := index(id); ok {
			s.CorrectCount[idx] = c
		}
	}
	for id, t := range snap.LastPractice {
		if idx, ok := index(id); ok {
			s.LastPractice[idx] = t
		}
	}

	if len(snap.History) > 0 {
		s.History = make([]Record, 0, len(snap.History))
	}
	for _, r := range snap.History {
		s.History = append(s.History, Record{
			ID:              r.ID,
			QuestionID:      r.QuestionID,
			Chosen:          r.Chosen,
			Correct:         r.Correct,
			KnowledgePoints: slices.Clone(r.KnowledgePoints),
			At:              r.At,
			Review:          r.Review,
		})
	}
	if len(snap.Errors) > 0 {
		s.Errors = make([]ErrorEntry, 0, len(snap.Errors))
	}
	for _, e := range snap.Errors {
		s.Errors = append(s.Errors, ErrorEntry{
			QuestionID:      e.QuestionID,
			KnowledgePoints: slices.Clone(e.KnowledgePoints),
			At:              e.At,
			MinMastery:      e.MinMastery,
			Misses:          e.Misses,
		})
	}
	for _, v := range snap.VectorHistory {
		s.VectorHistory = append(s.VectorHistory, vecmath.Vector(slices.Clone(v)))
	}

	ids := make([]string, 0, len(dropped))
	for id := range dropped {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return s, ids, nil
}

func checkVersion(v string) error {
	if v == "" {
		return fmt.Errorf("learner snapshot has no version")
	}
	if v[0] != 'v' {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return fmt.Errorf("learner snapshot version %q is not a valid version", v)
	}
	if semver.Major(v) != semver.Major(FormatVersion) {
		return fmt.Errorf("learner snapshot version %s is incompatible with %s", v, FormatVersion)
	}
	return nil
}
