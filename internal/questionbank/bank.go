package questionbank

import (
	"fmt"
	"math"
	"slices"

	"github.com/abhisek/kgtutor/internal/knowledge"
)

// Bank is the read-only question catalogue. It is safe for concurrent use.
type Bank struct {
	questions []Question
	byID      map[string]int
	byPoint   map[string][]int
}

// New validates questions against the graph and builds the bank. Questions
// are stored in natural id order.
func New(questions []Question, g *knowledge.Graph) (*Bank, error) {
	if err := validateQuestions(questions, g); err != nil {
		return nil, err
	}

	qs := make([]Question, len(questions))
	for i, q := range questions {
		q.Options = slices.Clone(q.Options)
		kps := make(map[string]float64, len(q.KnowledgePoints))
		for k, w := range q.KnowledgePoints {
			kps[k] = w
		}
		q.KnowledgePoints = kps
		qs[i] = q
	}
	slices.SortStableFunc(qs, func(a, b Question) int { return CompareIDs(a.ID, b.ID) })

	b := &Bank{
		questions: qs,
		byID:      make(map[string]int, len(qs)),
		byPoint:   make(map[string][]int),
	}
	for i, q := range qs {
		b.byID[q.ID] = i
		for _, kp := range q.KnowledgePointIDs() {
			b.byPoint[kp] = append(b.byPoint[kp], i)
		}
	}
	return b, nil
}

// Len returns the number of questions.
func (b *Bank) Len() int { return len(b.questions) }

// Get returns the question with the given id.
func (b *Bank) Get(id string) (Question, error) {
	i, ok := b.byID[id]
	if !ok {
		return Question{}, &UnknownQuestionError{ID: id}
	}
	return b.questions[i], nil
}

// All returns every question in natural id order.
func (b *Bank) All() []Question {
	return slices.Clone(b.questions)
}

// CoveringAny returns the questions tagged with at least one of ids, in
// natural id order and without duplicates.
func (b *Bank) CoveringAny(ids []string) []Question {
	seen := make(map[int]bool)
	var idx []int
	for _, id := range ids {
		for _, i := range b.byPoint[id] {
			if !seen[i] {
				seen[i] = true
				idx = append(idx, i)
			}
		}
	}
	slices.Sort(idx)
	out := make([]Question, len(idx))
	for n, i := range idx {
		out[n] = b.questions[i]
	}
	return out
}

func validateQuestions(questions []Question, g *knowledge.Graph) error {
	var errs []string
	seen := make(map[string]bool, len(questions))

	for _, q := range questions {
		if q.ID == "" {
			errs = append(errs, "question with empty ID")
			continue
		}
		if seen[q.ID] {
			errs = append(errs, fmt.Sprintf("duplicate question ID: %q", q.ID))
		}
		seen[q.ID] = true

		if len(q.Options) != OptionCount {
			errs = append(errs, fmt.Sprintf("question %q: has %d options, want %d", q.ID, len(q.Options), OptionCount))
		}
		if idx, ok := LetterIndex(q.CorrectOption); !ok || idx >= len(q.Options) || Letter(idx) != q.CorrectOption {
			errs = append(errs, fmt.Sprintf("question %q: correct option %q is not a valid letter", q.ID, q.CorrectOption))
		}
		if math.IsNaN(q.Difficulty) || q.Difficulty < 0 || q.Difficulty > 1 {
			errs = append(errs, fmt.Sprintf("question %q: difficulty must be in [0, 1], got %v", q.ID, q.Difficulty))
		}
		if len(q.KnowledgePoints) == 0 {
			errs = append(errs, fmt.Sprintf("question %q: has no knowledge points", q.ID))
		}
		for _, kp := range q.KnowledgePointIDs() {
			w := q.KnowledgePoints[kp]
			if _, ok := g.Index(kp); !ok {
				errs = append(errs, fmt.Sprintf("question %q references nonexistent knowledge point %q", q.ID, kp))
			}
			if !(w > 0 && w <= 1) {
				errs = append(errs, fmt.Sprintf("question %q: weight for %q must be in (0, 1], got %v", q.ID, kp, w))
			}
		}
	}

	if len(errs) > 0 {
		return &knowledge.DataIntegrityError{Source: "question bank", Problems: errs}
	}
	return nil
}
