// Package questionbank holds the static catalogue of practice items and
// their knowledge-point tags.
package questionbank

import (
	"fmt"
	"strings"
)

// OptionCount is the number of options every question carries.
const OptionCount = 4

// Question is a multiple-choice practice item.
type Question struct {
	ID      string
	Content string

	// Options are ordered; position i maps to letter 'A'+i.
	Options []string

	// CorrectOption is the letter of the correct option, "A".."D".
	CorrectOption string

	// KnowledgePoints maps knowledge-point id to coverage weight in (0,1].
	// Weights need not sum to 1.
	KnowledgePoints map[string]float64

	// Difficulty in [0,1].
	Difficulty float64
}

// Letter returns the option letter for position i.
func Letter(i int) string {
	return string(rune('A' + i))
}

// LetterIndex returns the option position for a letter, case-insensitive.
func LetterIndex(letter string) (int, bool) {
	s := strings.ToUpper(strings.TrimSpace(letter))
	if len(s) != 1 || s[0] < 'A' || s[0] >= 'A'+OptionCount {
		return 0, false
	}
	return int(s[0] - 'A'), true
}

// ResolveOption maps either a letter or the literal text of one of the
// options to the option letter.
func (q Question) ResolveOption(answer string) (string, bool) {
	if idx, ok := LetterIndex(answer); ok && idx < len(q.Options) {
		return Letter(idx), true
	}
	a := strings.TrimSpace(answer)
	for i, opt := range q.Options {
		if strings.TrimSpace(opt) == a {
			return Letter(i), true
		}
	}
	return "", false
}

// KnowledgePointIDs returns the tagged ids in sorted order.
func (q Question) KnowledgePointIDs() []string {
	ids := make([]string, 0, len(q.KnowledgePoints))
	for id := range q.KnowledgePoints {
		ids = append(ids, id)
	}
	sortStrings(ids)
	return ids
}

// Covers reports whether q is tagged with id.
func (q Question) Covers(id string) bool {
	_, ok := q.KnowledgePoints[id]
	return ok
}

// Payload is the learner-facing view of a question. It omits the correct
// option.
type Payload struct {
	ID              string             `json:"qid"`
	Content         string             `json:"content"`
	Options         []string           `json:"options"`
	KnowledgePoints map[string]float64 `json:"knowledge_points"`
	Difficulty      float64            `json:"difficulty"`
}

// Payload returns the learner-facing view of q.
func (q Question) Payload() Payload {
	kps := make(map[string]float64, len(q.KnowledgePoints))
	for k, w := range q.KnowledgePoints {
		kps[k] = w
	}
	return Payload{
		ID:              q.ID,
		Content:         q.Content,
		Options:         append([]string(nil), q.Options...),
		KnowledgePoints: kps,
		Difficulty:      q.Difficulty,
	}
}

func (q Question) String() string {
	return fmt.Sprintf("%s (difficulty %.2f)", q.ID, q.Difficulty)
}
