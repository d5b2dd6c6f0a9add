package mastery

import (
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/kgtutor/internal/questionbank"
)

// ErrInvalidAnswerFormat marks an answer rejected before grading.
var ErrInvalidAnswerFormat = errors.New("invalid answer format")

// InvalidAnswerFormatError describes a malformed answer at position Index
// of a batch.
type InvalidAnswerFormatError struct {
	Index      int
	QuestionID string
	Reason     string
}

func (e *InvalidAnswerFormatError) Error() string {
	if e.QuestionID != "" {
		return fmt.Sprintf("answer %d (%s): %s", e.Index, e.QuestionID, e.Reason)
	}
	return fmt.Sprintf("answer %d: %s", e.Index, e.Reason)
}

func (e *InvalidAnswerFormatError) Unwrap() error { return ErrInvalidAnswerFormat }

// Answer is a learner's choice for one question. ChosenOption is an option
// letter (any case) or the literal text of an option.
type Answer struct {
	QuestionID   string `json:"qid"`
	ChosenOption string `json:"chosen"`
}

// ValidateAnswer checks the shape of a at batch position i and returns it
// with surrounding whitespace removed and letters upper-cased.
func ValidateAnswer(i int, a Answer) (Answer, error) {
	a.QuestionID = strings.TrimSpace(a.QuestionID)
	a.ChosenOption = strings.TrimSpace(a.ChosenOption)
	if a.QuestionID == "" {
		return a, &InvalidAnswerFormatError{Index: i, Reason: "missing question id"}
	}
	if a.ChosenOption == "" {
		return a, &InvalidAnswerFormatError{Index: i, QuestionID: a.QuestionID, Reason: "missing chosen option"}
	}
	if idx, ok := questionbank.LetterIndex(a.ChosenOption); ok {
		a.ChosenOption = questionbank.Letter(idx)
	}
	return a, nil
}

// ParseAnswer parses "Q1=C" or "Q1:C".
func ParseAnswer(s string) (Answer, error) {
	qid, chosen, ok := strings.Cut(s, "=")
	if !ok {
		qid, chosen, ok = strings.Cut(s, ":")
	}
	if !ok {
		return Answer{}, fmt.Errorf("answer %q: want QID=OPTION", s)
	}
	return Answer{QuestionID: strings.TrimSpace(qid), ChosenOption: strings.TrimSpace(chosen)}, nil
}

// Status tags the outcome of one answer.
type Status string

const (
	StatusGraded          Status = "graded"
	StatusUnknownQuestion Status = "unknown_question"
	StatusInvalidAnswer   Status = "invalid_answer"
)

// Result is the per-question outcome of grading.
type Result struct {
	QuestionID      string             `json:"qid"`
	Chosen          string             `json:"chosen"`
	Correct         bool               `json:"correct"`
	CorrectOption   string             `json:"correct_option,omitempty"`
	KnowledgePoints map[string]float64 `json:"knowledge_points,omitempty"`
	Review          bool               `json:"is_review,omitempty"`
	Status          Status             `json:"status"`
	Err             error              `json:"-"`
}

// Graded reports whether the answer was checked against its question.
func (r Result) Graded() bool { return r.Status == StatusGraded }

// CheckReport is the outcome of grading without touching any state.
type CheckReport struct {
	Total    int      `json:"total"`
	Graded   int      `json:"graded"`
	Correct  int      `json:"correct"`
	Accuracy float64  `json:"accuracy"`
	Results  []Result `json:"results"`
}
