package questionbank

import (
	"errors"
	"fmt"
)

// ErrUnknownQuestion marks a runtime reference to a question id that is not
// in the bank.
var ErrUnknownQuestion = errors.New("unknown question")

// UnknownQuestionError reports the offending id.
type UnknownQuestionError struct {
	ID string
}

func (e *UnknownQuestionError) Error() string {
	return fmt.Sprintf("unknown question %q", e.ID)
}

func (e *UnknownQuestionError) Unwrap() error { return ErrUnknownQuestion }
