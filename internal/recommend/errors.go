package recommend

import (
	"errors"
	"fmt"
)

// ErrNoQuestionsAvailable marks an empty recommendation pool.
var ErrNoQuestionsAvailable = errors.New("no questions available")

// NoQuestionsAvailableError explains why the pool came up empty.
type NoQuestionsAvailableError struct {
	Reason string
}

func (e *NoQuestionsAvailableError) Error() string {
	return fmt.Sprintf("no questions available: %s", e.Reason)
}

func (e *NoQuestionsAvailableError) Unwrap() error { return ErrNoQuestionsAvailable }
