package session

import (
	"context"
	"errors"

	"github.com/abhisek/kgtutor/internal/learner"
)

// ErrNotFound is returned by a Store when no state exists for a learner.
var ErrNotFound = errors.New("learner not found")

// ErrExists is returned when starting a session for a learner that already
// has one and the caller asked not to replace it.
var ErrExists = errors.New("learner already exists")

// Store persists learner states between calls.
type Store interface {
	// Get returns the stored state, or an error wrapping ErrNotFound.
	Get(ctx context.Context, studentID string) (*learner.State, error)

	// Put stores st, replacing any previous state of the same learner.
	Put(ctx context.Context, st *learner.State) error

	// Remove deletes a learner. Removing an unknown learner is not an error.
	Remove(ctx context.Context, studentID string) error

	// List returns the ids of all stored learners in ascending order.
	List(ctx context.Context) ([]string, error)
}
