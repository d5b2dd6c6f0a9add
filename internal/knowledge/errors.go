package knowledge

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDataIntegrity marks malformed or inconsistent static data.
	ErrDataIntegrity = errors.New("data integrity violation")
	// ErrUnknownKnowledgePoint marks a runtime reference to a missing point.
	ErrUnknownKnowledgePoint = errors.New("unknown knowledge point")
)

// DataIntegrityError collects every structural problem found while loading
// the graph or the question bank.
type DataIntegrityError struct {
	Source   string
	Problems []string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("%s validation failed:\n  %s", e.Source, strings.Join(e.Problems, "\n  "))
}

func (e *DataIntegrityError) Unwrap() error { return ErrDataIntegrity }

// UnknownKnowledgePointError reports an id that is not in the graph.
type UnknownKnowledgePointError struct {
	ID string
}

func (e *UnknownKnowledgePointError) Error() string {
	return fmt.Sprintf("unknown knowledge point %q", e.ID)
}

func (e *UnknownKnowledgePointError) Unwrap() error { return ErrUnknownKnowledgePoint }
