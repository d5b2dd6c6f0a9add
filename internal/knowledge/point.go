package knowledge

import (
	"strings"

	"github.com/abhisek/kgtutor/internal/vecmath"
)

// DefaultDim is the embedding dimension produced by the offline embedding job.
const DefaultDim = 50

// RelationKind is the type of a directed edge between knowledge points.
type RelationKind string

const (
	PrerequisiteFor RelationKind = "prerequisite_for"
	RelatedTo       RelationKind = "related_to"
)

// ParseRelationKind accepts both the short kind names and the "is_"-prefixed
// names used by the knowledge-graph export.
func ParseRelationKind(s string) (RelationKind, bool) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "is_")
	switch RelationKind(s) {
	case PrerequisiteFor:
		return PrerequisiteFor, true
	case RelatedTo:
		return RelatedTo, true
	default:
		return "", false
	}
}

// KnowledgePoint is an atomic topic of the domain graph.
type KnowledgePoint struct {
	ID        string
	Name      string
	Embedding vecmath.Vector
	// Index is the dense position assigned at load time.
	Index int
}

// Relation is a directed edge Source -> Target.
type Relation struct {
	Source string
	Target string
	Kind   RelationKind
}
