package knowledge

import (
	"slices"

	"github.com/abhisek/kgtutor/internal/vecmath"
)

// Graph is the read-only knowledge graph with precomputed indices. It is
// safe for concurrent use once built.
type Graph struct {
	points       []KnowledgePoint
	byID         map[string]int
	outgoing     [][]Relation
	incoming     [][]Relation
	foundational []string
	dim          int
}

// Option configures graph construction.
type Option func(*buildOptions)

type buildOptions struct {
	dim          int
	foundational []string
}

// WithDim requires every embedding to have exactly dim components.
// A dim of 0 accepts whatever dimension the first point carries.
func WithDim(dim int) Option {
	return func(o *buildOptions) { o.dim = dim }
}

// WithFoundational sets the cold-start seed points. Without it the roots of
// the prerequisite hierarchy are used.
func WithFoundational(ids ...string) Option {
	return func(o *buildOptions) { o.foundational = slices.Clone(ids) }
}

// New validates points and relations and builds the graph. Points keep the
// order they were given in; that order defines their Index.
func New(points []KnowledgePoint, relations []Relation, opts ...Option) (*Graph, error) {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	if err := validate(points, relations, o); err != nil {
		return nil, err
	}

	g := &Graph{
		points:   make([]KnowledgePoint, len(points)),
		byID:     make(map[string]int, len(points)),
		outgoing: make([][]Relation, len(points)),
		incoming: make([][]Relation, len(points)),
	}
	for i, p := range points {
		p.Index = i
		p.Embedding = p.Embedding.Clone()
		if p.Name == "" {
			p.Name = p.ID
		}
		g.points[i] = p
		g.byID[p.ID] = i
	}
	if len(points) > 0 {
		g.dim = len(points[0].Embedding)
	}

	for _, r := range relations {
		src, dst := g.byID[r.Source], g.byID[r.Target]
		g.outgoing[src] = append(g.outgoing[src], r)
		g.incoming[dst] = append(g.incoming[dst], r)
	}

	if len(o.foundational) > 0 {
		g.foundational = o.foundational
	} else {
		for _, p := range g.points {
			if !g.hasIncoming(p.Index, PrerequisiteFor) {
				g.foundational = append(g.foundational, p.ID)
			}
		}
	}

	return g, nil
}

func (g *Graph) hasIncoming(idx int, kind RelationKind) bool {
	for _, r := range g.incoming[idx] {
		if r.Kind == kind {
			return true
		}
	}
	return false
}

// Dim returns the embedding dimension.
func (g *Graph) Dim() int { return g.dim }

// Len returns the number of knowledge points.
func (g *Graph) Len() int { return len(g.points) }

// Points returns all knowledge points in index order.
func (g *Graph) Points() []KnowledgePoint {
	return slices.Clone(g.points)
}

// IDs returns all knowledge-point ids in index order.
func (g *Graph) IDs() []string {
	ids := make([]string, len(g.points))
	for i, p := range g.points {
		ids[i] = p.ID
	}
	return ids
}

// Point returns the knowledge point with the given id.
func (g *Graph) Point(id string) (KnowledgePoint, error) {
	idx, ok := g.byID[id]
	if !ok {
		return KnowledgePoint{}, &UnknownKnowledgePointError{ID: id}
	}
	return g.points[idx], nil
}

// Index returns the dense index of id.
func (g *Graph) Index(id string) (int, bool) {
	idx, ok := g.byID[id]
	return idx, ok
}

// ID returns the id stored at idx.
func (g *Graph) ID(idx int) string {
	return g.points[idx].ID
}

// Name returns the display name for id, falling back to the id itself.
func (g *Graph) Name(id string) string {
	if idx, ok := g.byID[id]; ok {
		return g.points[idx].Name
	}
	return id
}

// EmbeddingOf returns a copy of the embedding of id.
func (g *Graph) EmbeddingOf(id string) (vecmath.Vector, error) {
	idx, ok := g.byID[id]
	if !ok {
		return nil, &UnknownKnowledgePointError{ID: id}
	}
	return g.points[idx].Embedding.Clone(), nil
}

// EmbeddingAt returns the shared embedding at idx. Callers must not modify it.
func (g *Graph) EmbeddingAt(idx int) vecmath.Vector {
	return g.points[idx].Embedding
}

// RelationsFrom returns the outgoing relations of id.
func (g *Graph) RelationsFrom(id string) []Relation {
	idx, ok := g.byID[id]
	if !ok {
		return nil
	}
	return slices.Clone(g.outgoing[idx])
}

// RelationsTo returns the incoming relations of id.
func (g *Graph) RelationsTo(id string) []Relation {
	idx, ok := g.byID[id]
	if !ok {
		return nil
	}
	return slices.Clone(g.incoming[idx])
}

// Successors returns the targets of outgoing relations of the given kind.
func (g *Graph) Successors(id string, kind RelationKind) []string {
	var out []string
	for _, r := range g.RelationsFrom(id) {
		if r.Kind == kind {
			out = append(out, r.Target)
		}
	}
	return out
}

// Foundational returns the cold-start seed points.
func (g *Graph) Foundational() []string {
	return slices.Clone(g.foundational)
}

// Relations returns every relation in source-index order.
func (g *Graph) Relations() []Relation {
	var out []Relation
	for _, rs := range g.outgoing {
		out = append(out, rs...)
	}
	return out
}
