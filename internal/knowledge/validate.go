package knowledge

import (
	"fmt"
	"math"
)

// validate performs all structural checks on the given points and relations.
// Every problem is collected so one load reports the full set.
func validate(points []KnowledgePoint, relations []Relation, o buildOptions) error {
	var errs []string

	if len(points) == 0 {
		errs = append(errs, "graph has no knowledge points")
	}

	dim := o.dim
	if dim == 0 && len(points) > 0 {
		dim = len(points[0].Embedding)
	}

	idSet := make(map[string]bool, len(points))
	for _, p := range points {
		if p.ID == "" {
			errs = append(errs, "knowledge point with empty ID")
			continue
		}
		if idSet[p.ID] {
			errs = append(errs, fmt.Sprintf("duplicate knowledge point ID: %q", p.ID))
		}
		idSet[p.ID] = true

		if len(p.Embedding) != dim {
			errs = append(errs, fmt.Sprintf("knowledge point %q: embedding has %d dimensions, want %d", p.ID, len(p.Embedding), dim))
			continue
		}
		finite := true
		for _, x := range p.Embedding {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				finite = false
				break
			}
		}
		if !finite {
			errs = append(errs, fmt.Sprintf("knowledge point %q: embedding has non-finite components", p.ID))
		} else if p.Embedding.IsZero() {
			errs = append(errs, fmt.Sprintf("knowledge point %q: embedding is the zero vector", p.ID))
		}
	}

	// Dangling endpoints and malformed edges
	for _, r := range relations {
		if r.Kind != PrerequisiteFor && r.Kind != RelatedTo {
			errs = append(errs, fmt.Sprintf("relation %q -> %q has unknown kind %q", r.Source, r.Target, r.Kind))
		}
		if !idSet[r.Source] {
			errs = append(errs, fmt.Sprintf("relation references nonexistent source %q", r.Source))
		}
		if !idSet[r.Target] {
			errs = append(errs, fmt.Sprintf("relation references nonexistent target %q", r.Target))
		}
		if r.Source == r.Target {
			errs = append(errs, fmt.Sprintf("relation %q -> %q is a self loop", r.Source, r.Target))
		}
	}

	if cycle := prerequisiteCycle(points, relations, idSet); len(cycle) > 0 {
		errs = append(errs, fmt.Sprintf("prerequisite cycle detected involving: %v", cycle))
	}

	for _, id := range o.foundational {
		if !idSet[id] {
			errs = append(errs, fmt.Sprintf("foundational knowledge point %q does not exist", id))
		}
	}

	if len(errs) > 0 {
		return &DataIntegrityError{Source: "knowledge graph", Problems: errs}
	}
	return nil
}

// prerequisiteCycle runs Kahn's algorithm over prerequisite edges and returns
// the points left with positive in-degree, in input order.
func prerequisiteCycle(points []KnowledgePoint, relations []Relation, idSet map[string]bool) []string {
	inDegree := make(map[string]int, len(points))
	adj := make(map[string][]string)
	for _, r := range relations {
		if r.Kind != PrerequisiteFor || !idSet[r.Source] || !idSet[r.Target] || r.Source == r.Target {
			continue
		}
		inDegree[r.Target]++
		adj[r.Source] = append(adj[r.Source], r.Target)
	}

	var queue []string
	for _, p := range points {
		if inDegree[p.ID] == 0 {
			queue = append(queue, p.ID)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range adj[id] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	var stuck []string
	for _, p := range points {
		if inDegree[p.ID] > 0 {
			stuck = append(stuck, p.ID)
		}
	}
	return stuck
}
