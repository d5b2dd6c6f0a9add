package knowledge

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/abhisek/kgtutor/internal/vecmath"
)

func testPoints() []KnowledgePoint {
	return []KnowledgePoint{
		{ID: "K1", Name: "Sets", Embedding: vecmath.Vector{1, 0, 0}},
		{ID: "K2", Name: "Relations", Embedding: vecmath.Vector{0, 1, 0}},
		{ID: "K3", Name: "Graphs", Embedding: vecmath.Vector{0, 0, 1}},
		{ID: "K4", Embedding: vecmath.Vector{1, 1, 0}},
	}
}

func testRelations() []Relation {
	return []Relation{
		{Source: "K1", Target: "K2", Kind: PrerequisiteFor},
		{Source: "K2", Target: "K4", Kind: PrerequisiteFor},
		{Source: "K2", Target: "K3", Kind: RelatedTo},
	}
}

func TestNew_BuildsIndices(t *testing.T) {
	g, err := New(testPoints(), testRelations())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if g.Len() != 4 || g.Dim() != 3 {
		t.Fatalf("Len/Dim = %d/%d, want 4/3", g.Len(), g.Dim())
	}
	for i, id := range []string{"K1", "K2", "K3", "K4"} {
		idx, ok := g.Index(id)
		if !ok || idx != i {
			t.Errorf("Index(%q) = %d, %v; want %d", id, idx, ok, i)
		}
		if g.ID(i) != id {
			t.Errorf("ID(%d) = %q, want %q", i, g.ID(i), id)
		}
	}
	if g.Name("K4") != "K4" {
		t.Errorf("unnamed point should fall back to its id, got %q", g.Name("K4"))
	}
}

func TestGraph_RelationsAndSuccessors(t *testing.T) {
	g, err := New(testPoints(), testRelations())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if got := g.RelationsFrom("K2"); len(got) != 2 {
		t.Errorf("RelationsFrom(K2) = %v, want 2 relations", got)
	}
	if got := g.Successors("K2", PrerequisiteFor); !slices.Equal(got, []string{"K4"}) {
		t.Errorf("Successors(K2, prerequisite) = %v", got)
	}
	if got := g.RelationsTo("K2"); len(got) != 1 || got[0].Source != "K1" {
		t.Errorf("RelationsTo(K2) = %v", got)
	}
	if got := g.RelationsFrom("missing"); got != nil {
		t.Errorf("RelationsFrom(missing) = %v, want nil", got)
	}
}

func TestGraph_FoundationalDefaultsToRoots(t *testing.T) {
	g, err := New(testPoints(), testRelations())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := g.Foundational(); !slices.Equal(got, []string{"K1", "K3"}) {
		t.Errorf("Foundational() = %v, want [K1 K3]", got)
	}

	g, err = New(testPoints(), testRelations(), WithFoundational("K2"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := g.Foundational(); !slices.Equal(got, []string{"K2"}) {
		t.Errorf("Foundational() = %v, want [K2]", got)
	}
}

func TestGraph_EmbeddingOfIsCopy(t *testing.T) {
	g, err := New(testPoints(), testRelations())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	v, err := g.EmbeddingOf("K1")
	if err != nil {
		t.Fatalf("EmbeddingOf: %v", err)
	}
	v[0] = 42
	if g.EmbeddingAt(0)[0] != 1 {
		t.Error("mutating a returned embedding changed the graph")
	}

	_, err = g.EmbeddingOf("nope")
	var unknown *UnknownKnowledgePointError
	if !errors.As(err, &unknown) || unknown.ID != "nope" {
		t.Errorf("expected UnknownKnowledgePointError, got %v", err)
	}
	if !errors.Is(err, ErrUnknownKnowledgePoint) {
		t.Error("error should match ErrUnknownKnowledgePoint")
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	points := []KnowledgePoint{
		{ID: "a", Embedding: vecmath.Vector{1, 0}},
		{ID: "a", Embedding: vecmath.Vector{0, 1}},
		{ID: "b", Embedding: vecmath.Vector{0, 0}},
		{ID: "c", Embedding: vecmath.Vector{1}},
	}
	relations := []Relation{
		{Source: "a", Target: "ghost", Kind: PrerequisiteFor},
		{Source: "b", Target: "b", Kind: RelatedTo},
	}
	_, err := New(points, relations, WithFoundational("zzz"))
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.Is(err, ErrDataIntegrity) {
		t.Fatalf("expected ErrDataIntegrity, got %v", err)
	}
	var die *DataIntegrityError
	if !errors.As(err, &die) {
		t.Fatalf("expected *DataIntegrityError, got %T", err)
	}
	for _, want := range []string{"duplicate", "zero vector", "dimensions", "ghost", "self loop", "zzz"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %q, got: %v", want, err)
		}
	}
}

func TestValidate_DetectsPrerequisiteCycle(t *testing.T) {
	points := testPoints()
	relations := append(testRelations(), Relation{Source: "K4", Target: "K1", Kind: PrerequisiteFor})
	_, err := New(points, relations)
	if err == nil {
		t.Fatal("expected error for cycle, got nil")
	}
	if !strings.Contains(err.Error(), "cycle") {
		t.Errorf("error should mention cycle, got: %v", err)
	}
}

func TestValidate_RelatedCycleAllowed(t *testing.T) {
	relations := append(testRelations(), Relation{Source: "K3", Target: "K2", Kind: RelatedTo})
	if _, err := New(testPoints(), relations); err != nil {
		t.Errorf("related_to edges may form cycles: %v", err)
	}
}

func TestValidate_WithDim(t *testing.T) {
	_, err := New(testPoints(), testRelations(), WithDim(50))
	if err == nil || !strings.Contains(err.Error(), "want 50") {
		t.Errorf("expected dimension mismatch, got %v", err)
	}
}

func TestParseRelationKind(t *testing.T) {
	tests := []struct {
		in   string
		want RelationKind
		ok   bool
	}{
		{"is_prerequisite_for", PrerequisiteFor, true},
		{"prerequisite_for", PrerequisiteFor, true},
		{" IS_RELATED_TO ", RelatedTo, true},
		{"related_to", RelatedTo, true},
		{"is_part_of", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseRelationKind(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseRelationKind(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
