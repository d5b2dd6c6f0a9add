package knowledge

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/abhisek/kgtutor/internal/vecmath"
)

// ReadEmbeddings parses the embedding table produced by the offline
// embedding job: a header row followed by "kp_id,d0,...,dN" rows. The order
// of rows defines the knowledge-point index order.
func ReadEmbeddings(r io.Reader) ([]KnowledgePoint, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read embeddings header: %w", err)
	}
	if len(header) < 2 {
		return nil, &DataIntegrityError{Source: "embeddings", Problems: []string{"header must contain an id column and at least one dimension"}}
	}

	var (
		points []KnowledgePoint
		errs   []string
	)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read embeddings line %d: %w", line, err)
		}

		id := strings.TrimSpace(rec[0])
		vec := make(vecmath.Vector, 0, len(rec)-1)
		for col, field := range rec[1:] {
			x, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				errs = append(errs, fmt.Sprintf("line %d column %d: %v", line, col+2, err))
				continue
			}
			vec = append(vec, x)
		}
		points = append(points, KnowledgePoint{ID: id, Embedding: vec})
	}

	if len(errs) > 0 {
		return nil, &DataIntegrityError{Source: "embeddings", Problems: errs}
	}
	return points, nil
}

// ReadRelations parses the relation table
// "kp1_id,kp1_name,relation,kp2_id,kp2_name". Names found in the table are
// returned keyed by id.
func ReadRelations(r io.Reader) ([]Relation, map[string]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = 5

	if _, err := cr.Read(); err != nil {
		return nil, nil, fmt.Errorf("read relations header: %w", err)
	}

	var (
		relations []Relation
		errs      []string
	)
	names := make(map[string]string)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read relations line %d: %w", line, err)
		}

		src, dst := strings.TrimSpace(rec[0]), strings.TrimSpace(rec[3])
		kind, ok := ParseRelationKind(rec[2])
		if !ok {
			errs = append(errs, fmt.Sprintf("line %d: unknown relation %q", line, rec[2]))
			continue
		}
		if n := strings.TrimSpace(rec[1]); n != "" {
			names[src] = n
		}
		if n := strings.TrimSpace(rec[4]); n != "" {
			names[dst] = n
		}
		relations = append(relations, Relation{Source: src, Target: dst, Kind: kind})
	}

	if len(errs) > 0 {
		return nil, nil, &DataIntegrityError{Source: "relations", Problems: errs}
	}
	return relations, names, nil
}

// Load reads embeddings and relations and builds a validated graph.
func Load(embeddings, relations io.Reader, opts ...Option) (*Graph, error) {
	points, err := ReadEmbeddings(embeddings)
	if err != nil {
		return nil, err
	}
	rels, names, err := ReadRelations(relations)
	if err != nil {
		return nil, err
	}
	for i := range points {
		points[i].Name = names[points[i].ID]
	}
	return New(points, rels, opts...)
}
