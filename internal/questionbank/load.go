package questionbank

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/abhisek/kgtutor/internal/knowledge"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "schema://question_bank.json"

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

// DefaultDifficulty is used for questions that do not state one.
const DefaultDifficulty = 0.5

type fileQuestion struct {
	ID              string             `json:"qid"`
	Content         string             `json:"content"`
	Options         []string           `json:"options"`
	Answer          string             `json:"answer"`
	KnowledgePoints map[string]float64 `json:"knowledge_points"`
	Difficulty      *float64           `json:"difficulty"`
}

type file struct {
	Questions []fileQuestion `json:"questions"`
}

func bankSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			compileErr = fmt.Errorf("parse schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}

// Load decodes a question bank file, validates it against the bank schema
// and against g, and builds the bank. The answer of each question may be
// given as a letter or as the text of the correct option.
func Load(r io.Reader, g *knowledge.Graph) (*Bank, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}

	schema, err := bankSchema()
	if err != nil {
		return nil, fmt.Errorf("compile question bank schema: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, &knowledge.DataIntegrityError{Source: "question bank", Problems: []string{fmt.Sprintf("invalid JSON: %v", err)}}
	}
	if err := schema.Validate(doc); err != nil {
		return nil, &knowledge.DataIntegrityError{Source: "question bank", Problems: []string{err.Error()}}
	}

	var f file
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode question bank: %w", err)
	}

	var errs []string
	questions := make([]Question, 0, len(f.Questions))
	for _, fq := range f.Questions {
		q := Question{
			ID:              fq.ID,
			Content:         fq.Content,
			Options:         fq.Options,
			KnowledgePoints: fq.KnowledgePoints,
			Difficulty:      DefaultDifficulty,
		}
		if fq.Difficulty != nil {
			q.Difficulty = *fq.Difficulty
		}
		letter, ok := q.ResolveOption(fq.Answer)
		if !ok {
			errs = append(errs, fmt.Sprintf("question %q: answer %q matches no option", fq.ID, fq.Answer))
			continue
		}
		q.CorrectOption = letter
		questions = append(questions, q)
	}
	if len(errs) > 0 {
		return nil, &knowledge.DataIntegrityError{Source: "question bank", Problems: errs}
	}

	return New(questions, g)
}
