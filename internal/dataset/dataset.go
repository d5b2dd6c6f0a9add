// Package dataset bundles the sample discrete-mathematics knowledge graph,
// its embeddings and question bank, and loads either the bundled copy or a
// directory with the same layout.
package dataset

import (
	"embed"
	"fmt"
	"io/fs"
	"os"

	"github.com/abhisek/kgtutor/internal/knowledge"
	"github.com/abhisek/kgtutor/internal/questionbank"
)

// File names inside a data directory.
const (
	EmbeddingsFile   = "embeddings.csv"
	RelationsFile    = "knowledge_graph.csv"
	QuestionBankFile = "question_bank.json"
)

//go:embed data/*
var bundled embed.FS

// Dataset is a loaded graph together with the bank built over it.
type Dataset struct {
	Graph *knowledge.Graph
	Bank  *questionbank.Bank
}

// Default loads the bundled sample data.
func Default(opts ...knowledge.Option) (*Dataset, error) {
	sub, err := fs.Sub(bundled, "data")
	if err != nil {
		return nil, err
	}
	return LoadFS(sub, opts...)
}

// LoadDir loads the three data files from dir.
func LoadDir(dir string, opts ...knowledge.Option) (*Dataset, error) {
	return LoadFS(os.DirFS(dir), opts...)
}

// Load returns the bundled data when dir is empty, otherwise the data in dir.
func Load(dir string, opts ...knowledge.Option) (*Dataset, error) {
	if dir == "" {
		return Default(opts...)
	}
	return LoadDir(dir, opts...)
}

// LoadFS loads the three data files from fsys.
func LoadFS(fsys fs.FS, opts ...knowledge.Option) (*Dataset, error) {
	emb, err := fsys.Open(EmbeddingsFile)
	if err != nil {
		return nil, fmt.Errorf("open embeddings: %w", err)
	}
	defer emb.Close()

	rel, err := fsys.Open(RelationsFile)
	if err != nil {
		return nil, fmt.Errorf("open relations: %w", err)
	}
	defer rel.Close()

	g, err := knowledge.Load(emb, rel, opts...)
	if err != nil {
		return nil, fmt.Errorf("load knowledge graph: %w", err)
	}

	qb, err := fsys.Open(QuestionBankFile)
	if err != nil {
		return nil, fmt.Errorf("open question bank: %w", err)
	}
	defer qb.Close()

	bank, err := questionbank.Load(qb, g)
	if err != nil {
		return nil, fmt.Errorf("load question bank: %w", err)
	}

	return &Dataset{Graph: g, Bank: bank}, nil
}
