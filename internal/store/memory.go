package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/abhisek/kgtutor/internal/knowledge"
	"github.com/abhisek/kgtutor/internal/learner"
	"github.com/abhisek/kgtutor/internal/session"
)

// Backend is a session.Store that holds resources.
type Backend interface {
	session.Store
	Close() error
}

// MemoryStore keeps learners in process memory. States are copied on the
// way in and out so callers never share them.
type MemoryStore struct {
	graph *knowledge.Graph

	mu     sync.RWMutex
	states map[string]*learner.State
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(g *knowledge.Graph) *MemoryStore {
	return &MemoryStore{graph: g, states: make(map[string]*learner.State)}
}

func (m *MemoryStore) Get(_ context.Context, studentID string) (*learner.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[studentID]
	if !ok {
		return nil, fmt.Errorf("%q: %w", studentID, session.ErrNotFound)
	}
	return st.Clone(), nil
}

func (m *MemoryStore) Put(_ context.Context, st *learner.State) error {
	if st.Graph() != m.graph {
		return fmt.Errorf("learner %q is indexed against a different graph", st.StudentID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[st.StudentID] = st.Clone()
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, studentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, studentID)
	return nil
}

func (m *MemoryStore) List(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.states))
	for id := range m.states {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MemoryStore) Close() error { return nil }
