package store

import (
	"context"
	"sort"
	"sync"

	"github.com/matzehuels/tracetower/pkg/errors"
)

// MemoryStore keeps traces in process memory. It backs tests and the
// serve mode when no Mongo URI is configured.
type MemoryStore struct {
	mu     sync.RWMutex
	traces map[string]*StoredTrace
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{traces: make(map[string]*StoredTrace)}
}

// Save implements Store.
func (s *MemoryStore) Save(ctx context.Context, st *StoredTrace) error {
	if st.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "stored trace needs an id")
	}
	st.denormalize()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.traces[st.ID] = st
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, id string) (*StoredTrace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.traces[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeTraceNotFound, "trace %q not found", id)
	}
	return st, nil
}

// List implements Store.
func (s *MemoryStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]Summary, 0, len(s.traces))
	for _, st := range s.traces {
		summaries = append(summaries, summarize(st))
	}
	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
		}
		return summaries[i].ID < summaries[j].ID
	})
	return summaries, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.traces, id)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
