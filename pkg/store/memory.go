package store

import (
	"context"
	"slices"
	"sync"

	"github.com/matzehuels/depsync/pkg/errors"
)

// MemoryStore keeps runs in process memory. Suitable for single-instance
// deployments and tests; runs are lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewMemoryStore creates an empty in-memory run store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]*Run)}
}

// Put inserts or replaces a run.
func (s *MemoryStore) Put(ctx context.Context, run *Run) error {
	copied := *run
	s.mu.Lock()
	s.runs[run.ID] = &copied
	s.mu.Unlock()
	return nil
}

// Get retrieves a run by ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	run, ok := s.runs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.New(errors.ErrCodeRunNotFound, "no run with id %s", id)
	}
	copied := *run
	return &copied, nil
}

// List returns the most recent runs, newest first.
func (s *MemoryStore) List(ctx context.Context, limit int) ([]*Run, error) {
	s.mu.RLock()
	runs := make([]*Run, 0, len(s.runs))
	for _, run := range s.runs {
		copied := *run
		runs = append(runs, &copied)
	}
	s.mu.RUnlock()

	slices.SortFunc(runs, func(a, b *Run) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Close is a no-op for the memory backend.
func (s *MemoryStore) Close(ctx context.Context) error { return nil }
