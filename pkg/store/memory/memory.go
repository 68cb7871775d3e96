// Package memory provides an in-memory implementation of store.ThreadStore
// for testing and lightweight deployments. Threads are stored in memory and
// lost when the process restarts.
package memory

import (
	"context"
	"sync"

	"github.com/legichat/legichat/pkg/api"
	"github.com/legichat/legichat/pkg/store"
)

// entry holds a thread and its append log.
type entry struct {
	thread api.Thread
	turns  []api.Turn
}

// Store is an in-memory ThreadStore.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// Ensure Store implements store.ThreadStore at compile time.
var _ store.ThreadStore = (*Store)(nil)

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		entries: make(map[string]*entry),
	}
}

// CreateThread persists a new thread in memory.
func (s *Store) CreateThread(_ context.Context, thread *api.Thread) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[thread.ID]; exists {
		return store.ErrConflict
	}

	s.entries[thread.ID] = &entry{thread: *thread}
	return nil
}

// GetThread retrieves thread metadata by ID.
func (s *Store) GetThread(_ context.Context, id string) (*api.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, store.ErrNotFound
	}

	th := e.thread
	return &th, nil
}

// LoadTurns returns a copy of the thread's turns in sequence order.
func (s *Store) LoadTurns(_ context.Context, threadID string) ([]api.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[threadID]
	if !ok {
		return nil, store.ErrNotFound
	}

	turns := make([]api.Turn, len(e.turns))
	copy(turns, e.turns)
	return turns, nil
}

// AppendTurn adds a turn to the end of the thread's log.
func (s *Store) AppendTurn(_ context.Context, threadID string, turn api.Turn) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[threadID]
	if !ok {
		return 0, store.ErrNotFound
	}

	turn.Seq = len(e.turns)
	e.turns = append(e.turns, turn)
	return turn.Seq, nil
}

// HealthCheck always returns nil for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}
