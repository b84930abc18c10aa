// Package memory provides an in-process task store.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/matzehuels/gmap/pkg/task"
)

// Store keeps tasks in a map. Records are copied on Save and Get so callers
// never share memory with the store.
type Store struct {
	mu    sync.RWMutex
	tasks map[string]*task.Task
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{tasks: make(map[string]*task.Task)}
}

// Get returns a copy of the task with the given id.
func (s *Store) Get(_ context.Context, id string) (*task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, task.ErrNotFound
	}
	return t.Clone(), nil
}

// Save stores a copy of t.
func (s *Store) Save(_ context.Context, t *task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = t.Clone()
	return nil
}

// Recent returns up to limit tasks, newest first, skipping offset.
func (s *Store) Recent(_ context.Context, offset, limit int) ([]*task.Task, error) {
	s.mu.RLock()
	all := make([]*task.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		all = append(all, t)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return nil, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]*task.Task, 0, end-offset)
	for _, t := range all[offset:end] {
		out = append(out, t.Clone())
	}
	return out, nil
}

// Len returns the number of stored tasks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Close does nothing for the memory store.
func (s *Store) Close() error { return nil }

var _ task.Store = (*Store)(nil)
