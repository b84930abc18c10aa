package cli

import (
	"context"
	"sync"

	"github.com/matzehuels/gmap/pkg/task"
)

// watchStore reports the status of every successful save, which is how
// one-shot runs follow pipeline progress.
type watchStore struct {
	task.Store

	mu     sync.Mutex
	notify func(task.Status)
}

func newWatchStore(inner task.Store) *watchStore {
	return &watchStore{Store: inner}
}

// OnStatus registers fn to be called after each save.
func (s *watchStore) OnStatus(fn func(task.Status)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notify = fn
}

func (s *watchStore) Save(ctx context.Context, t *task.Task) error {
	if err := s.Store.Save(ctx, t); err != nil {
		return err
	}
	s.mu.Lock()
	fn := s.notify
	s.mu.Unlock()
	if fn != nil {
		fn(t.Status)
	}
	return nil
}
