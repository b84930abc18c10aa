// Package redis provides a Redis-backed task store.
//
// Each task is stored as JSON under "task:<id>". A sorted set scored by
// creation time backs the recent listing.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/gmap/pkg/task"
)

const (
	keyPrefix = "task:"
	recentKey = "tasks:recent"
)

// Store persists tasks in Redis.
type Store struct {
	client redis.UniversalClient
}

// NewStore connects to the Redis server at url (redis://host:port/db).
func NewStore(ctx context.Context, url string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Store{client: client}, nil
}

// NewStoreWithClient wraps an existing client.
func NewStoreWithClient(client redis.UniversalClient) *Store {
	return &Store{client: client}
}

// Get loads the task with the given id.
func (s *Store) Get(ctx context.Context, id string) (*task.Task, error) {
	data, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, task.ErrNotFound
	}
	if err != nil {
		return nil, classify(err)
	}
	var t task.Task
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode task %s: %w", id, err)
	}
	return &t, nil
}

// Save writes the task record and indexes it for the recent listing.
func (s *Store) Save(ctx context.Context, t *task.Task) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode task %s: %w", t.ID, err)
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, keyPrefix+t.ID, data, 0)
		p.ZAdd(ctx, recentKey, redis.Z{Score: float64(t.CreatedAt.UnixNano()), Member: t.ID})
		return nil
	})
	if err != nil {
		return classify(fmt.Errorf("save task %s: %w", t.ID, err))
	}
	return nil
}

// Recent returns tasks ordered by creation time, newest first.
func (s *Store) Recent(ctx context.Context, offset, limit int) ([]*task.Task, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(offset + limit - 1)
	}
	ids, err := s.client.ZRevRange(ctx, recentKey, int64(offset), stop).Result()
	if err != nil {
		return nil, classify(err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = keyPrefix + id
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, classify(err)
	}

	tasks := make([]*task.Task, 0, len(vals))
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var t task.Task
		if err := json.Unmarshal([]byte(str), &t); err != nil {
			return nil, fmt.Errorf("decode task %s: %w", ids[i], err)
		}
		tasks = append(tasks, &t)
	}
	return tasks, nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// classify marks connection failures as retryable.
func classify(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, redis.ErrClosed) {
		return task.Retryable(err)
	}
	return err
}

var _ task.Store = (*Store)(nil)
