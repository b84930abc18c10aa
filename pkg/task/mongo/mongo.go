// Package mongo provides a MongoDB-backed task store.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/gmap/pkg/task"
)

// Config configures the MongoDB connection.
type Config struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

// Defaults for Config fields left empty.
const (
	DefaultDatabase   = "gmap"
	DefaultCollection = "tasks"
	DefaultTimeout    = 10 * time.Second
)

func (c *Config) setDefaults() {
	if c.Database == "" {
		c.Database = DefaultDatabase
	}
	if c.Collection == "" {
		c.Collection = DefaultCollection
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
}

// Store keeps one document per task, keyed by task ID.
type Store struct {
	client  *mongo.Client
	coll    *mongo.Collection
	timeout time.Duration
}

// NewStore connects to MongoDB and ensures the recency index exists.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	cfg.setDefaults()
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = coll.Indexes().CreateOne(connectCtx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &Store{client: client, coll: coll, timeout: cfg.Timeout}, nil
}

// Get loads the task document with the given id.
func (s *Store) Get(ctx context.Context, id string) (*task.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var t task.Task
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, task.ErrNotFound
	}
	if err != nil {
		return nil, classify(err)
	}
	return &t, nil
}

// Save replaces the task document, inserting it if needed.
func (s *Store) Save(ctx context.Context, t *task.Task) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": t.ID}, t, options.Replace().SetUpsert(true))
	if err != nil {
		return classify(fmt.Errorf("save task %s: %w", t.ID, err))
	}
	return nil
}

// Recent returns tasks ordered by creation time, newest first.
func (s *Store) Recent(ctx context.Context, offset, limit int) ([]*task.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset))
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, classify(err)
	}
	defer cur.Close(ctx)

	var tasks []*task.Task
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, classify(err)
	}
	return tasks, nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// classify marks network and timeout failures as retryable.
func classify(err error) error {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return task.Retryable(err)
	}
	return err
}

var _ task.Store = (*Store)(nil)
