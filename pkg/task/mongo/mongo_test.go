package mongo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/matzehuels/gmap/pkg/task"
)

func TestConfigDefaults(t *testing.T) {
	cfg := Config{URI: "mongodb://localhost"}
	cfg.setDefaults()
	if cfg.Database != DefaultDatabase || cfg.Collection != DefaultCollection || cfg.Timeout != DefaultTimeout {
		t.Errorf("defaults = %+v", cfg)
	}

	cfg = Config{Database: "maps", Collection: "jobs", Timeout: time.Second}
	cfg.setDefaults()
	if cfg.Database != "maps" || cfg.Collection != "jobs" || cfg.Timeout != time.Second {
		t.Errorf("overrides lost: %+v", cfg)
	}
}

func TestNewStoreRequiresURI(t *testing.T) {
	if _, err := NewStore(context.Background(), Config{}); err == nil {
		t.Error("expected error for empty URI")
	}
}

func TestNewStoreUnreachable(t *testing.T) {
	_, err := NewStore(context.Background(), Config{
		URI:     "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=200&connectTimeoutMS=200",
		Timeout: 2 * time.Second,
	})
	if err == nil {
		t.Fatal("expected error for unreachable server")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"deadline", context.DeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("save task x: %w", context.DeadlineExceeded), true},
		{"other", errors.New("duplicate key"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := task.IsRetryable(classify(tt.err)); got != tt.retryable {
				t.Errorf("IsRetryable(classify(%v)) = %v, want %v", tt.err, got, tt.retryable)
			}
		})
	}
}
