// Package config loads gmap configuration from TOML.
//
// Every field has a default, so an absent file is valid. A minimal server
// configuration looks like:
//
//	[tools]
//	dir = "/srv/gmap/external"
//
//	[store]
//	backend = "mongo"
//	url = "mongodb://localhost:27017"
//
//	[cache]
//	backend = "redis"
//	url = "redis://localhost:6379/0"
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/gmap/pkg/stage"
	"github.com/matzehuels/gmap/pkg/worker"
)

// DefaultFile is loaded when no --config flag is given and it exists.
const DefaultFile = "gmap.toml"

// Store backends.
const (
	StoreMemory = "memory"
	StoreMongo  = "mongo"
	StoreRedis  = "redis"
)

// Cache backends.
const (
	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"
)

// Config is the full gmap configuration.
type Config struct {
	// WorkDir is the working directory of every external tool. Relative
	// tool paths resolve against it.
	WorkDir string      `toml:"work_dir"`
	Tools   stage.Tools `toml:"tools"`
	Server  Server      `toml:"server"`
	Worker  Worker      `toml:"worker"`
	Store   Store       `toml:"store"`
	Cache   Cache       `toml:"cache"`
}

// Server configures the HTTP API.
type Server struct {
	Addr            string        `toml:"addr"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
	// RecentPageSize is the number of tasks per page of the recent listing.
	RecentPageSize int `toml:"recent_page_size"`
}

// Worker configures the worker pool.
type Worker struct {
	Workers   int `toml:"workers"`
	QueueSize int `toml:"queue_size"`
}

// Store selects the task store backend.
type Store struct {
	Backend  string `toml:"backend"`
	URL      string `toml:"url"`
	Database string `toml:"database"`
}

// Cache selects the artifact cache backend.
type Cache struct {
	Backend string `toml:"backend"`
	Dir     string `toml:"dir"`
	URL     string `toml:"url"`
	Prefix  string `toml:"prefix"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Tools: stage.DefaultTools(stage.DefaultDir),
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RecentPageSize:  30,
		},
		Worker: Worker{
			Workers:   worker.DefaultWorkers,
			QueueSize: worker.DefaultQueueSize,
		},
		Store: Store{Backend: StoreMemory},
		Cache: Cache{Backend: CacheNone, Prefix: "gmap:"},
	}
}

// Load reads path over the defaults and validates the result. An empty
// path loads DefaultFile if it exists and the defaults otherwise.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if _, err := os.Stat(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Tool paths left empty in the file are derived from tools.dir, which
	// itself defaults to the relative DefaultDir.
	cfg.Tools = stage.Tools{}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Tools = cfg.Tools.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks backend names, required URLs and sizes.
func (c *Config) Validate() error {
	var errs []error

	if !slices.Contains([]string{StoreMemory, StoreMongo, StoreRedis}, c.Store.Backend) {
		errs = append(errs, fmt.Errorf("store.backend: unknown backend %q", c.Store.Backend))
	} else if c.Store.Backend != StoreMemory && c.Store.URL == "" {
		errs = append(errs, fmt.Errorf("store.url is required for the %s backend", c.Store.Backend))
	}

	switch c.Cache.Backend {
	case CacheNone:
	case CacheFile:
		if c.Cache.Dir == "" {
			errs = append(errs, errors.New("cache.dir is required for the file backend"))
		}
	case CacheRedis:
		if c.Cache.URL == "" {
			errs = append(errs, errors.New("cache.url is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.backend: unknown backend %q", c.Cache.Backend))
	}

	if c.Worker.Workers < 1 {
		errs = append(errs, errors.New("worker.workers must be at least 1"))
	}
	if c.Worker.QueueSize < 1 {
		errs = append(errs, errors.New("worker.queue_size must be at least 1"))
	}
	if c.Server.RecentPageSize < 1 {
		errs = append(errs, errors.New("server.recent_page_size must be at least 1"))
	}

	return errors.Join(errs...)
}
