// Package cli implements the gmap command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gmap/pkg/buildinfo"
	"github.com/matzehuels/gmap/pkg/cache"
	"github.com/matzehuels/gmap/pkg/config"
	"github.com/matzehuels/gmap/pkg/proc"
	"github.com/matzehuels/gmap/pkg/task"
	"github.com/matzehuels/gmap/pkg/task/memory"
	"github.com/matzehuels/gmap/pkg/task/mongo"
	"github.com/matzehuels/gmap/pkg/task/redis"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "gmap"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger     *log.Logger
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "gmap turns graphs into maps",
		Long:         `gmap runs graph descriptions through external layout, clustering and map construction tools and serves the resulting maps over HTTP.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default "+config.DefaultFile+" if present)")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.runCommand())
	root.AddCommand(c.planCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Factories
// =============================================================================

func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("config loaded", "path", c.configPath, "store", cfg.Store.Backend, "cache", cfg.Cache.Backend)
	return cfg, nil
}

// newProc creates the external tool runner.
func (c *CLI) newProc(cfg *config.Config) proc.Runner {
	r := proc.NewExecRunner(c.Logger)
	r.Dir = cfg.WorkDir
	return r
}

// openStore connects the configured task store.
func (c *CLI) openStore(ctx context.Context, cfg *config.Config) (task.Store, error) {
	switch cfg.Store.Backend {
	case config.StoreMongo:
		s, err := mongo.NewStore(ctx, mongo.Config{URI: cfg.Store.URL, Database: cfg.Store.Database})
		if err != nil {
			return nil, fmt.Errorf("open mongo store: %w", err)
		}
		return s, nil
	case config.StoreRedis:
		s, err := redis.NewStore(ctx, cfg.Store.URL)
		if err != nil {
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		return s, nil
	}
	return memory.NewStore(), nil
}

// openCache connects the configured artifact cache along with its keyer.
func (c *CLI) openCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, cache.Keyer, error) {
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), cfg.Cache.Prefix)
	if noCache {
		return cache.NewNullCache(), keyer, nil
	}
	switch cfg.Cache.Backend {
	case config.CacheFile:
		fc, err := cache.NewFileCache(cfg.Cache.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("open file cache: %w", err)
		}
		return fc, keyer, nil
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("open redis cache: %w", err)
		}
		return rc, keyer, nil
	}
	return cache.NewNullCache(), keyer, nil
}

// localCache is the file cache used by one-shot runs when the config selects
// no cache.
func localCache(noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return cache.NewNullCache()
	}
	return fc
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/gmap/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

func closeQuietly(l *log.Logger, name string, c io.Closer) {
	if err := c.Close(); err != nil {
		l.Warn("close "+name, "error", err)
	}
}
