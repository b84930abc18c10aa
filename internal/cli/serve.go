package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/gmap/pkg/api"
	"github.com/matzehuels/gmap/pkg/observability"
	"github.com/matzehuels/gmap/pkg/observability/prom"
	"github.com/matzehuels/gmap/pkg/pipeline"
	"github.com/matzehuels/gmap/pkg/worker"
)

// serveCommand creates the serve command, which runs the HTTP API and the
// worker pool.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the map API",
		Long: `Serve the map API over HTTP.

Requests are queued on a bounded worker pool. When the queue is full new
requests are rejected with 503 until a worker frees up. SIGINT or SIGTERM
stops accepting requests and drains queued work.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.serve(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func (c *CLI) serve(ctx context.Context, addr string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	store, err := c.openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeQuietly(c.Logger, "store", store)

	artifacts, keyer, err := c.openCache(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer closeQuietly(c.Logger, "cache", artifacts)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom.Register(reg)
	defer observability.Reset()

	runner := pipeline.NewRunner(c.newProc(cfg), store, pipeline.Config{
		Tools:  cfg.Tools,
		Cache:  artifacts,
		Keyer:  keyer,
		Logger: c.Logger,
	})
	pool := worker.New(worker.Config{
		Workers:   cfg.Worker.Workers,
		QueueSize: cfg.Worker.QueueSize,
		Logger:    c.Logger,
	})

	srv := api.New(api.Options{
		Runner:         runner,
		Store:          store,
		Pool:           pool,
		Logger:         c.Logger,
		PageSize:       cfg.Server.RecentPageSize,
		Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		RequestTimeout: cfg.Server.ReadTimeout,
	})
	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Workers keep running after a signal so queued tasks can drain.
	workCtx, stopWork := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWork()
	pool.Start(workCtx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.Logger.Info("listening", "addr", cfg.Server.Addr, "workers", cfg.Worker.Workers, "queue", cfg.Worker.QueueSize)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		c.Logger.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		herr := httpSrv.Shutdown(sctx)
		perr := pool.Shutdown(sctx)
		stopWork()
		if perr != nil {
			queued, busy := pool.Stats()
			c.Logger.Warn("worker pool did not drain", "queued", queued, "busy", busy)
		}
		return errors.Join(herr, perr)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	c.Logger.Info("stopped")
	return nil
}
