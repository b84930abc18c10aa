// Package api exposes the task workflow over HTTP.
//
// The routes keep the paths of the legacy gmap web front end so that
// existing viewers keep working:
//
//	POST /request_map                  create a task and queue it
//	GET  /map/{id}                     task metadata
//	GET  /map/{id}/{format}            render in format, or input_dot / input_desc / json
//	POST /map/{id}/redo                rerun a finished task
//	GET  /get_map/{id}                 primary SVG artifact
//	GET  /get_map_zoomed/{id}?zoom=N   semantic zoom level N (0-3)
//	GET  /get_task_metadata/{id}       task metadata
//	GET  /get_json/{id}                map graph as node-link JSON
//	GET  /recent?page=N                recently created tasks
//	GET  /healthz                      liveness and queue stats
//	GET  /metrics                      Prometheus metrics, when configured
package api

import (
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/gmap/pkg/pipeline"
	"github.com/matzehuels/gmap/pkg/task"
	"github.com/matzehuels/gmap/pkg/worker"
)

// DefaultPageSize is the number of tasks per page of /recent.
const DefaultPageSize = 30

// PreviewLength is the number of graph source characters shown per task in
// /recent.
const PreviewLength = 75

// Options configures a Server.
type Options struct {
	Runner *pipeline.Runner
	Store  task.Store
	Pool   *worker.Pool
	Logger *log.Logger
	// PageSize is the number of tasks per page of /recent.
	PageSize int
	// Metrics serves /metrics when non-nil.
	Metrics http.Handler
	// RequestTimeout bounds non-pipeline request handling. Zero disables it.
	RequestTimeout time.Duration
}

// Server handles HTTP requests.
type Server struct {
	runner   *pipeline.Runner
	store    task.Store
	pool     *worker.Pool
	logger   *log.Logger
	pageSize int
	metrics  http.Handler
	timeout  time.Duration
}

// New creates a Server.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	return &Server{
		runner:   opts.Runner,
		store:    opts.Store,
		pool:     opts.Pool,
		logger:   opts.Logger,
		pageSize: opts.PageSize,
		metrics:  opts.Metrics,
		timeout:  opts.RequestTimeout,
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	if s.timeout > 0 {
		r.Use(middleware.Timeout(s.timeout))
	}

	r.Post("/request_map", s.handleRequestMap)
	r.Route("/map/{id}", func(r chi.Router) {
		r.Get("/", s.handleMetadata)
		r.Get("/{format}", s.handleFormat)
		r.Post("/redo", s.handleRedo)
	})
	r.Get("/get_map/{id}", s.handleGetMap)
	r.Get("/get_map_zoomed/{id}", s.handleGetMapZoomed)
	r.Get("/get_task_metadata/{id}", s.handleMetadata)
	r.Get("/get_json/{id}", s.handleNodeLink)
	r.Get("/recent", s.handleRecent)
	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
