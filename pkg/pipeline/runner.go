package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gmap/pkg/cache"
	"github.com/matzehuels/gmap/pkg/errors"
	"github.com/matzehuels/gmap/pkg/observability"
	"github.com/matzehuels/gmap/pkg/proc"
	"github.com/matzehuels/gmap/pkg/stage"
	"github.com/matzehuels/gmap/pkg/task"
)

// Run kinds reported to the pipeline hooks.
const (
	KindPrimary = "primary"
	KindZoom    = "zoom"
	KindFormat  = "format"
)

// Config configures a Runner. Zero values select defaults.
type Config struct {
	Tools  stage.Tools
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// Runner executes pipelines against tasks.
//
// A Runner holds no per-task state and may be shared by many goroutines.
// Callers must not run two pipelines on the same task concurrently; the
// worker pool enforces this for the server.
type Runner struct {
	Proc    proc.Runner
	Store   task.Store
	Library *stage.Library
	Cache   cache.Cache
	Keyer   cache.Keyer
	Logger  *log.Logger
}

// NewRunner creates a runner that executes stages with p and persists
// progress to store.
// If cfg.Keyer is nil, a DefaultKeyer is used.
// If cfg.Cache is nil, a NullCache is used (caching disabled).
func NewRunner(p proc.Runner, store task.Store, cfg Config) *Runner {
	if cfg.Keyer == nil {
		cfg.Keyer = cache.NewDefaultKeyer()
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.NewNullCache()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Runner{
		Proc:    p,
		Store:   store,
		Library: stage.NewLibrary(cfg.Tools),
		Cache:   cache.Instrument(cfg.Cache, "artifact"),
		Keyer:   cfg.Keyer,
		Logger:  cfg.Logger,
	}
}

// Plan resolves the stage plan for t with the runner's tool locations.
func (r *Runner) Plan(t *task.Task) ([]stage.Stage, error) {
	return Plan(t, r.Library)
}

// Result is the output of a successful Execute.
type Result struct {
	// RenderedGraph is the graph text produced by the last non-rendering
	// stage.
	RenderedGraph string
	// Artifact is the primary SVG rendering, before post-processing.
	Artifact string
}

// Execute runs the task's plan. Before each stage the task status is set to
// that stage and saved. On failure the task is moved to the error state,
// saved, and ok is false; nothing after the failing stage runs.
//
// The returned error is non-nil only when the store could not persist the
// task.
func (r *Runner) Execute(ctx context.Context, t *task.Task) (res Result, ok bool, err error) {
	start := time.Now()
	hooks := observability.Pipeline()
	hooks.OnRunStart(ctx, t.ID, string(t.VisType), KindPrimary)

	var runErr error
	defer func() {
		if !ok && runErr == nil {
			runErr = err
		}
		hooks.OnRunComplete(ctx, t.ID, string(t.VisType), KindPrimary, time.Since(start), runErr)
	}()

	plan, runErr := r.Plan(t)
	if runErr != nil {
		return Result{}, false, r.fail(ctx, t, runErr)
	}

	logger := r.Logger.With("task", t.ID)
	logger.Info("pipeline started", "vis_type", t.VisType, "stages", StageNames(plan))

	advance := func(s stage.Stage) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		t.SetStatus(s.Status)
		return r.save(ctx, t)
	}

	last := len(plan) - 1
	graph, runErr := r.runStages(ctx, t.ID, plan[:last], t.GraphSource, advance)
	if runErr == nil {
		res.Artifact, runErr = r.runStages(ctx, t.ID, plan[last:], graph, advance)
	}
	if runErr != nil {
		if errors.Is(runErr, errors.ErrCodeInternal) {
			return Result{}, false, runErr
		}
		logger.Warn("pipeline failed", "error", runErr, "duration", time.Since(start))
		return Result{}, false, r.fail(ctx, t, runErr)
	}

	res.RenderedGraph = graph
	logger.Info("pipeline finished", "duration", time.Since(start))
	return res, true, nil
}

// runStages runs stages in order, threading output to input. before is
// called ahead of each stage; a non-nil error from it aborts the run.
func (r *Runner) runStages(ctx context.Context, taskID string, stages []stage.Stage, input string, before func(stage.Stage) error) (string, error) {
	hooks := observability.Pipeline()
	data := input
	for _, s := range stages {
		if before != nil {
			if err := before(s); err != nil {
				return "", err
			}
		}
		hooks.OnStageStart(ctx, taskID, s.Name)
		start := time.Now()
		out, err := r.Proc.Run(ctx, s.Command, data, s.Raw)
		elapsed := time.Since(start)
		hooks.OnStageComplete(ctx, taskID, s.Name, elapsed, err)
		if err != nil {
			return "", err
		}
		r.Logger.Debug("stage complete", "task", taskID, "stage", s.Name, "duration", elapsed)
		data = out
	}
	return data, nil
}

// CreateMap runs the full workflow for t: the primary pipeline, dimension
// stripping and, if requested, semantic zoom. On success every output field
// is written at once and the task is completed. On failure the task holds
// only the error.
//
// The returned error is non-nil only when the store could not persist the
// task; pipeline failures are recorded on the task itself.
func (r *Runner) CreateMap(ctx context.Context, t *task.Task) error {
	res, ok, err := r.Execute(ctx, t)
	if err != nil || !ok {
		return err
	}

	artifact, width, height := StripDimensions(res.Artifact)
	out := task.Output{
		RenderedGraph: res.RenderedGraph,
		Artifact:      artifact,
		Width:         width,
		Height:        height,
	}

	if t.SemanticZoom {
		if err := ctx.Err(); err != nil {
			return r.fail(ctx, t, err)
		}
		t.SetStatus(task.StatusSemanticZoom)
		if err := r.save(ctx, t); err != nil {
			return err
		}
		zooms, err := r.SemanticZoom(ctx, t.ID, string(t.VisType), res.RenderedGraph)
		if err != nil {
			r.Logger.Warn("semantic zoom failed", "task", t.ID, "error", err)
			return r.fail(ctx, t, err)
		}
		out.ZoomArtifacts = zooms
	}

	t.Complete(out)
	if err := r.save(context.WithoutCancel(ctx), t); err != nil {
		return err
	}
	r.Logger.Info("map completed", "task", t.ID, "width", width, "height", height, "zoom_levels", len(out.ZoomArtifacts))
	return nil
}

// SemanticZoom renders graph at every ZoomScale, in order, stripping the
// dimensions of each result. The first failure aborts the remaining scales
// and no partial result is returned.
func (r *Runner) SemanticZoom(ctx context.Context, taskID, visType, graph string) ([]string, error) {
	start := time.Now()
	hooks := observability.Pipeline()
	hooks.OnRunStart(ctx, taskID, visType, KindZoom)

	zooms := make([]string, 0, len(ZoomScales))
	for _, z := range ZoomScales {
		stages := []stage.Stage{r.Library.Scale(z.Content), r.Library.Draw(z.Canvas)}
		svg, err := r.runStages(ctx, taskID, stages, graph, nil)
		if err != nil {
			hooks.OnRunComplete(ctx, taskID, visType, KindZoom, time.Since(start), err)
			return nil, err
		}
		svg, _, _ = StripDimensions(svg)
		zooms = append(zooms, svg)
	}

	hooks.OnRunComplete(ctx, taskID, visType, KindZoom, time.Since(start), nil)
	return zooms, nil
}

// Redo discards the outputs of t and runs the workflow again.
func (r *Runner) Redo(ctx context.Context, t *task.Task) error {
	t.Reset()
	if err := r.save(ctx, t); err != nil {
		return err
	}
	r.Logger.Info("redoing task", "task", t.ID)
	return r.CreateMap(ctx, t)
}

// RenderFormat renders the rendered graph of a completed task in format.
// Results are cached by graph content and format.
func (r *Runner) RenderFormat(ctx context.Context, t *task.Task, format string) ([]byte, error) {
	if err := ValidateFormat(format); err != nil {
		return nil, err
	}
	if t.Status != task.StatusCompleted || t.RenderedGraph == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "task %s has not completed (status: %s)", t.ID, t.StatusText())
	}

	key := r.Keyer.ArtifactKey(cache.HashString(t.RenderedGraph), cache.ArtifactKeyOpts{Format: format})
	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		return data, nil
	}

	start := time.Now()
	hooks := observability.Pipeline()
	hooks.OnRunStart(ctx, t.ID, string(t.VisType), KindFormat)
	out, err := r.runStages(ctx, t.ID, []stage.Stage{r.Library.Render(format)}, t.RenderedGraph, nil)
	hooks.OnRunComplete(ctx, t.ID, string(t.VisType), KindFormat, time.Since(start), err)
	if proc.IsExternalToolError(err) {
		return nil, errors.Wrap(errors.ErrCodeExternalTool, err, "render %s", format)
	}
	if err != nil {
		return nil, err
	}

	data := []byte(out)
	if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
		r.Logger.Warn("cache write failed", "task", t.ID, "format", format, "error", err)
	}
	return data, nil
}

// fail records err on t and persists it. The save outlives ctx so that a
// cancelled run still leaves the task in a terminal state.
func (r *Runner) fail(ctx context.Context, t *task.Task, err error) error {
	t.Fail(errors.UserMessage(err))
	return r.save(context.WithoutCancel(ctx), t)
}

func (r *Runner) save(ctx context.Context, t *task.Task) error {
	if err := r.Store.Save(ctx, t); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save task %s", t.ID)
	}
	return nil
}
