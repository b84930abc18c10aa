package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/gmap/pkg/dot"
	"github.com/matzehuels/gmap/pkg/errors"
	"github.com/matzehuels/gmap/pkg/pipeline"
	"github.com/matzehuels/gmap/pkg/task"
)

// DefaultZoom is the zoom level served when a request omits it.
const DefaultZoom = 3

// Pseudo formats of /map/{id}/{format} that return task inputs or the
// graph as node-link JSON.
const (
	FormatInputDot  = "input_dot"
	FormatInputDesc = "input_desc"
	FormatNodeLink  = "json"
)

// maxRequestBytes bounds request bodies; the graph source limit is enforced
// separately with a precise error.
const maxRequestBytes = errors.MaxGraphSourceSize + 64<<10

// mapRequest is the JSON form of /request_map.
type mapRequest struct {
	Dotfile          string `json:"dotfile"`
	GraphSource      string `json:"graph_source"`
	VisType          string `json:"vis_type"`
	LayoutAlgorithm  string `json:"layout_algorithm"`
	ClusterAlgorithm string `json:"cluster_algorithm"`
	ColorScheme      string `json:"color_scheme"`
	SemanticZoom     bool   `json:"semantic_zoom"`
}

type submitResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Nodes  int    `json:"nodes"`
	Edges  int    `json:"edges"`
	Link   string `json:"link"`
}

// RecentTask is one entry of /recent.
type RecentTask struct {
	ID         string    `json:"id"`
	Link       string    `json:"link"`
	Preview    string    `json:"dot"`
	DotLink    string    `json:"dot_link"`
	Date       time.Time `json:"date"`
	IP         string    `json:"ip,omitempty"`
	Status     string    `json:"status"`
	StatusLink string    `json:"status_link"`
}

type recentResponse struct {
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
	Tasks    []RecentTask `json:"tasks"`
}

func (s *Server) handleRequestMap(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	params, err := parseMapRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	t, err := task.NewTask(params)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	stats, err := dot.Inspect(r.Context(), t.GraphSource)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.save(r.Context(), t); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.enqueue(r.Context(), t, s.runner.CreateMap); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("map requested", "task", t.ID, "vis_type", t.VisType,
		"nodes", stats.Nodes, "edges", stats.Edges, "bytes", stats.Bytes)

	w.Header().Set("Location", "/map/"+t.ID)
	writeJSON(w, http.StatusAccepted, submitResponse{
		ID:     t.ID,
		Status: string(task.StatusQueued),
		Nodes:  stats.Nodes,
		Edges:  stats.Edges,
		Link:   "/map/" + t.ID,
	})
}

// enqueue marks t queued and hands it to the pool. The task ID is reserved
// first, so only one request at a time writes the queued state. A rejected
// task is restored to its previous state so that it is never left queued
// without a worker.
func (s *Server) enqueue(ctx context.Context, t *task.Task, run func(context.Context, *task.Task) error) error {
	res, err := s.pool.Reserve(ctx, t.ID)
	if err != nil {
		return err
	}
	defer res.Release()

	prev := t.Clone()
	t.SetStatus(task.StatusQueued)
	if err := s.save(ctx, t); err != nil {
		return err
	}
	err = res.Submit(ctx, func(ctx context.Context) error { return run(ctx, t) })
	if err == nil {
		return nil
	}
	if serr := s.save(ctx, prev); serr != nil {
		s.logger.Warn("restore rejected task", "task", t.ID, "error", serr)
	}
	return err
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	t, ok := s.loadTask(w, r)
	if !ok {
		return
	}
	if err := s.enqueue(r.Context(), t, s.runner.Redo); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("redo requested", "task", t.ID)
	writeJSON(w, http.StatusAccepted, submitResponse{
		ID:     t.ID,
		Status: string(task.StatusQueued),
		Link:   "/map/" + t.ID,
	})
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	t, ok := s.loadTask(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, t.Metadata())
}

func (s *Server) handleFormat(w http.ResponseWriter, r *http.Request) {
	t, ok := s.loadTask(w, r)
	if !ok {
		return
	}
	format := chi.URLParam(r, "format")
	switch format {
	case FormatInputDot:
		writeContent(w, "text/plain; charset=utf-8", []byte(t.GraphSource))
		return
	case FormatInputDesc:
		writeContent(w, "text/plain; charset=utf-8", []byte(t.Description()))
		return
	case FormatNodeLink:
		s.writeNodeLink(w, r, t)
		return
	}

	data, err := s.runner.RenderFormat(r.Context(), t, format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeContent(w, pipeline.MIMEType(format), data)
}

func (s *Server) handleNodeLink(w http.ResponseWriter, r *http.Request) {
	t, ok := s.loadTask(w, r)
	if !ok {
		return
	}
	s.writeNodeLink(w, r, t)
}

// writeNodeLink serves the laid out graph of a completed task, or the input
// graph before the pipeline has produced one.
func (s *Server) writeNodeLink(w http.ResponseWriter, r *http.Request, t *task.Task) {
	src := t.RenderedGraph
	if src == "" {
		src = t.GraphSource
	}
	nl, err := dot.ToNodeLink(r.Context(), src)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nl)
}

func (s *Server) handleGetMap(w http.ResponseWriter, r *http.Request) {
	t, ok := s.loadTask(w, r)
	if !ok {
		return
	}
	if t.Status != task.StatusCompleted {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "task %s has no map yet (status: %s)", t.ID, t.StatusText()))
		return
	}
	writeContent(w, pipeline.MIMEType(pipeline.FormatSVG), []byte(t.Artifact))
}

func (s *Server) handleGetMapZoomed(w http.ResponseWriter, r *http.Request) {
	level := DefaultZoom
	if z := r.URL.Query().Get("zoom"); z != "" {
		n, err := strconv.Atoi(z)
		if err != nil || n < 0 || n >= task.ZoomLevels {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "zoom must be between 0 and %d", task.ZoomLevels-1))
			return
		}
		level = n
	}
	t, ok := s.loadTask(w, r)
	if !ok {
		return
	}
	svg, ok := t.Zoom(level)
	if !ok {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "task %s has no zoom level %d", t.ID, level))
		return
	}
	writeContent(w, pipeline.MIMEType(pipeline.FormatSVG), []byte(svg))
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	page := 0
	if p := r.URL.Query().Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "page must be a non-negative integer"))
			return
		}
		page = n
	}

	tasks, err := s.store.Recent(r.Context(), page*s.pageSize, s.pageSize)
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "list recent tasks"))
		return
	}
	resp := recentResponse{Page: page, PageSize: s.pageSize, Tasks: make([]RecentTask, 0, len(tasks))}
	for _, t := range tasks {
		resp.Tasks = append(resp.Tasks, RecentTask{
			ID:         t.ID,
			Link:       "/map/" + t.ID,
			Preview:    t.Preview(PreviewLength),
			DotLink:    "/map/" + t.ID + "/" + FormatInputDot,
			Date:       t.CreatedAt,
			IP:         t.CreatorIP,
			Status:     t.StatusText(),
			StatusLink: "/get_task_metadata/" + t.ID,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	queued, busy := s.pool.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"queued": queued,
		"busy":   busy,
	})
}

func (s *Server) loadTask(w http.ResponseWriter, r *http.Request) (*task.Task, bool) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateTaskID(id); err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	t, err := task.GetWithRetry(r.Context(), s.store, id, task.DefaultGetAttempts, task.DefaultGetDelay)
	if err != nil {
		s.writeError(w, r, notFound(err, id))
		return nil, false
	}
	return t, true
}

func (s *Server) save(ctx context.Context, t *task.Task) error {
	if err := s.store.Save(ctx, t); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save task %s", t.ID)
	}
	return nil
}

// parseMapRequest reads a submission from a JSON body or from form fields.
func parseMapRequest(r *http.Request) (task.Params, error) {
	p := task.Params{CreatorIP: clientIP(r)}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req mapRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return p, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request")
		}
		p.GraphSource = req.GraphSource
		if p.GraphSource == "" {
			p.GraphSource = req.Dotfile
		}
		p.VisType = req.VisType
		p.LayoutAlgorithm = req.LayoutAlgorithm
		p.ClusterAlgorithm = req.ClusterAlgorithm
		p.ColorScheme = req.ColorScheme
		p.SemanticZoom = req.SemanticZoom
		return p, nil
	}

	if err := r.ParseMultipartForm(maxRequestBytes); err != nil && err != http.ErrNotMultipart {
		return p, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse form")
	}
	p.GraphSource = r.FormValue("dotfile")
	if p.GraphSource == "" {
		p.GraphSource = r.FormValue("graph_source")
	}
	p.VisType = r.FormValue("vis_type")
	p.LayoutAlgorithm = r.FormValue("layout_algorithm")
	p.ClusterAlgorithm = r.FormValue("cluster_algorithm")
	p.ColorScheme = r.FormValue("color_scheme")
	p.SemanticZoom = formBool(r.FormValue("semantic_zoom"))
	return p, nil
}

func formBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes", "y":
		return true
	}
	return false
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
