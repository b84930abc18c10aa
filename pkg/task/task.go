package task

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/gmap/pkg/errors"
)

// ZoomLevels is the number of semantic zoom renderings stored per task.
const ZoomLevels = 4

// Task is a unit of visualization work.
//
// Input fields are set at construction. Output fields are written only by a
// successful pipeline run, all at once; a failed run leaves them empty and
// records the failure in Status and Error.
type Task struct {
	// Identity
	ID        string    `json:"id" bson:"_id"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	CreatorIP string    `json:"creator_ip,omitempty" bson:"creator_ip,omitempty"`

	// Input
	GraphSource      string           `json:"graph_source" bson:"graph_source"`
	VisType          VisType          `json:"vis_type" bson:"vis_type"`
	LayoutAlgorithm  LayoutAlgorithm  `json:"layout_algorithm" bson:"layout_algorithm"`
	ClusterAlgorithm ClusterAlgorithm `json:"cluster_algorithm" bson:"cluster_algorithm"`
	ColorScheme      string           `json:"color_scheme" bson:"color_scheme"`
	SemanticZoom     bool             `json:"semantic_zoom" bson:"semantic_zoom"`

	// Output
	RenderedGraph string   `json:"rendered_graph,omitempty" bson:"rendered_graph,omitempty"`
	Artifact      string   `json:"artifact,omitempty" bson:"artifact,omitempty"`
	ZoomArtifacts []string `json:"zoom_artifacts,omitempty" bson:"zoom_artifacts,omitempty"`
	Width         float64  `json:"width" bson:"width"`
	Height        float64  `json:"height" bson:"height"`

	// Progress
	Status    Status    `json:"status" bson:"status"`
	Error     string    `json:"error,omitempty" bson:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Params holds the user supplied configuration of a visualization request.
// Empty algorithm fields fall back to their defaults.
type Params struct {
	GraphSource      string
	VisType          string
	LayoutAlgorithm  string
	ClusterAlgorithm string
	ColorScheme      string
	SemanticZoom     bool
	CreatorIP        string
}

// NewTask validates p and returns a task in the created state.
func NewTask(p Params) (*Task, error) {
	if err := errors.ValidateGraphSource(p.GraphSource); err != nil {
		return nil, err
	}
	vis, err := ParseVisType(p.VisType)
	if err != nil {
		return nil, err
	}
	layout, err := ParseLayoutAlgorithm(p.LayoutAlgorithm)
	if err != nil {
		return nil, err
	}
	cluster, err := ParseClusterAlgorithm(p.ClusterAlgorithm)
	if err != nil {
		return nil, err
	}
	scheme := strings.TrimSpace(p.ColorScheme)
	if scheme == "" {
		scheme = DefaultColorScheme
	}
	if err := errors.ValidateColorScheme(scheme); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Task{
		ID:               uuid.NewString(),
		CreatedAt:        now,
		CreatorIP:        p.CreatorIP,
		GraphSource:      p.GraphSource,
		VisType:          vis,
		LayoutAlgorithm:  layout,
		ClusterAlgorithm: cluster,
		ColorScheme:      scheme,
		SemanticZoom:     p.SemanticZoom,
		Status:           StatusCreated,
		UpdatedAt:        now,
	}, nil
}

// SetStatus moves the task to an in-progress or terminal status and clears
// any previous error.
func (t *Task) SetStatus(s Status) {
	t.Status = s
	t.Error = ""
	t.UpdatedAt = time.Now().UTC()
}

// Fail moves the task to the error state with the given message.
func (t *Task) Fail(msg string) {
	t.Status = StatusError
	t.Error = msg
	t.UpdatedAt = time.Now().UTC()
}

// Complete stores the outputs of a successful run and marks the task completed.
func (t *Task) Complete(out Output) {
	t.RenderedGraph = out.RenderedGraph
	t.Artifact = out.Artifact
	t.ZoomArtifacts = out.ZoomArtifacts
	t.Width = out.Width
	t.Height = out.Height
	t.SetStatus(StatusCompleted)
}

// Reset clears all outputs and returns the task to the created state so that
// it can be run again.
func (t *Task) Reset() {
	t.RenderedGraph = ""
	t.Artifact = ""
	t.ZoomArtifacts = nil
	t.Width = 0
	t.Height = 0
	t.SetStatus(StatusCreated)
}

// Output groups the fields written by a successful pipeline run.
type Output struct {
	RenderedGraph string
	Artifact      string
	ZoomArtifacts []string
	Width         float64
	Height        float64
}

// StatusText returns the human readable status. Failed tasks embed the
// error message.
func (t *Task) StatusText() string {
	if t.Status == StatusError && t.Error != "" {
		return "error: " + t.Error
	}
	return string(t.Status)
}

// Zoom returns the semantic zoom rendering at level, if one was produced.
func (t *Task) Zoom(level int) (string, bool) {
	if level < 0 || level >= len(t.ZoomArtifacts) {
		return "", false
	}
	return t.ZoomArtifacts[level], true
}

// Metadata is the summary served to viewers polling a task.
type Metadata struct {
	ID           string  `json:"id"`
	Status       string  `json:"status"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	SemanticZoom bool    `json:"semantic_zoom"`
}

// Metadata returns the task's polling summary.
func (t *Task) Metadata() Metadata {
	return Metadata{
		ID:           t.ID,
		Status:       t.StatusText(),
		Width:        t.Width,
		Height:       t.Height,
		SemanticZoom: t.SemanticZoom,
	}
}

// Description returns a plain text summary of the task configuration.
func (t *Task) Description() string {
	var b strings.Builder
	fmt.Fprintf(&b, "id: %s\n", t.ID)
	fmt.Fprintf(&b, "created: %s\n", t.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "visualization: %s\n", t.VisType)
	fmt.Fprintf(&b, "layout: %s\n", t.LayoutAlgorithm)
	fmt.Fprintf(&b, "clustering: %s\n", t.ClusterAlgorithm)
	fmt.Fprintf(&b, "color scheme: %s\n", t.ColorScheme)
	fmt.Fprintf(&b, "semantic zoom: %t\n", t.SemanticZoom)
	fmt.Fprintf(&b, "status: %s\n", t.StatusText())
	return b.String()
}

// Preview returns the graph source truncated to n characters.
func (t *Task) Preview(n int) string {
	if len(t.GraphSource) <= n {
		return t.GraphSource
	}
	return t.GraphSource[:n] + "..."
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	c := *t
	if t.ZoomArtifacts != nil {
		c.ZoomArtifacts = append([]string(nil), t.ZoomArtifacts...)
	}
	return &c
}
