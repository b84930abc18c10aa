package task

import (
	"strings"
	"testing"

	"github.com/matzehuels/gmap/pkg/errors"
)

const sampleGraph = "digraph G { a -> b; b -> c; }"

func TestNewTaskDefaults(t *testing.T) {
	tk, err := NewTask(Params{GraphSource: sampleGraph, VisType: "gmap"})
	if err != nil {
		t.Fatalf("NewTask: %v", err)
	}
	if tk.ID == "" {
		t.Error("ID should be assigned")
	}
	if tk.Status != StatusCreated {
		t.Errorf("Status = %q, want %q", tk.Status, StatusCreated)
	}
	if tk.LayoutAlgorithm != DefaultLayout {
		t.Errorf("LayoutAlgorithm = %q, want %q", tk.LayoutAlgorithm, DefaultLayout)
	}
	if tk.ClusterAlgorithm != DefaultCluster {
		t.Errorf("ClusterAlgorithm = %q, want %q", tk.ClusterAlgorithm, DefaultCluster)
	}
	if tk.ColorScheme != DefaultColorScheme {
		t.Errorf("ColorScheme = %q, want %q", tk.ColorScheme, DefaultColorScheme)
	}
	if tk.RenderedGraph != "" || tk.Artifact != "" || len(tk.ZoomArtifacts) != 0 {
		t.Error("outputs should be empty on a new task")
	}
}

func TestNewTaskUniqueIDs(t *testing.T) {
	a, _ := NewTask(Params{GraphSource: sampleGraph, VisType: "node-link"})
	b, _ := NewTask(Params{GraphSource: sampleGraph, VisType: "node-link"})
	if a.ID == b.ID {
		t.Errorf("IDs should differ, both %q", a.ID)
	}
}

func TestNewTaskValidation(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		code   errors.Code
	}{
		{"empty graph", Params{VisType: "gmap"}, errors.ErrCodeInvalidGraph},
		{"unknown vis type", Params{GraphSource: sampleGraph, VisType: "treemap"}, errors.ErrCodeInvalidVisType},
		{"unknown layout", Params{GraphSource: sampleGraph, VisType: "gmap", LayoutAlgorithm: "spring"}, errors.ErrCodeInvalidLayout},
		{"unknown cluster", Params{GraphSource: sampleGraph, VisType: "gmap", ClusterAlgorithm: "louvain"}, errors.ErrCodeInvalidClusterAlgorithm},
		{"bad color scheme", Params{GraphSource: sampleGraph, VisType: "gmap", ColorScheme: "red; rm"}, errors.ErrCodeInvalidColorScheme},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTask(tt.params)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("code = %q, want %q", errors.GetCode(err), tt.code)
			}
		})
	}
}

func TestClusterAlgorithmContiguous(t *testing.T) {
	tests := []struct {
		alg        ClusterAlgorithm
		contiguous bool
		base       ClusterAlgorithm
	}{
		{ClusterGraph, false, ClusterGraph},
		{ClusterModularity, false, ClusterModularity},
		{ClusterContGraph, true, ClusterGraph},
		{ClusterContKMeans, true, ClusterKMeans},
		{ClusterContHierarchical, true, ClusterHierarchical},
		{ClusterContModularity, true, ClusterModularity},
		{ClusterContInfomap, true, ClusterInfomap},
	}

	for _, tt := range tests {
		t.Run(string(tt.alg), func(t *testing.T) {
			if got := tt.alg.Contiguous(); got != tt.contiguous {
				t.Errorf("Contiguous() = %v, want %v", got, tt.contiguous)
			}
			if got := tt.alg.Base(); got != tt.base {
				t.Errorf("Base() = %q, want %q", got, tt.base)
			}
		})
	}
}

func TestParseVisType(t *testing.T) {
	for _, v := range VisTypes {
		got, err := ParseVisType(" " + string(v) + " ")
		if err != nil {
			t.Errorf("ParseVisType(%q): %v", v, err)
		}
		if got != v {
			t.Errorf("ParseVisType(%q) = %q", v, got)
		}
	}
	if _, err := ParseVisType(""); err == nil {
		t.Error("empty visualization type should be rejected")
	}
}

func TestLayoutPassThrough(t *testing.T) {
	if !LayoutGraph.PassThrough() {
		t.Error("graph layout should pass through")
	}
	if LayoutSFDP.PassThrough() {
		t.Error("sfdp layout should not pass through")
	}
}

func TestStatusLifecycle(t *testing.T) {
	tk, _ := NewTask(Params{GraphSource: sampleGraph, VisType: "gmap"})

	tk.SetStatus(StatusLayout)
	if tk.StatusText() != "running layout" {
		t.Errorf("StatusText = %q", tk.StatusText())
	}
	if tk.Status.Terminal() {
		t.Error("layout should not be terminal")
	}

	tk.Fail("sfdp: syntax error")
	if tk.StatusText() != "error: sfdp: syntax error" {
		t.Errorf("StatusText = %q", tk.StatusText())
	}
	if !tk.Status.Terminal() {
		t.Error("error should be terminal")
	}

	tk.Reset()
	if tk.Status != StatusCreated || tk.Error != "" {
		t.Errorf("Reset left status %q error %q", tk.Status, tk.Error)
	}
}

func TestComplete(t *testing.T) {
	tk, _ := NewTask(Params{GraphSource: sampleGraph, VisType: "gmap", SemanticZoom: true})
	tk.Complete(Output{
		RenderedGraph: "digraph{}",
		Artifact:      "<svg/>",
		ZoomArtifacts: []string{"z0", "z1", "z2", "z3"},
		Width:         100,
		Height:        50,
	})

	if tk.Status != StatusCompleted {
		t.Errorf("Status = %q", tk.Status)
	}
	if z, ok := tk.Zoom(2); !ok || z != "z2" {
		t.Errorf("Zoom(2) = %q, %v", z, ok)
	}
	if _, ok := tk.Zoom(ZoomLevels); ok {
		t.Error("Zoom out of range should report false")
	}

	md := tk.Metadata()
	if md.Width != 100 || md.Height != 50 || !md.SemanticZoom || md.Status != "completed" {
		t.Errorf("Metadata = %+v", md)
	}

	tk.Reset()
	if tk.Artifact != "" || tk.ZoomArtifacts != nil || tk.Width != 0 {
		t.Error("Reset should clear outputs")
	}
}

func TestCloneIsDeep(t *testing.T) {
	tk := &Task{ID: "a", ZoomArtifacts: []string{"x"}}
	c := tk.Clone()
	c.ZoomArtifacts[0] = "y"
	if tk.ZoomArtifacts[0] != "x" {
		t.Error("Clone should copy ZoomArtifacts")
	}
}

func TestPreviewAndDescription(t *testing.T) {
	tk := &Task{ID: "abc", GraphSource: strings.Repeat("x", 100), VisType: VisGMap, Status: StatusQueued}
	if p := tk.Preview(75); len(p) != 78 || !strings.HasSuffix(p, "...") {
		t.Errorf("Preview = %q", p)
	}
	short := &Task{GraphSource: "graph{}"}
	if short.Preview(75) != "graph{}" {
		t.Errorf("Preview should not truncate short input")
	}
	if d := tk.Description(); !strings.Contains(d, "visualization: gmap") || !strings.Contains(d, "status: queued") {
		t.Errorf("Description = %q", d)
	}
}
