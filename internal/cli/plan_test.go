package cli

import (
	"strings"
	"testing"

	"github.com/matzehuels/gmap/pkg/errors"
	"github.com/matzehuels/gmap/pkg/pipeline"
	"github.com/matzehuels/gmap/pkg/stage"
	"github.com/matzehuels/gmap/pkg/task"
)

func TestPlanTask(t *testing.T) {
	tests := []struct {
		name string
		opts runOptions
		code errors.Code
	}{
		{"defaults", runOptions{visType: "gmap"}, ""},
		{"unknown vis", runOptions{visType: "tree"}, errors.ErrCodeInvalidVisType},
		{"unknown layout", runOptions{visType: "gmap", layout: "spring"}, errors.ErrCodeInvalidLayout},
		{"unknown cluster", runOptions{visType: "gmap", cluster: "dbscan"}, errors.ErrCodeInvalidClusterAlgorithm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tk, err := planTask(tt.opts)
			if tt.code == "" {
				if err != nil {
					t.Fatalf("planTask: %v", err)
				}
				if tk.LayoutAlgorithm != task.DefaultLayout || tk.ClusterAlgorithm != task.DefaultCluster {
					t.Errorf("defaults not applied: %+v", tk)
				}
				return
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestRenderPlan(t *testing.T) {
	tk, err := planTask(runOptions{visType: "gmap", cluster: "cont-k-means", scheme: "pastel", zoom: true})
	if err != nil {
		t.Fatal(err)
	}
	lib := stage.NewLibrary(stage.DefaultTools("ext"))
	stages, err := pipeline.Plan(tk, lib)
	if err != nil {
		t.Fatal(err)
	}

	out := renderPlan(tk, stages, lib)
	for _, want := range []string{"gmap plan", "layout", "clustering", "contiguity", "map", "render", "z3", "Gsize=80!"} {
		if !strings.Contains(out, want) {
			t.Errorf("plan output missing %q:\n%s", want, out)
		}
	}
}
