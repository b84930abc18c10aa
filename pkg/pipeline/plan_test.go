package pipeline

import (
	"reflect"
	"testing"

	"github.com/matzehuels/gmap/pkg/errors"
	"github.com/matzehuels/gmap/pkg/stage"
	"github.com/matzehuels/gmap/pkg/task"
)

func TestPlan(t *testing.T) {
	lib := stage.NewLibrary(stage.DefaultTools("ext"))

	tests := []struct {
		name    string
		vis     task.VisType
		layout  task.LayoutAlgorithm
		cluster task.ClusterAlgorithm
		scheme  string
		want    []string
	}{
		{"node-link", task.VisNodeLink, task.LayoutSFDP, task.ClusterModularity, "pastel",
			[]string{"layout", "render"}},
		{"node-link positioned", task.VisNodeLink, task.LayoutGraph, task.ClusterModularity, "pastel",
			[]string{"render"}},
		{"gmap", task.VisGMap, task.LayoutSFDP, task.ClusterModularity, "pastel",
			[]string{"layout", "clustering", "map", "render"}},
		{"gmap contiguous bubble-sets", task.VisGMap, task.LayoutSFDP, task.ClusterContModularity, task.ColorSchemeBubbleSets,
			[]string{"layout", "clustering", "contiguity", "map", "color", "render"}},
		{"gmap graph clustering", task.VisGMap, task.LayoutSFDP, task.ClusterGraph, "pastel",
			[]string{"layout", "map", "render"}},
		{"gmap cont-graph", task.VisGMap, task.LayoutSFDP, task.ClusterContGraph, "pastel",
			[]string{"layout", "contiguity", "map", "render"}},
		{"point-cloud", task.VisPointCloud, task.LayoutSFDP, task.ClusterKMeans, "pastel",
			[]string{"layout", "clustering", "map", "point-cloud", "render"}},
		{"point-cloud bubble-sets scheme", task.VisPointCloud, task.LayoutSFDP, task.ClusterKMeans, task.ColorSchemeBubbleSets,
			[]string{"layout", "clustering", "map", "color", "point-cloud", "render"}},
		{"bubble-sets", task.VisBubbleSets, task.LayoutNeato, task.ClusterHierarchical, "pastel",
			[]string{"layout", "clustering", "map", "bubble-sets", "render"}},
		{"line-sets", task.VisLineSets, task.LayoutSFDP, task.ClusterContInfomap, task.ColorSchemeBubbleSets,
			[]string{"layout", "clustering", "contiguity", "map", "color", "line-sets", "render"}},
		{"map-sets", task.VisMapSets, task.LayoutSFDP, task.ClusterHierarchical, task.ColorSchemeBubbleSets,
			[]string{"layout", "clustering", "map-sets", "map-sets-post", "color", "render"}},
		{"map-sets positioned", task.VisMapSets, task.LayoutGraph, task.ClusterGraph, "pastel",
			[]string{"map-sets", "map-sets-post", "render"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tk := newTestTask(tt.vis, tt.cluster, tt.scheme)
			tk.LayoutAlgorithm = tt.layout
			plan, err := Plan(tk, lib)
			if err != nil {
				t.Fatalf("Plan: %v", err)
			}
			if got := StageNames(plan); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("plan = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlanDeterministic(t *testing.T) {
	lib := stage.NewLibrary(stage.Tools{})
	for _, vis := range task.VisTypes {
		for _, cluster := range task.ClusterAlgorithms {
			tk := newTestTask(vis, cluster, "pastel")
			a, err := Plan(tk, lib)
			if err != nil {
				t.Fatalf("Plan(%s, %s): %v", vis, cluster, err)
			}
			b, _ := Plan(tk, lib)
			if len(a) == 0 {
				t.Errorf("Plan(%s, %s) is empty", vis, cluster)
			}
			if !reflect.DeepEqual(a, b) {
				t.Errorf("Plan(%s, %s) not deterministic", vis, cluster)
			}
		}
	}
}

func TestPlanClusteringStages(t *testing.T) {
	lib := stage.NewLibrary(stage.Tools{})
	for _, base := range []task.ClusterAlgorithm{task.ClusterKMeans, task.ClusterHierarchical, task.ClusterModularity, task.ClusterInfomap} {
		t.Run(string(base), func(t *testing.T) {
			plain, _ := Plan(newTestTask(task.VisGMap, base, "pastel"), lib)
			cont, _ := Plan(newTestTask(task.VisGMap, task.ClusterAlgorithm("cont-"+string(base)), "pastel"), lib)

			if got := StageNames(plain)[1:3]; !reflect.DeepEqual(got, []string{"clustering", "map"}) {
				t.Errorf("plain clustering = %v", got)
			}
			if got := StageNames(cont)[1:4]; !reflect.DeepEqual(got, []string{"clustering", "contiguity", "map"}) {
				t.Errorf("contiguous clustering = %v", got)
			}
		})
	}
}

func TestPlanColorAssignment(t *testing.T) {
	lib := stage.NewLibrary(stage.Tools{})
	count := func(plan []stage.Stage) (n, at int) {
		for i, s := range plan {
			if s.Name == stage.NameColorAssignment {
				n++
				at = i
			}
		}
		return n, at
	}

	for _, vis := range task.VisTypes {
		for _, scheme := range []string{"pastel", "set3", task.ColorSchemeBubbleSets} {
			plan, _ := Plan(newTestTask(vis, task.ClusterModularity, scheme), lib)
			n, at := count(plan)

			want := 0
			if scheme == task.ColorSchemeBubbleSets && vis != task.VisNodeLink {
				want = 1
			}
			if n != want {
				t.Errorf("%s/%s: %d color stages, want %d", vis, scheme, n, want)
				continue
			}
			if n == 1 {
				prev := plan[at-1].Name
				if prev != stage.NameMapConstruction && prev != stage.NameMapSetsPost {
					t.Errorf("%s: color follows %q", vis, prev)
				}
			}
		}
	}
}

func TestPlanUnknownVisType(t *testing.T) {
	_, err := Plan(newTestTask("treemap", task.ClusterModularity, "pastel"), stage.NewLibrary(stage.Tools{}))
	if !errors.Is(err, errors.ErrCodeUnresolvedPlan) {
		t.Errorf("err = %v, want UNRESOLVED_PLAN", err)
	}
}

func TestPlanRenderIsLast(t *testing.T) {
	plan, _ := Plan(newTestTask(task.VisBubbleSets, task.ClusterModularity, "pastel"), stage.NewLibrary(stage.Tools{}))
	last := plan[len(plan)-1]
	if last.Name != stage.NameRender || !last.Raw || last.Command.Args[len(last.Command.Args)-1] != "-Tsvg" {
		t.Errorf("last stage = %+v", last)
	}
}
