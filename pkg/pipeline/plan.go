package pipeline

import (
	"github.com/matzehuels/gmap/pkg/errors"
	"github.com/matzehuels/gmap/pkg/stage"
	"github.com/matzehuels/gmap/pkg/task"
)

// Plan resolves the ordered stages for t. The last stage always renders the
// primary SVG artifact; everything before it transforms graph text.
//
// An unknown visualization type yields an UNRESOLVED_PLAN error. NewTask
// rejects such values, so this only happens for records created elsewhere.
func Plan(t *task.Task, lib *stage.Library) ([]stage.Stage, error) {
	var plan []stage.Stage

	if layout, ok := lib.Layout(t.LayoutAlgorithm); ok {
		plan = append(plan, layout)
	}

	color := func() {
		if t.ColorScheme == task.ColorSchemeBubbleSets {
			plan = append(plan, lib.ColorAssignment())
		}
	}

	switch t.VisType {
	case task.VisNodeLink:
	case task.VisGMap:
		plan = append(plan, lib.Clustering(t.ClusterAlgorithm, t.ColorScheme)...)
		plan = append(plan, lib.MapConstruction(t.ColorScheme))
		color()
	case task.VisPointCloud:
		plan = append(plan, lib.Clustering(t.ClusterAlgorithm, t.ColorScheme)...)
		plan = append(plan, lib.MapConstruction(t.ColorScheme))
		color()
		plan = append(plan, lib.PointCloud())
	case task.VisBubbleSets:
		plan = append(plan, lib.Clustering(t.ClusterAlgorithm, t.ColorScheme)...)
		plan = append(plan, lib.MapConstruction(t.ColorScheme))
		color()
		plan = append(plan, lib.BubbleSets())
	case task.VisLineSets:
		plan = append(plan, lib.Clustering(t.ClusterAlgorithm, t.ColorScheme)...)
		plan = append(plan, lib.MapConstruction(t.ColorScheme))
		color()
		plan = append(plan, lib.LineSets())
	case task.VisMapSets:
		plan = append(plan, lib.Clustering(t.ClusterAlgorithm, t.ColorScheme)...)
		plan = append(plan, lib.MapSets(), lib.MapSetsPost())
		color()
	default:
		return nil, errors.New(errors.ErrCodeUnresolvedPlan, "no pipeline for visualization type %q", t.VisType)
	}

	return append(plan, lib.Render(stage.DefaultFormat)), nil
}

// StageNames returns the names of the stages in plan, in order.
func StageNames(plan []stage.Stage) []string {
	names := make([]string, len(plan))
	for i, s := range plan {
		names[i] = s.Name
	}
	return names
}
