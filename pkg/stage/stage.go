package stage

import (
	"strconv"

	"github.com/matzehuels/gmap/pkg/proc"
	"github.com/matzehuels/gmap/pkg/task"
)

// Stage names.
const (
	NameLayout          = "layout"
	NameClustering      = "clustering"
	NameContiguity      = "contiguity"
	NameMapConstruction = "map"
	NameColorAssignment = "color"
	NameBubbleSets      = "bubble-sets"
	NameLineSets        = "line-sets"
	NameMapSets         = "map-sets"
	NameMapSetsPost     = "map-sets-post"
	NamePointCloud      = "point-cloud"
	NameRender          = "render"
	NameScale           = "scale"
	NameDraw            = "draw"
)

// DefaultFormat is the output format of the primary rendering.
const DefaultFormat = "svg"

// Stage is one external tool invocation in a plan.
type Stage struct {
	Name    string
	Status  task.Status
	Command proc.Command
	// Raw skips non-ASCII stripping of the stage output.
	Raw bool
}

// Library builds stages for a fixed set of tool locations.
type Library struct {
	tools Tools
}

// NewLibrary creates a Library. Empty tool fields take their defaults.
func NewLibrary(tools Tools) *Library {
	return &Library{tools: tools.WithDefaults()}
}

func (l *Library) stage(name string, status task.Status, path string, args ...string) Stage {
	return Stage{
		Name:    name,
		Status:  status,
		Command: proc.Command{Name: name, Path: path, Args: args},
	}
}

// Layout positions the graph with a Graphviz engine. The pass-through
// algorithm yields no stage.
func (l *Library) Layout(alg task.LayoutAlgorithm) (Stage, bool) {
	if alg.PassThrough() {
		return Stage{}, false
	}
	return l.stage(NameLayout, task.StatusLayout, l.tools.graphviz(string(alg)),
		"-Goverlap=prism", "-Goutputorder=edgesfirst", "-Gsize=60,60!"), true
}

// Clustering returns the clustering stages for alg: the base algorithm, if
// any, followed by the contiguity stage for "cont-" variants.
func (l *Library) Clustering(alg task.ClusterAlgorithm, scheme string) []Stage {
	var stages []Stage
	switch alg.Base() {
	case task.ClusterKMeans:
		stages = append(stages, l.eba("graphkmeans"))
	case task.ClusterHierarchical:
		stages = append(stages, l.eba("graphhierarchical"))
	case task.ClusterInfomap:
		stages = append(stages, l.eba("infomap"))
	case task.ClusterModularity:
		s := l.gvmap(scheme)
		s.Name = NameClustering
		s.Command.Name = NameClustering
		s.Status = task.StatusClustering
		stages = append(stages, s)
	}
	if alg.Contiguous() {
		stages = append(stages, l.Contiguity())
	}
	return stages
}

func (l *Library) eba(method string) Stage {
	return l.stage(NameClustering, task.StatusClustering, l.tools.Clustering,
		"-action=clustering", "-C="+method)
}

// Contiguity reshapes clusters so each one is a single connected region.
func (l *Library) Contiguity() Stage {
	s := l.stage(NameContiguity, task.StatusContiguity, l.tools.Contiguity, "-p", "-r")
	s.Command.Env = []proc.EnvVar{{Name: "LD_LIBRARY_PATH", Value: l.tools.ContiguityLib, Append: true}}
	return s
}

// MapConstruction builds map geometry. The bubble-sets scheme leaves color
// choice to the color assignment stage.
func (l *Library) MapConstruction(scheme string) Stage {
	return l.gvmap(scheme)
}

func (l *Library) gvmap(scheme string) Stage {
	args := []string{"-e", "-s", "-4"}
	if scheme != task.ColorSchemeBubbleSets {
		args = append(args, "-c", scheme)
	}
	return l.stage(NameMapConstruction, task.StatusMapConstruction, l.tools.graphviz("gvmap"), args...)
}

// ColorAssignment colors map regions with the BubbleSets tool.
func (l *Library) ColorAssignment() Stage {
	return l.stage(NameColorAssignment, task.StatusColorAssignment, l.tools.Java,
		"-cp", l.tools.BubbleSetsJar, "setvis.Main", "-p", "-r", "-c")
}

// BubbleSets draws bubble set outlines around clusters.
func (l *Library) BubbleSets() Stage {
	return l.stage(NameBubbleSets, task.StatusBubbleSets, l.tools.Java,
		"-cp", l.tools.BubbleSetsJar, "setvis.Main", "-p", "-r")
}

// LineSets connects cluster members with line sets.
func (l *Library) LineSets() Stage {
	return l.stage(NameLineSets, task.StatusLineSets, l.tools.Java,
		"-cp", l.tools.LineSetsJar, "setvis.Main", "-p", "-r")
}

// MapSets builds a map-sets drawing from a clustered graph.
func (l *Library) MapSets() Stage {
	return l.stage(NameMapSets, task.StatusMapSets, l.tools.MapSets)
}

// MapSetsPost normalizes map-sets output for rendering.
func (l *Library) MapSetsPost() Stage {
	return l.stage(NameMapSetsPost, task.StatusMapSetsPost, l.tools.graphviz("gvpr"),
		"-c", "-f", l.tools.MapSetsPost)
}

// PointCloud replaces map regions with point clouds.
func (l *Library) PointCloud() Stage {
	return l.stage(NamePointCloud, task.StatusPointCloud, l.tools.PointCloud)
}

// Render draws a positioned graph in the given output format.
func (l *Library) Render(format string) Stage {
	s := l.stage(NameRender, task.StatusRendering, l.tools.graphviz("neato"),
		"-Gforcelabels=false", "-Ecolor=grey", "-Gsize=60,60!", "-n2", "-T"+format)
	s.Raw = true
	return s
}

// Scale rescales graph geometry by contentScale ahead of Draw.
func (l *Library) Scale(contentScale int) Stage {
	return l.stage(NameScale, task.StatusSemanticZoom, l.tools.graphviz("gvpr"),
		"-c", "-a", strconv.Itoa(contentScale), "-f", l.tools.ChangeSize)
}

// Draw renders rescaled geometry as SVG on a canvas of canvasScale inches.
func (l *Library) Draw(canvasScale int) Stage {
	s := l.stage(NameDraw, task.StatusSemanticZoom, l.tools.graphviz("neato"),
		"-Gsize="+strconv.Itoa(canvasScale)+"!", "-Ecolor=grey", "-n2", "-Tsvg")
	s.Raw = true
	return s
}
