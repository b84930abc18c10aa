package stage

import (
	"path/filepath"
)

// DefaultDir is the default location of the bundled external tools.
const DefaultDir = "external"

// Tools locates the external programs a pipeline invokes. Relative script
// and binary paths are resolved against the runner's working directory.
type Tools struct {
	// Dir holds the bundled research tools (eba, ecba, set renderers).
	Dir string `toml:"dir"`
	// Graphviz is the directory holding the Graphviz binaries. Empty means
	// they are looked up on PATH.
	Graphviz string `toml:"graphviz"`
	Java     string `toml:"java"`

	Clustering    string `toml:"clustering"`
	Contiguity    string `toml:"contiguity"`
	ContiguityLib string `toml:"contiguity_lib"`
	BubbleSetsJar string `toml:"bubble_sets_jar"`
	LineSetsJar   string `toml:"line_sets_jar"`
	MapSets       string `toml:"map_sets"`
	MapSetsPost   string `toml:"map_sets_post"`
	PointCloud    string `toml:"point_cloud"`
	ChangeSize    string `toml:"change_size"`
}

// DefaultTools returns the standard layout of the tools directory rooted at
// dir.
func DefaultTools(dir string) Tools {
	return Tools{Dir: dir}.WithDefaults()
}

// WithDefaults fills every empty field from the standard layout under Dir.
func (t Tools) WithDefaults() Tools {
	if t.Dir == "" {
		t.Dir = DefaultDir
	}
	if t.Java == "" {
		t.Java = "java"
	}
	set := func(field *string, parts ...string) {
		if *field == "" {
			*field = filepath.Join(append([]string{t.Dir}, parts...)...)
		}
	}
	set(&t.Clustering, "eba", "kmeans")
	set(&t.Contiguity, "ecba", "build", "Exec")
	set(&t.ContiguityLib, "ecba", "libraries", "tulip", "install", "lib")
	set(&t.BubbleSetsJar, "BubbleSets.jar")
	set(&t.LineSetsJar, "LineSets.jar")
	set(&t.MapSets, "mapsets", "mapsets")
	set(&t.MapSetsPost, "utils", "mapsets_post.gvpr")
	set(&t.PointCloud, "pointcloud", "pointcloud")
	set(&t.ChangeSize, "utils", "change_size.gvpr")
	return t
}

// graphviz returns the path of a Graphviz program.
func (t Tools) graphviz(name string) string {
	if t.Graphviz == "" {
		return name
	}
	return filepath.Join(t.Graphviz, name)
}
