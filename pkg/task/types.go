package task

import (
	"slices"
	"strings"

	"github.com/matzehuels/gmap/pkg/errors"
)

// VisType selects the overall shape of the pipeline.
type VisType string

// Visualization types.
const (
	VisNodeLink   VisType = "node-link"
	VisGMap       VisType = "gmap"
	VisPointCloud VisType = "point-cloud"
	VisBubbleSets VisType = "bubble-sets"
	VisLineSets   VisType = "line-sets"
	VisMapSets    VisType = "map-sets"
)

// VisTypes lists every supported visualization type in display order.
var VisTypes = []VisType{VisNodeLink, VisGMap, VisPointCloud, VisBubbleSets, VisLineSets, VisMapSets}

// Valid reports whether v is one of the known visualization types.
func (v VisType) Valid() bool { return slices.Contains(VisTypes, v) }

// ParseVisType converts s into a VisType.
func ParseVisType(s string) (VisType, error) {
	v := VisType(strings.TrimSpace(s))
	if !v.Valid() {
		return "", errors.New(errors.ErrCodeInvalidVisType, "unknown visualization type %q", s)
	}
	return v, nil
}

// LayoutAlgorithm names the Graphviz engine used for the layout stage.
type LayoutAlgorithm string

// Layout algorithms. LayoutGraph means the input already carries positions.
const (
	LayoutSFDP  LayoutAlgorithm = "sfdp"
	LayoutNeato LayoutAlgorithm = "neato"
	LayoutFDP   LayoutAlgorithm = "fdp"
	LayoutDot   LayoutAlgorithm = "dot"
	LayoutTwopi LayoutAlgorithm = "twopi"
	LayoutCirco LayoutAlgorithm = "circo"
	LayoutGraph LayoutAlgorithm = "graph"
)

// DefaultLayout is used when a request leaves the layout algorithm empty.
const DefaultLayout = LayoutSFDP

// LayoutAlgorithms lists every supported layout algorithm.
var LayoutAlgorithms = []LayoutAlgorithm{LayoutSFDP, LayoutNeato, LayoutFDP, LayoutDot, LayoutTwopi, LayoutCirco, LayoutGraph}

// Valid reports whether l is a known layout algorithm.
func (l LayoutAlgorithm) Valid() bool { return slices.Contains(LayoutAlgorithms, l) }

// PassThrough reports whether the layout stage is skipped.
func (l LayoutAlgorithm) PassThrough() bool { return l == LayoutGraph }

// ParseLayoutAlgorithm converts s into a LayoutAlgorithm, defaulting to sfdp.
func ParseLayoutAlgorithm(s string) (LayoutAlgorithm, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultLayout, nil
	}
	l := LayoutAlgorithm(s)
	if !l.Valid() {
		return "", errors.New(errors.ErrCodeInvalidLayout, "unknown layout algorithm %q", s)
	}
	return l, nil
}

// ClusterAlgorithm selects the clustering stage. Values prefixed with
// "cont-" run the base algorithm followed by the contiguity stage.
type ClusterAlgorithm string

// Clustering algorithms.
const (
	ClusterGraph        ClusterAlgorithm = "graph"
	ClusterKMeans       ClusterAlgorithm = "k-means"
	ClusterHierarchical ClusterAlgorithm = "hierarchical"
	ClusterModularity   ClusterAlgorithm = "modularity"
	ClusterInfomap      ClusterAlgorithm = "infomap"

	ClusterContGraph        ClusterAlgorithm = "cont-graph"
	ClusterContKMeans       ClusterAlgorithm = "cont-k-means"
	ClusterContHierarchical ClusterAlgorithm = "cont-hierarchical"
	ClusterContModularity   ClusterAlgorithm = "cont-modularity"
	ClusterContInfomap      ClusterAlgorithm = "cont-infomap"
)

// DefaultCluster is used when a request leaves the clustering algorithm empty.
const DefaultCluster = ClusterModularity

const contiguousPrefix = "cont-"

// ClusterAlgorithms lists every supported clustering algorithm.
var ClusterAlgorithms = []ClusterAlgorithm{
	ClusterGraph, ClusterKMeans, ClusterHierarchical, ClusterModularity, ClusterInfomap,
	ClusterContGraph, ClusterContKMeans, ClusterContHierarchical, ClusterContModularity, ClusterContInfomap,
}

// Valid reports whether c is a known clustering algorithm.
func (c ClusterAlgorithm) Valid() bool { return slices.Contains(ClusterAlgorithms, c) }

// Contiguous reports whether a contiguity stage follows the base algorithm.
func (c ClusterAlgorithm) Contiguous() bool { return strings.HasPrefix(string(c), contiguousPrefix) }

// Base returns the algorithm without its "cont-" prefix.
func (c ClusterAlgorithm) Base() ClusterAlgorithm {
	return ClusterAlgorithm(strings.TrimPrefix(string(c), contiguousPrefix))
}

// ParseClusterAlgorithm converts s into a ClusterAlgorithm, defaulting to modularity.
func ParseClusterAlgorithm(s string) (ClusterAlgorithm, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultCluster, nil
	}
	c := ClusterAlgorithm(s)
	if !c.Valid() {
		return "", errors.New(errors.ErrCodeInvalidClusterAlgorithm, "unknown clustering algorithm %q", s)
	}
	return c, nil
}

// ColorSchemeBubbleSets selects the color assignment stage instead of a
// gvmap palette.
const ColorSchemeBubbleSets = "bubble-sets"

// DefaultColorScheme is used when a request leaves the color scheme empty.
const DefaultColorScheme = "pastel"
