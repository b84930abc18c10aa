// Package dot inspects graph descriptions before they enter a pipeline.
//
// The graph source is parsed with the Graphviz cgraph library (through
// go-graphviz) so that malformed input is rejected at submission time
// instead of failing inside the first external tool.
package dot

import (
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/matzehuels/gmap/pkg/errors"
)

// Stats summarizes a parsed graph.
type Stats struct {
	Nodes int
	Edges int
	Bytes int
}

// Inspect parses src and returns its size. Parse failures are reported as
// INVALID_GRAPH errors.
func Inspect(ctx context.Context, src string) (Stats, error) {
	g, err := parse(ctx, src)
	if err != nil {
		return Stats{}, err
	}
	defer g.Close()

	nodes, err := g.NodeNum()
	if err != nil {
		return Stats{}, fmt.Errorf("count nodes: %w", err)
	}
	edges, err := g.EdgeNum()
	if err != nil {
		return Stats{}, fmt.Errorf("count edges: %w", err)
	}
	return Stats{Nodes: nodes, Edges: edges, Bytes: len(src)}, nil
}

// parse validates and parses src. The cgraph parser needs no Graphviz
// context; the wasm module is set up when the package loads.
func parse(ctx context.Context, src string) (*cgraph.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := errors.ValidateGraphSource(src); err != nil {
		return nil, err
	}
	g, err := graphviz.ParseBytes([]byte(src))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "parse graph")
	}
	if g == nil {
		return nil, errors.New(errors.ErrCodeInvalidGraph, "parse graph: no graph in source")
	}
	return g, nil
}
