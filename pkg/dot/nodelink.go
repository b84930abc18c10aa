package dot

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz/cgraph"
)

// defaultLabel is the label cgraph assigns to nodes without one; it
// expands to the node name.
const defaultLabel = `\N`

// NodeLink is the node-link form of a graph as consumed by d3 and
// networkx. Each node carries its name under "id" and each link its
// endpoints under "source" and "target"; all other entries are the
// object's non-empty DOT attributes.
type NodeLink struct {
	Directed   bool                `json:"directed"`
	Multigraph bool                `json:"multigraph"`
	Graph      map[string]string   `json:"graph"`
	Nodes      []map[string]string `json:"nodes"`
	Links      []map[string]string `json:"links"`
}

// ToNodeLink parses src and converts it to node-link form. Nodes appear in
// declaration order and links in the order of their tail nodes.
func ToNodeLink(ctx context.Context, src string) (*NodeLink, error) {
	g, err := parse(ctx, src)
	if err != nil {
		return nil, err
	}
	defer g.Close()

	graphAttrs, err := attrNames(g, cgraph.GRAPH)
	if err != nil {
		return nil, err
	}
	nodeAttrs, err := attrNames(g, cgraph.NODE)
	if err != nil {
		return nil, err
	}
	edgeAttrs, err := attrNames(g, cgraph.EDGE)
	if err != nil {
		return nil, err
	}

	directed, strict := header(src)
	out := &NodeLink{
		Directed:   directed,
		Multigraph: !strict,
		Graph:      collect(graphAttrs, g.GetStr),
		Nodes:      []map[string]string{},
		Links:      []map[string]string{},
	}
	// Anonymous graphs get an internal "%N" name.
	if name, err := g.Name(); err == nil && name != "" && !strings.HasPrefix(name, "%") {
		out.Graph["name"] = name
	}

	n, err := g.FirstNode()
	for err == nil && n != nil {
		var node map[string]string
		if node, err = out.addNode(g, n, nodeAttrs, edgeAttrs); err != nil {
			break
		}
		out.Nodes = append(out.Nodes, node)
		n, err = g.NextNode(n)
	}
	if err != nil {
		return nil, fmt.Errorf("walk nodes: %w", err)
	}
	return out, nil
}

// addNode converts n and appends its out-edges to the links.
func (nl *NodeLink) addNode(g *cgraph.Graph, n *cgraph.Node, nodeAttrs, edgeAttrs []string) (map[string]string, error) {
	name, err := n.Name()
	if err != nil {
		return nil, err
	}
	node := collect(nodeAttrs, n.GetStr)
	if node["label"] == defaultLabel {
		delete(node, "label")
	}
	node["id"] = name

	e, err := g.FirstOut(n)
	for err == nil && e != nil {
		var head *cgraph.Node
		if head, err = e.Head(); err != nil {
			break
		}
		var target string
		if target, err = head.Name(); err != nil {
			break
		}
		link := collect(edgeAttrs, e.GetStr)
		link["source"] = name
		link["target"] = target
		nl.Links = append(nl.Links, link)
		e, err = g.NextOut(e)
	}
	if err != nil {
		return nil, fmt.Errorf("edges of %s: %w", name, err)
	}
	return node, nil
}

// attrNames lists the attributes declared for objects of kind in g.
func attrNames(g *cgraph.Graph, kind cgraph.ObjectTag) ([]string, error) {
	var names []string
	sym, err := g.NextAttr(int(kind), nil)
	for err == nil && sym != nil {
		names = append(names, sym.Name())
		sym, err = g.NextAttr(int(kind), sym)
	}
	if err != nil {
		return nil, fmt.Errorf("list attributes: %w", err)
	}
	return names, nil
}

func collect(names []string, get func(string) string) map[string]string {
	m := make(map[string]string, len(names)+2)
	for _, name := range names {
		if v := get(name); v != "" {
			m[name] = v
		}
	}
	return m
}

// header reports whether src declares a digraph and whether it is strict.
// DOT keywords are case-insensitive.
func header(src string) (directed, strict bool) {
	fields := strings.Fields(strings.ToLower(src))
	if len(fields) > 0 && fields[0] == "strict" {
		strict = true
		fields = fields[1:]
	}
	return len(fields) > 0 && strings.HasPrefix(fields[0], "digraph"), strict
}
