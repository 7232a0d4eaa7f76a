// Package graph generates DOT and Mermaid format dependency graphs from planned resources.
package graph

import (
	"io"
	"strings"

	"github.com/emicklei/dot"

	stackplan "github.com/lex00/stackplan-aws-go"
)

// Format specifies the output format for the graph.
type Format string

const (
	// FormatDOT outputs Graphviz DOT format.
	FormatDOT Format = "dot"
	// FormatMermaid outputs Mermaid format for GitHub/markdown rendering.
	FormatMermaid Format = "mermaid"
)

// Generator creates dependency graphs from planned resources.
type Generator struct {
	// Format specifies the output format (dot or mermaid). Defaults to dot.
	Format Format

	// ClusterByKind groups resources by the part of the stack they belong to.
	ClusterByKind bool

	// Kinds limits the graph to nodes of these kinds. Empty means all.
	Kinds []stackplan.Kind
}

// Generate creates a dependency graph and writes it to w.
func (g *Generator) Generate(nodes []stackplan.ResourceNode, w io.Writer) error {
	graph := g.buildGraph(nodes)

	var output string
	if g.Format == FormatMermaid {
		output = dot.MermaidGraph(graph, dot.MermaidTopToBottom)
	} else {
		output = graph.String()
	}

	_, err := io.WriteString(w, output)
	return err
}

// GenerateString is a convenience method that returns the graph as a string.
func (g *Generator) GenerateString(nodes []stackplan.ResourceNode) (string, error) {
	var sb strings.Builder
	if err := g.Generate(nodes, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// buildGraph creates the dot.Graph structure from planned nodes.
func (g *Generator) buildGraph(nodes []stackplan.ResourceNode) *dot.Graph {
	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", "TB")

	graph.NodeInitializer(func(n dot.Node) {
		n.Attr("shape", "box")
		n.Attr("fontname", "Arial")
	})
	graph.EdgeInitializer(func(e dot.Edge) {
		e.Attr("fontname", "Arial")
		e.Attr("fontsize", "10")
	})

	included := g.filter(nodes)

	if g.ClusterByKind {
		g.addClusteredNodes(graph, included)
	} else {
		for _, n := range included {
			graph.Node(n.ID).Label(label(n))
		}
	}

	// Edges point from a resource to what it depends on. Dependencies that
	// are also read through Fn::GetAtt are drawn blue.
	present := make(map[string]bool, len(included))
	for _, n := range included {
		present[n.ID] = true
	}
	for _, n := range included {
		attrs := attrTargets(n.Properties)
		for _, dep := range n.DependsOn {
			if !present[dep] {
				continue
			}
			e := graph.Edge(graph.Node(n.ID), graph.Node(dep))
			if attrs[dep] {
				e.Attr("color", "blue")
			}
		}
	}

	return graph
}

func (g *Generator) filter(nodes []stackplan.ResourceNode) []stackplan.ResourceNode {
	if len(g.Kinds) == 0 {
		return nodes
	}
	want := make(map[stackplan.Kind]bool, len(g.Kinds))
	for _, k := range g.Kinds {
		want[k] = true
	}
	var out []stackplan.ResourceNode
	for _, n := range nodes {
		if want[n.Kind] {
			out = append(out, n)
		}
	}
	return out
}

// addClusteredNodes adds resource nodes grouped by kind, in the order the
// kinds first appear in the plan.
func (g *Generator) addClusteredNodes(graph *dot.Graph, nodes []stackplan.ResourceNode) {
	var kinds []stackplan.Kind
	byKind := make(map[stackplan.Kind][]stackplan.ResourceNode)
	for _, n := range nodes {
		if _, seen := byKind[n.Kind]; !seen {
			kinds = append(kinds, n.Kind)
		}
		byKind[n.Kind] = append(byKind[n.Kind], n)
	}

	for _, kind := range kinds {
		members := byKind[kind]
		if len(members) == 1 {
			graph.Node(members[0].ID).Label(label(members[0]))
			continue
		}
		cluster := graph.Subgraph("cluster_"+string(kind), dot.ClusterOption{})
		cluster.Attr("label", string(kind))
		cluster.Attr("style", "rounded")
		cluster.Attr("bgcolor", "lightyellow")
		for _, n := range members {
			cluster.Node(n.ID).Label(label(n))
		}
	}
}

func label(n stackplan.ResourceNode) string {
	return n.ID + "\\n[" + n.Type + "]"
}

// attrTargets returns the resources whose attributes props read.
func attrTargets(props map[string]any) map[string]bool {
	targets := make(map[string]bool)
	var walk func(v any)
	walk = func(v any) {
		switch val := v.(type) {
		case map[string]any:
			if attr, ok := val["Fn::GetAtt"].([]any); ok && len(attr) > 0 {
				if name, ok := attr[0].(string); ok {
					targets[name] = true
				}
			}
			for _, child := range val {
				walk(child)
			}
		case []any:
			for _, child := range val {
				walk(child)
			}
		}
	}
	walk(props)
	return targets
}
