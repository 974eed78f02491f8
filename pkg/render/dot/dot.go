// Package dot exports a reference graph as Graphviz DOT text and renders it
// through an embedded Graphviz.
package dot

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/texviz/refgraph/pkg/refgraph"
	"github.com/texviz/refgraph/pkg/render"
)

// ToDOT converts a reference graph to Graphviz DOT format. Nodes are emitted
// first, then edges, both in the graph's stored order, so identical input
// corpora produce byte-identical output. The resulting DOT string can be
// rendered with [RenderSVG], [RenderPNG], or [RenderPDF].
//
// Styling follows the edge and node kinds: unresolved references are dashed
// and red, citations are steel blue, anchor nodes are ellipses. Collapsed
// parallel edges carry their count as an edge label.
func ToDOT(g *refgraph.Graph) string {
	var buf bytes.Buffer
	buf.WriteString("digraph refs {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=rounded, fontsize=12];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(nodeAttrs(*n), ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		if attrs := edgeAttrs(e); len(attrs) > 0 {
			fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(attrs, ", "))
		} else {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n refgraph.Node) []string {
	attrs := []string{fmt.Sprintf("label=%q", n.Label)}
	switch n.Kind {
	case refgraph.NodeAnchor:
		attrs = append(attrs, "shape=ellipse")
	case refgraph.NodeCitation:
		attrs = append(attrs, "shape=ellipse", `color="steelblue"`, `fontcolor="steelblue"`)
	case refgraph.NodeMissing:
		attrs = append(attrs, "shape=ellipse", `color="red"`, `fontcolor="red"`)
	case refgraph.NodeFile:
		// default box
	}
	return attrs
}

func edgeAttrs(e refgraph.Edge) []string {
	var attrs []string
	switch e.Kind {
	case refgraph.EdgeCitation:
		attrs = append(attrs, `color="steelblue"`)
	case refgraph.EdgeUnresolved:
		attrs = append(attrs, "style=dashed", `color="red"`)
	case refgraph.EdgeReference:
		// default solid
	}
	if e.Count > 1 {
		attrs = append(attrs, fmt.Sprintf("label=%q", fmt.Sprintf("%d", e.Count)))
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	return renderFormat(dot, graphviz.SVG)
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(dot string) ([]byte, error) {
	return renderFormat(dot, graphviz.PNG)
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
// This is a convenience wrapper around [RenderSVG] and [render.ToPDF].
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(dot string) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

func renderFormat(dot string, format graphviz.Format) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
