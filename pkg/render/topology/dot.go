package topology

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/switchyard/pkg/layout"
	"github.com/matzehuels/switchyard/pkg/render"
)

// Options configures DOT generation.
type Options struct {
	// Switch flags items drawn as switches. Nil flags nothing.
	Switch func(layout.Item) bool
	// Detailed adds the part name to every node label. When false, only
	// switches carry it.
	Detailed bool
	// HideIsolated drops items with no links.
	HideIsolated bool
}

// Edge joins two items. From sorts before To.
type Edge struct {
	From, To string
}

// Graph is the connection graph of a layout.
type Graph struct {
	Items    []layout.Item
	Edges    []Edge
	Dangling int // links to ids missing from the layout
}

// Build collects the undirected links between items. A link recorded on
// both ends yields one edge; self links are ignored.
func Build(l *layout.Layout) Graph {
	ids := make(map[string]struct{}, len(l.Items))
	for _, it := range l.Items {
		ids[it.ID] = struct{}{}
	}

	g := Graph{Items: l.Items}
	seen := make(map[Edge]struct{})
	for _, it := range l.Items {
		for _, to := range it.Connections {
			if to == it.ID {
				continue
			}
			if _, ok := ids[to]; !ok {
				g.Dangling++
				continue
			}
			e := Edge{From: it.ID, To: to}
			if e.To < e.From {
				e.From, e.To = e.To, e.From
			}
			if _, dup := seen[e]; dup {
				continue
			}
			seen[e] = struct{}{}
			g.Edges = append(g.Edges, e)
		}
	}
	return g
}

// Degree returns the number of edges at each item.
func (g Graph) Degree() map[string]int {
	deg := make(map[string]int, len(g.Items))
	for _, e := range g.Edges {
		deg[e.From]++
		deg[e.To]++
	}
	return deg
}

// ToDOT converts the layout's connection graph to Graphviz DOT.
func ToDOT(l *layout.Layout, opts Options) string {
	g := Build(l)
	deg := g.Degree()

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, margin=\"0.1,0.05\"];\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, it := range g.Items {
		if opts.HideIsolated && deg[it.ID] == 0 {
			continue
		}
		isSwitch := opts.Switch != nil && opts.Switch(it)
		fmt.Fprintf(&buf, "  %q [%s];\n", it.ID, strings.Join(fmtAttrs(it, isSwitch, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		fmt.Fprintf(&buf, "  %q -- %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtAttrs(it layout.Item, isSwitch, detailed bool) []string {
	label := it.ID
	if (detailed || isSwitch) && it.Part != "" {
		label += "\n" + it.Part
	}
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if isSwitch {
		attrs = append(attrs, "shape=diamond", "style=filled", "fillcolor=\"#ffd36b\"", "penwidth=2")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
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
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with one
// sized in user units.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
