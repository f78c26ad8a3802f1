package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/threatmap/threatmap/pkg/dfd"
)

// Options configures diagram preview rendering.
type Options struct {
	// Detailed appends the component type (and subtype, when present) to
	// node labels. When false, only the component name is shown.
	Detailed bool
}

// ToDOT converts diagram cells to Graphviz DOT format for a local preview.
// Boundary cells become nested clusters, leaf cells become shaped nodes, and
// edge cells become labeled arrows. The resulting DOT string can be rendered
// using [RenderSVG], [RenderPDF], or [RenderPNG].
//
// The preview is a re-layout: Graphviz positions nodes itself, ignoring the
// cell coordinates. The server diagram keeps the exact geometry; the preview
// trades it for a compact left-to-right reading.
func ToDOT(cells []dfd.Cell, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  compound=true;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	w := newDotWriter(&buf, cells, opts)
	for _, c := range w.roots {
		w.writeNode(c, 1)
	}

	buf.WriteString("\n")
	for i := range cells {
		if cells[i].IsEdge() {
			w.writeEdge(&cells[i])
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// dotWriter walks the cell hierarchy emitting DOT statements. Cluster names
// are assigned in visit order, so equal input always yields equal output.
type dotWriter struct {
	buf      *bytes.Buffer
	opts     Options
	roots    []*dfd.Cell
	children map[string][]*dfd.Cell
	clusters map[string]string
}

func newDotWriter(buf *bytes.Buffer, cells []dfd.Cell, opts Options) *dotWriter {
	w := &dotWriter{
		buf:      buf,
		opts:     opts,
		children: make(map[string][]*dfd.Cell),
		clusters: make(map[string]string),
	}
	for i := range cells {
		c := &cells[i]
		if c.IsEdge() {
			continue
		}
		if c.Parent == "" {
			w.roots = append(w.roots, c)
		} else {
			w.children[c.Parent] = append(w.children[c.Parent], c)
		}
	}
	return w
}

func (w *dotWriter) writeNode(c *dfd.Cell, depth int) {
	indent := strings.Repeat("  ", depth)

	if c.Shape == dfd.ShapeSecurityBoundary {
		name := fmt.Sprintf("cluster_%d", len(w.clusters))
		w.clusters[c.ID] = name

		fmt.Fprintf(w.buf, "%ssubgraph %s {\n", indent, name)
		fmt.Fprintf(w.buf, "%s  label=%q;\n", indent, fmtLabel(c, w.opts.Detailed))
		fmt.Fprintf(w.buf, "%s  style=\"rounded,filled\";\n", indent)
		if body := c.Attrs.Body; body != nil {
			fmt.Fprintf(w.buf, "%s  fillcolor=%q;\n", indent, body.Fill)
			fmt.Fprintf(w.buf, "%s  color=%q;\n", indent, body.Stroke)
		}
		// Invisible anchor so edges can attach to the boundary itself and be
		// clipped at the cluster border via lhead/ltail.
		fmt.Fprintf(w.buf, "%s  %q [shape=point, style=invis];\n", indent, c.ID)
		for _, child := range w.children[c.ID] {
			w.writeNode(child, depth+1)
		}
		fmt.Fprintf(w.buf, "%s}\n", indent)
		return
	}

	fmt.Fprintf(w.buf, "%s%q [%s];\n", indent, c.ID, strings.Join(nodeAttrs(c, w.opts.Detailed), ", "))
}

func (w *dotWriter) writeEdge(c *dfd.Cell) {
	if c.Source == nil || c.Target == nil {
		return
	}

	var attrs []string
	if label := fmtLabel(c, false); label != "" {
		attrs = append(attrs, fmt.Sprintf("label=%q", label))
	}
	if cluster, ok := w.clusters[c.Source.Cell]; ok {
		attrs = append(attrs, fmt.Sprintf("ltail=%q", cluster))
	}
	if cluster, ok := w.clusters[c.Target.Cell]; ok {
		attrs = append(attrs, fmt.Sprintf("lhead=%q", cluster))
	}

	if len(attrs) == 0 {
		fmt.Fprintf(w.buf, "  %q -> %q;\n", c.Source.Cell, c.Target.Cell)
		return
	}
	fmt.Fprintf(w.buf, "  %q -> %q [%s];\n", c.Source.Cell, c.Target.Cell, strings.Join(attrs, ", "))
}

func fmtLabel(c *dfd.Cell, detailed bool) string {
	label := c.Label()
	if !detailed {
		return label
	}

	kind := c.ComponentType()
	if kind == "" {
		return label
	}
	if sub := c.ComponentSubtype(); sub != "" {
		kind += ": " + sub
	}
	return label + "\n" + kind
}

func nodeAttrs(c *dfd.Cell, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(c, detailed))}
	if shape := dotShape(c.Shape); shape != "" {
		attrs = append(attrs, "shape="+shape)
	}
	if body := c.Attrs.Body; body != nil {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", body.Fill), fmt.Sprintf("color=%q", body.Stroke))
	}
	return attrs
}

// dotShape maps a cell shape to a Graphviz shape. Processes keep the default
// box from the graph node attributes.
func dotShape(s dfd.Shape) string {
	switch s {
	case dfd.ShapeStore:
		return "cylinder"
	case dfd.ShapeActor:
		return "oval"
	default:
		return ""
	}
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [ToPDF] or [ToPNG].
func RenderSVG(dot string) ([]byte, error) {
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
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

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

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
// This is a convenience wrapper around [RenderSVG] and [ToPDF].
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(dot string) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// This is a convenience wrapper around [RenderSVG] and [ToPNG].
//
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return ToPNG(svg, scale)
}
