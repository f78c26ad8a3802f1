// Package render produces local previews of threat model diagrams.
//
// # Overview
//
// The server renders diagram cells itself; this package exists for the
// `--render` flag, which writes a quick offline preview of the cells an
// analysis produced without opening the web UI. It provides:
//
//   - DOT conversion ([ToDOT]): cells to Graphviz source
//   - SVG rendering ([RenderSVG]): DOT to SVG via embedded Graphviz
//   - Format conversion ([ToPDF], [ToPNG]): SVG to print/raster formats
//
// # Preview Semantics
//
// A preview is a re-layout, not a screenshot. [ToDOT] discards the cell
// coordinates and lets Graphviz arrange the graph left to right: security
// boundaries become nested clusters, processes become boxes, stores become
// cylinders, actors become ovals, and data flows become labeled arrows.
// Fill and stroke colors carry over from the cell styles, so the preview
// reads like the server diagram even though positions differ.
//
//	cells, err := dfd.Build(model)
//	dot := render.ToDOT(cells, render.Options{})
//	svg, err := render.RenderSVG(dot)
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg). [RenderPDF] and [RenderPNG]
// bundle the DOT-to-SVG step with the conversion.
//
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
package render
