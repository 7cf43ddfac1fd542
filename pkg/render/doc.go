// Package render turns a built scene into output documents.
//
// # Overview
//
// Rendering is split by what is drawn:
//
//   - Scene sinks (in [sink]): the layout as placed parts with switch
//     indicators, as SVG or as a JSON scene export
//   - Track topology (in [topology]): the connection graph between items,
//     laid out by Graphviz
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert any SVG using the external rsvg-convert tool
// (from librsvg). Both sinks and topology use them.
//
//	svg := sink.RenderSVG(nodes, sink.WithSize(1200, 800))
//	png, err := render.ToPNG(ctx, svg, 2.0)
//
// [sink]: github.com/matzehuels/switchyard/pkg/render/sink
// [topology]: github.com/matzehuels/switchyard/pkg/render/topology
package render
