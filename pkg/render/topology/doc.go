// Package topology renders the track connection graph of a layout.
//
// # Overview
//
// BlueBrick layouts record which pieces are joined at their connection
// points. This package turns those links into an undirected Graphviz
// graph: one node per item, one edge per joined pair, switches drawn as
// highlighted diamonds. It is a debugging view of the track plan, not of
// its geometry.
//
// # Usage
//
//	dot := topology.ToDOT(l, topology.Options{Switch: isSwitch})
//	svg, err := topology.RenderSVG(ctx, dot)
//
// Links to items that are not in the layout are dropped and counted by
// [Build].
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package topology
