// Package sink renders a built scene to output formats.
//
// # Overview
//
// A "sink" transforms []scene.Node into a final document:
//
//   - SVG: every part placed and rotated about its origin, with a state
//     indicator on each switch
//   - JSON: the resolved scene for external tools
//   - PDF and PNG: the SVG converted with rsvg-convert
//
// # SVG Output
//
// The scene is fitted into the canvas with [viewport.Fit]. Parts with a
// catalog image are drawn as <image>; parts without geometry are drawn as
// dashed placeholder squares so nothing silently disappears.
//
//	svg := sink.RenderSVG(nodes,
//	    sink.WithSize(1200, 800),
//	    sink.WithStates(ctl.States()),
//	    sink.WithLabels(),
//	)
//
// # SVG Options
//
//   - [WithSize]: canvas size (default 1000x700)
//   - [WithPadding]: fit padding (default 40)
//   - [WithStates]: switch states for the indicators; without it every
//     switch shows as unknown
//   - [WithLabels]: print the part name under each switch
//
// # JSON Output
//
// [RenderJSON] writes the same scene as data: the viewport transform, and
// per node its anchor, rotation, footprint, image and switch state.
//
// [viewport.Fit]: github.com/matzehuels/switchyard/pkg/viewport.Fit
package sink
