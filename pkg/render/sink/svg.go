package sink

import (
	"bytes"
	"fmt"
	"html"

	"github.com/matzehuels/switchyard/pkg/scene"
	"github.com/matzehuels/switchyard/pkg/switches"
	"github.com/matzehuels/switchyard/pkg/viewport"
)

// Canvas defaults.
const (
	DefaultWidth   = 1000.0
	DefaultHeight  = 700.0
	DefaultPadding = 40.0
)

const indicatorRadius = 5.0

const sceneCSS = `
    .part.missing { fill: #f4f4f4; stroke: #999; stroke-dasharray: 3 2; }
    .indicator { stroke: #222; stroke-width: 1; }
    .indicator.straight { fill: #2e9d4f; }
    .indicator.diverging { fill: #e0a100; }
    .indicator.unknown { fill: #aaa; }
    .indicator.toggling { fill: #3a78d8; }
    .indicator.error { fill: #d33; }
    .indicator.unconfigured { fill: #fff; stroke-dasharray: 2 1; }
    .switch-label { font: 9px sans-serif; fill: #333; }
    g.switch { cursor: pointer; }`

// SVGOption configures RenderSVG.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	width, height float64
	padding       float64
	states        map[string]switches.State
	labels        bool
	showHidden    bool
}

func WithSize(w, h float64) SVGOption { return func(r *svgRenderer) { r.width, r.height = w, h } }
func WithPadding(p float64) SVGOption { return func(r *svgRenderer) { r.padding = p } }
func WithLabels() SVGOption           { return func(r *svgRenderer) { r.labels = true } }

// WithHidden draws indicators for switches whose config marks them hidden.
func WithHidden() SVGOption { return func(r *svgRenderer) { r.showHidden = true } }

// WithStates supplies the switch states drawn by the indicators.
func WithStates(states []switches.State) SVGOption {
	return func(r *svgRenderer) {
		r.states = make(map[string]switches.State, len(states))
		for _, s := range states {
			r.states[s.ID] = s
		}
	}
}

func newSVGRenderer(opts ...SVGOption) svgRenderer {
	r := svgRenderer{width: DefaultWidth, height: DefaultHeight, padding: DefaultPadding}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// RenderSVG draws nodes in order, so later nodes sit on top.
func RenderSVG(nodes []scene.Node, opts ...SVGOption) []byte {
	r := newSVGRenderer(opts...)
	vp := viewport.Fit(nodes, r.width, r.height, r.padding)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		r.width, r.height, r.width, r.height)
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", sceneCSS)
	fmt.Fprintf(&buf, "  <g transform=%q>\n", vp.SVG())

	for _, n := range nodes {
		renderPart(&buf, n)
	}
	// indicators go last so parts never cover them
	for _, n := range nodes {
		if n.IsSwitch && !r.hidden(n.SourceItemID) {
			r.renderIndicator(&buf, n)
		}
	}

	buf.WriteString("  </g>\n</svg>\n")
	return buf.Bytes()
}

func (r *svgRenderer) hidden(id string) bool {
	st, ok := r.states[id]
	return ok && st.Hidden && !r.showHidden
}

func nodeTransform(n scene.Node) string {
	t := n.Transform
	if t.Rotation == 0 {
		return fmt.Sprintf("translate(%g %g)", t.TX, t.TY)
	}
	return fmt.Sprintf("translate(%g %g) rotate(%g)", t.TX, t.TY, t.Rotation)
}

func renderPart(buf *bytes.Buffer, n scene.Node) {
	px, py := n.Geometry.Pivot()
	w, h := n.Geometry.Width, n.Geometry.Height
	id := html.EscapeString(n.SourceItemID)

	fmt.Fprintf(buf, "    <g id=\"item-%s\" transform=%q>\n", id, nodeTransform(n))
	switch {
	case n.Missing:
		fmt.Fprintf(buf, "      <rect class=\"part missing\" x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\"/>\n", -px, -py, w, h)
	case n.ImageURL != "":
		fmt.Fprintf(buf, "      <image class=\"part\" href=\"%s\" x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\"/>\n",
			html.EscapeString(n.ImageURL), -px, -py, w, h)
	default:
		fmt.Fprintf(buf, "      <rect class=\"part\" x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"#ddd\"/>\n", -px, -py, w, h)
	}
	fmt.Fprintf(buf, "      <title>%s</title>\n", html.EscapeString(n.Label))
	buf.WriteString("    </g>\n")
}

func (r *svgRenderer) renderIndicator(buf *bytes.Buffer, n scene.Node) {
	class, text := indicatorClass(r.states, n.SourceItemID)
	id := html.EscapeString(n.SourceItemID)

	fmt.Fprintf(buf, "    <g class=\"switch\" data-switch=\"%s\">\n", id)
	fmt.Fprintf(buf, "      <circle class=\"indicator %s\" cx=\"%g\" cy=\"%g\" r=\"%g\"/>\n",
		class, n.Transform.TX, n.Transform.TY, indicatorRadius)
	fmt.Fprintf(buf, "      <title>%s: %s</title>\n", id, html.EscapeString(text))
	if r.labels {
		name := n.Label
		if st, ok := r.states[n.SourceItemID]; ok && st.DisplayName() != "" {
			name = st.DisplayName()
		}
		fmt.Fprintf(buf, "      <text class=\"switch-label\" x=\"%g\" y=\"%g\" text-anchor=\"middle\">%s</text>\n",
			n.Transform.TX, n.Transform.TY+indicatorRadius+10, html.EscapeString(name))
	}
	buf.WriteString("    </g>\n")
}

// indicatorClass maps a switch state to its CSS class and tooltip.
func indicatorClass(states map[string]switches.State, id string) (class, text string) {
	st, ok := states[id]
	switch {
	case !ok:
		return "unknown", "unknown"
	case st.Interaction == switches.Toggling:
		return "toggling", "toggling"
	case st.Interaction == switches.Error:
		if st.Err != nil {
			return "error", "error: " + st.Err.Error()
		}
		return "error", "error"
	case !st.Configured:
		return "unconfigured", "not configured"
	}
	return st.Position.String(), st.Position.String()
}
