// Package viewport fits a scene into a drawing area.
//
// [Fit] computes one uniform scale plus a translation that centres the
// scene's bounding box in the drawing area, leaving padding on every side.
// The transform is recomputed on every full reload, never adjusted
// incrementally.
package viewport

import (
	"fmt"
	"math"

	"github.com/matzehuels/switchyard/pkg/scene"
)

// Transform maps layout coordinates to screen coordinates:
// screen = layout*Scale + Translate.
type Transform struct {
	TranslateX float64 `json:"translate_x"`
	TranslateY float64 `json:"translate_y"`
	Scale      float64 `json:"scale"`
}

// Identity is the no-op transform.
var Identity = Transform{Scale: 1}

// Fit returns the transform that fits nodes into a width x height area with
// padding on each side. It returns [Identity] when there are no nodes, the
// bounds have zero width or height, or the padded area is empty.
func Fit(nodes []scene.Node, width, height, padding float64) Transform {
	box, ok := scene.Bounds(nodes)
	if !ok {
		return Identity
	}
	lw, lh := box.Max.X-box.Min.X, box.Max.Y-box.Min.Y
	aw, ah := width-2*padding, height-2*padding
	if !(lw > 0) || !(lh > 0) || !(aw > 0) || !(ah > 0) {
		return Identity
	}

	s := math.Min(aw/lw, ah/lh)
	return Transform{
		TranslateX: (width-lw*s)/2 - box.Min.X*s,
		TranslateY: (height-lh*s)/2 - box.Min.Y*s,
		Scale:      s,
	}
}

// Apply maps a layout point to screen coordinates.
func (t Transform) Apply(x, y float64) (float64, float64) {
	return x*t.Scale + t.TranslateX, y*t.Scale + t.TranslateY
}

// Invert maps a screen point back to layout coordinates.
func (t Transform) Invert(x, y float64) (float64, float64) {
	if t.Scale == 0 {
		return x, y
	}
	return (x - t.TranslateX) / t.Scale, (y - t.TranslateY) / t.Scale
}

// SVG renders the transform as an SVG transform attribute value.
func (t Transform) SVG() string {
	return fmt.Sprintf("translate(%g %g) scale(%g)", t.TranslateX, t.TranslateY, t.Scale)
}
