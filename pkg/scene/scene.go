// Package scene turns layout items into positioned, rotated nodes ready for
// rendering.
//
// A scene is derived data: it is rebuilt in full whenever the layout or the
// part catalog changes and is never patched in place. Node order matches
// item order, so later items draw on top.
package scene

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/switchyard/pkg/layout"
	"github.com/matzehuels/switchyard/pkg/parts"
)

// DefaultFootprint is the side of the fallback square drawn for parts
// without catalog geometry.
const DefaultFootprint = 32.0

// Transform places a node: translate(TX, TY) then rotate(Rotation degrees)
// about the part's local origin.
type Transform struct {
	TX       float64
	TY       float64
	Rotation float64
}

// Node is one fully resolved layout item.
type Node struct {
	SourceItemID string
	Transform    Transform
	Geometry     parts.Geometry
	ImageKey     string // normalized part name
	ImageURL     string // empty when the catalog has no image
	Missing      bool   // geometry absent; Geometry is the fallback square
	IsSwitch     bool
	Label        string // raw part name
}

// Options configures Build.
type Options struct {
	// DefaultFootprint overrides the fallback square side. Zero means
	// [DefaultFootprint].
	DefaultFootprint float64

	// Classify flags switch items. Nil flags nothing.
	Classify func(layout.Item) bool
}

// Build resolves every item against the catalog. Items whose part has no
// geometry get a fallback square centred on the anchor; no item is dropped.
func Build(items []layout.Item, cat *parts.Catalog, opts Options) []Node {
	side := opts.DefaultFootprint
	if side <= 0 {
		side = DefaultFootprint
	}
	fallback := parts.Geometry{
		OriginX: side / 2, OriginY: side / 2,
		Width: side, Height: side,
		HasOrigin: true,
	}

	nodes := make([]Node, 0, len(items))
	for _, it := range items {
		n := Node{
			SourceItemID: it.ID,
			Transform:    Transform{TX: it.X, TY: it.Y, Rotation: it.Rotation},
			ImageKey:     parts.Normalize(it.Part),
			Label:        it.Part,
		}
		if g, ok := cat.GeometryFor(it.Part); ok {
			n.Geometry = g
			n.ImageURL, _ = cat.ImageFor(it.Part)
		} else {
			n.Geometry = fallback
			n.Missing = true
		}
		if opts.Classify != nil {
			n.IsSwitch = opts.Classify(it)
		}
		nodes = append(nodes, n)
	}
	return nodes
}

// Corners returns the footprint corners in layout coordinates, clockwise
// from the local top-left.
func (n Node) Corners() [4]r2.Vec {
	px, py := n.Geometry.Pivot()
	w, h := n.Geometry.Width, n.Geometry.Height
	local := [4]r2.Vec{
		{X: -px, Y: -py},
		{X: w - px, Y: -py},
		{X: w - px, Y: h - py},
		{X: -px, Y: h - py},
	}
	alpha := n.Transform.Rotation * math.Pi / 180
	anchor := r2.Vec{X: n.Transform.TX, Y: n.Transform.TY}
	var out [4]r2.Vec
	for i, v := range local {
		if alpha != 0 {
			v = r2.Rotate(v, alpha, r2.Vec{})
		}
		out[i] = r2.Add(v, anchor)
	}
	return out
}

// Bounds returns the axis-aligned box of the rotated footprint.
func (n Node) Bounds() r2.Box {
	c := n.Corners()
	b := r2.Box{Min: c[0], Max: c[0]}
	for _, v := range c[1:] {
		b = extend(b, v)
	}
	return b
}

// Bounds returns the union of all node bounds. ok is false for no nodes.
func Bounds(nodes []Node) (box r2.Box, ok bool) {
	for i, n := range nodes {
		nb := n.Bounds()
		if i == 0 {
			box = nb
			continue
		}
		box = extend(extend(box, nb.Min), nb.Max)
	}
	return box, len(nodes) > 0
}

func extend(b r2.Box, v r2.Vec) r2.Box {
	b.Min.X = math.Min(b.Min.X, v.X)
	b.Min.Y = math.Min(b.Min.Y, v.Y)
	b.Max.X = math.Max(b.Max.X, v.X)
	b.Max.Y = math.Max(b.Max.Y, v.Y)
	return b
}
