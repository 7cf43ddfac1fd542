package sink

import (
	"context"

	"github.com/matzehuels/switchyard/pkg/render"
	"github.com/matzehuels/switchyard/pkg/scene"
)

// RenderPDF renders the scene as PDF via SVG conversion.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, nodes []scene.Node, opts ...SVGOption) ([]byte, error) {
	return render.ToPDF(ctx, RenderSVG(nodes, opts...))
}

// RenderPNG renders the scene as PNG via SVG conversion at the given scale.
func RenderPNG(ctx context.Context, nodes []scene.Node, scale float64, opts ...SVGOption) ([]byte, error) {
	return render.ToPNG(ctx, RenderSVG(nodes, opts...), scale)
}
