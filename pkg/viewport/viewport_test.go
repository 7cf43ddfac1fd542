package viewport

import (
	"math"
	"testing"

	"github.com/matzehuels/switchyard/pkg/parts"
	"github.com/matzehuels/switchyard/pkg/scene"
)

const eps = 1e-9

func box(x, y, w, h float64) scene.Node {
	return scene.Node{
		Transform: scene.Transform{TX: x, TY: y},
		Geometry:  parts.Geometry{Width: w, Height: h, HasOrigin: true},
	}
}

func TestFitCentresLayout(t *testing.T) {
	nodes := []scene.Node{box(0, 0, 100, 50)}
	tr := Fit(nodes, 300, 300, 40)

	if math.Abs(tr.Scale-2.2) > eps {
		t.Errorf("Scale = %v, want 2.2", tr.Scale)
	}
	cx, cy := tr.Apply(50, 25)
	if math.Abs(cx-150) > eps || math.Abs(cy-150) > eps {
		t.Errorf("box centre maps to (%v, %v), want (150, 150)", cx, cy)
	}
	if math.Abs(tr.TranslateX-40) > eps || math.Abs(tr.TranslateY-95) > eps {
		t.Errorf("translate = (%v, %v), want (40, 95)", tr.TranslateX, tr.TranslateY)
	}
}

func TestFitOffsetBounds(t *testing.T) {
	nodes := []scene.Node{box(-50, 10, 20, 20), box(30, 70, 20, 20)}
	tr := Fit(nodes, 200, 100, 10)

	// Bounds [-50,50]x[10,90]: 100x80, area 180x80 -> scale 1.
	if math.Abs(tr.Scale-1) > eps {
		t.Fatalf("Scale = %v, want 1", tr.Scale)
	}
	x0, y0 := tr.Apply(-50, 10)
	x1, y1 := tr.Apply(50, 90)
	if math.Abs((x0+x1)/2-100) > eps || math.Abs((y0+y1)/2-50) > eps {
		t.Errorf("not centred: (%v,%v)-(%v,%v)", x0, y0, x1, y1)
	}
}

func TestFitDegenerate(t *testing.T) {
	tests := []struct {
		name  string
		nodes []scene.Node
		w, h  float64
		pad   float64
	}{
		{"no nodes", nil, 300, 300, 40},
		{"zero width", []scene.Node{box(0, 0, 0, 10)}, 300, 300, 40},
		{"zero height", []scene.Node{box(0, 0, 10, 0)}, 300, 300, 40},
		{"padding eats area", []scene.Node{box(0, 0, 10, 10)}, 80, 300, 40},
		{"zero viewport", []scene.Node{box(0, 0, 10, 10)}, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fit(tt.nodes, tt.w, tt.h, tt.pad); got != Identity {
				t.Errorf("Fit = %+v, want identity", got)
			}
		})
	}
}

func TestInvert(t *testing.T) {
	tr := Transform{TranslateX: 12, TranslateY: -3, Scale: 2.5}
	x, y := tr.Invert(tr.Apply(7, 9))
	if math.Abs(x-7) > eps || math.Abs(y-9) > eps {
		t.Errorf("Invert(Apply) = (%v, %v)", x, y)
	}
}

func TestSVG(t *testing.T) {
	if got := (Transform{TranslateX: 40, TranslateY: 95, Scale: 2}).SVG(); got != "translate(40 95) scale(2)" {
		t.Errorf("SVG = %q", got)
	}
}
