package scene

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/switchyard/pkg/layout"
	"github.com/matzehuels/switchyard/pkg/parts"
)

const eps = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < eps }

func boxNear(a, b r2.Box) bool {
	return near(a.Min.X, b.Min.X) && near(a.Min.Y, b.Min.Y) && near(a.Max.X, b.Max.X) && near(a.Max.Y, b.Max.Y)
}

func testCatalog() *parts.Catalog {
	return parts.New(
		map[string]string{"2861 Left Switch": "/img/2861.gif"},
		map[string]parts.Geometry{
			"2861 Left Switch": {OriginX: 0, OriginY: 8, Width: 40, Height: 16, HasOrigin: true},
			"2865 Straight":    {Width: 32, Height: 8},
		},
	)
}

func TestBuildResolvesAndPreservesOrder(t *testing.T) {
	items := []layout.Item{
		{ID: "1", Part: "TB 2861 left switch", X: 10, Y: 20, Rotation: 90},
		{ID: "2", Part: "2865 Straight", X: 50, Y: 20},
		{ID: "3", Part: "Mystery Part", X: 0, Y: 0},
	}
	nodes := Build(items, testCatalog(), Options{
		Classify: func(it layout.Item) bool { return it.ID == "1" },
	})

	if len(nodes) != 3 {
		t.Fatalf("len = %d, want 3", len(nodes))
	}
	for i, n := range nodes {
		if n.SourceItemID != items[i].ID {
			t.Errorf("node %d id = %s, want %s", i, n.SourceItemID, items[i].ID)
		}
	}

	sw := nodes[0]
	if sw.ImageKey != "2861 LEFT SWITCH" || sw.ImageURL != "/img/2861.gif" || sw.Missing || !sw.IsSwitch {
		t.Errorf("switch node = %+v", sw)
	}
	if sw.Transform != (Transform{TX: 10, TY: 20, Rotation: 90}) {
		t.Errorf("transform = %+v", sw.Transform)
	}

	if nodes[1].ImageURL != "" || nodes[1].Missing {
		t.Errorf("geometry without image should render without image, got %+v", nodes[1])
	}

	missing := nodes[2]
	if !missing.Missing || missing.Geometry.Width != DefaultFootprint || missing.Geometry.Height != DefaultFootprint {
		t.Errorf("fallback node = %+v", missing)
	}
	want := r2.Box{Min: r2.Vec{X: -16, Y: -16}, Max: r2.Vec{X: 16, Y: 16}}
	if !boxNear(missing.Bounds(), want) {
		t.Errorf("fallback bounds = %+v, want centred square %+v", missing.Bounds(), want)
	}
}

func TestBuildCustomFootprint(t *testing.T) {
	nodes := Build([]layout.Item{{ID: "1", Part: "?"}}, nil, Options{DefaultFootprint: 10})
	if g := nodes[0].Geometry; g.Width != 10 || g.OriginX != 5 {
		t.Errorf("geometry = %+v", g)
	}
}

func TestBoundsRotatesAboutOrigin(t *testing.T) {
	n := Node{
		Transform: Transform{TX: 100, TY: 100, Rotation: 90},
		Geometry:  parts.Geometry{OriginX: 0, OriginY: 8, Width: 40, Height: 16, HasOrigin: true},
	}
	// Local box [0,40]x[-8,8] rotated 90° clockwise (y down) is [-8,8]x[0,40].
	want := r2.Box{Min: r2.Vec{X: 92, Y: 100}, Max: r2.Vec{X: 108, Y: 140}}
	if got := n.Bounds(); !boxNear(got, want) {
		t.Errorf("Bounds = %+v, want %+v", got, want)
	}
}

func TestBoundsWithoutOriginUsesCentre(t *testing.T) {
	n := Node{
		Transform: Transform{TX: 0, TY: 0, Rotation: 90},
		Geometry:  parts.Geometry{Width: 32, Height: 8},
	}
	want := r2.Box{Min: r2.Vec{X: -4, Y: -16}, Max: r2.Vec{X: 4, Y: 16}}
	if got := n.Bounds(); !boxNear(got, want) {
		t.Errorf("Bounds = %+v, want %+v", got, want)
	}
}

func TestSceneBounds(t *testing.T) {
	if _, ok := Bounds(nil); ok {
		t.Error("empty scene should report !ok")
	}
	nodes := []Node{
		{Transform: Transform{TX: 0, TY: 0}, Geometry: parts.Geometry{Width: 10, Height: 10, HasOrigin: true}},
		{Transform: Transform{TX: 90, TY: 40}, Geometry: parts.Geometry{Width: 10, Height: 10, HasOrigin: true}},
	}
	box, ok := Bounds(nodes)
	want := r2.Box{Min: r2.Vec{X: 0, Y: 0}, Max: r2.Vec{X: 100, Y: 50}}
	if !ok || !boxNear(box, want) {
		t.Errorf("Bounds = %+v, %v; want %+v", box, ok, want)
	}
}
