package bbm

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/switchyard/pkg/layout"
)

const sample = `<?xml version="1.0" encoding="utf-8"?>
<Map>
  <Layers>
    <Layer type="brick" id="1">
      <Bricks>
        <Brick id="10">
          <DisplayArea><X>4</X><Y>2</Y><Width>16</Width><Height>8</Height></DisplayArea>
          <PartNumber> 2861 </PartNumber>
          <Orientation>-90</Orientation>
          <Connexions>
            <Connexion><LinkedTo>11</LinkedTo></Connexion>
            <Connexion><LinkedTo></LinkedTo></Connexion>
          </Connexions>
        </Brick>
        <Brick id="11">
          <DisplayArea><X>20</X><Y>6</Y><Width>16</Width><Height>8</Height></DisplayArea>
          <PartNumber>2865</PartNumber>
          <Orientation>450</Orientation>
        </Brick>
        <Brick id="12">
          <PartNumber>no display area</PartNumber>
        </Brick>
      </Bricks>
    </Layer>
  </Layers>
</Map>`

func TestRead(t *testing.T) {
	l, err := Read(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	want := &layout.Layout{Items: []layout.Item{
		{ID: "10", Part: "2861", X: 8 * StudPx, Y: 4 * StudPx, Rotation: 270, Connections: []string{"11"}},
		{ID: "11", Part: "2865", X: 24 * StudPx, Y: 8 * StudPx, Rotation: 90},
	}}
	if diff := cmp.Diff(want, l); diff != "" {
		t.Errorf("Read mismatch (-want +got):\n%s", diff)
	}
}

func TestReadEmpty(t *testing.T) {
	l, err := Read(strings.NewReader(`<Map/>`))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(l.Items) != 0 {
		t.Errorf("items = %v, want none", l.Items)
	}
}

func TestReadMalformed(t *testing.T) {
	if _, err := Read(strings.NewReader(`<Map><Brick id="1">`)); err == nil {
		t.Error("expected error for truncated document")
	}
}

func TestNormalizeDegrees(t *testing.T) {
	for in, want := range map[float64]float64{0: 0, 360: 0, 450: 90, -90: 270, 359.5: 359.5} {
		if got := normalizeDegrees(in); got != want {
			t.Errorf("normalizeDegrees(%v) = %v, want %v", in, got, want)
		}
	}
}
