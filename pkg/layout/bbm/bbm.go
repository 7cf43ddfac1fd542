// Package bbm imports BlueBrick .bbm layout files.
//
// A .bbm file is XML. Every placed piece is a <Brick id="..."> element
// carrying a <PartNumber>, a <DisplayArea> (X, Y, Width, Height in studs),
// an <Orientation> in degrees, and optional <Connexions> whose <LinkedTo>
// children name neighbouring bricks. Bricks may appear at any depth; the
// surrounding layer structure is ignored.
//
// Anchors are placed at the display-area centre, scaled by [StudPx], and
// shifted so the layout's top-left corner sits at (0, 0). The file carries
// no switch list; callers classify switches from part names.
package bbm

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/matzehuels/switchyard/pkg/layout"
)

// StudPx is the number of layout units per BlueBrick stud.
const StudPx = 8.0

type displayArea struct {
	X      float64 `xml:"X"`
	Y      float64 `xml:"Y"`
	Width  float64 `xml:"Width"`
	Height float64 `xml:"Height"`
}

type brick struct {
	ID          string       `xml:"id,attr"`
	PartNumber  string       `xml:"PartNumber"`
	Orientation float64      `xml:"Orientation"`
	DisplayArea *displayArea `xml:"DisplayArea"`
	LinkedTo    []string     `xml:"Connexions>Connexion>LinkedTo"`
}

// Read parses a .bbm document. Bricks without an id or display area are
// skipped. Read does not close r.
func Read(r io.Reader) (*layout.Layout, error) {
	dec := xml.NewDecoder(r)
	var bricks []brick
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode bbm: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Brick" {
			continue
		}
		var b brick
		if err := dec.DecodeElement(&b, &se); err != nil {
			return nil, fmt.Errorf("decode brick: %w", err)
		}
		if b.ID == "" || b.DisplayArea == nil {
			continue
		}
		bricks = append(bricks, b)
	}

	minX, minY := math.Inf(1), math.Inf(1)
	for _, b := range bricks {
		minX = math.Min(minX, b.DisplayArea.X)
		minY = math.Min(minY, b.DisplayArea.Y)
	}

	l := &layout.Layout{Items: make([]layout.Item, 0, len(bricks))}
	for _, b := range bricks {
		da := b.DisplayArea
		it := layout.Item{
			ID:       strings.TrimSpace(b.ID),
			Part:     strings.TrimSpace(b.PartNumber),
			X:        (da.X - minX + da.Width/2) * StudPx,
			Y:        (da.Y - minY + da.Height/2) * StudPx,
			Rotation: normalizeDegrees(b.Orientation),
		}
		for _, id := range b.LinkedTo {
			if id = strings.TrimSpace(id); id != "" {
				it.Connections = append(it.Connections, id)
			}
		}
		l.Items = append(l.Items, it)
	}
	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("bbm: %w", err)
	}
	return l, nil
}

// Import reads the .bbm file at path.
func Import(path string) (*layout.Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

func normalizeDegrees(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}
