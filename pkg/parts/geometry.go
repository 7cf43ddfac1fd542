package parts

import (
	"encoding/json"
	"fmt"
)

// Geometry is a part's local bounding box and rotation pivot, in layout
// units. The local box spans [-OriginX, Width-OriginX] horizontally and
// [-OriginY, Height-OriginY] vertically.
type Geometry struct {
	OriginX   float64
	OriginY   float64
	Width     float64
	Height    float64
	HasOrigin bool // false when the catalog supplied no origin
}

// Pivot returns the local origin. Without an explicit origin the pivot is
// the box centre.
func (g Geometry) Pivot() (x, y float64) {
	if g.HasOrigin {
		return g.OriginX, g.OriginY
	}
	return g.Width / 2, g.Height / 2
}

type geometryJSON struct {
	Origin *struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"origin,omitempty"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// UnmarshalJSON decodes {origin:{x,y}, width, height}; origin is optional.
func (g *Geometry) UnmarshalJSON(data []byte) error {
	var raw geometryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Width < 0 || raw.Height < 0 {
		return fmt.Errorf("negative size %gx%g", raw.Width, raw.Height)
	}
	*g = Geometry{Width: raw.Width, Height: raw.Height}
	if raw.Origin != nil {
		g.OriginX, g.OriginY, g.HasOrigin = raw.Origin.X, raw.Origin.Y, true
	}
	return nil
}

// MarshalJSON emits the wire form; origin is omitted when absent.
func (g Geometry) MarshalJSON() ([]byte, error) {
	out := geometryJSON{Width: g.Width, Height: g.Height}
	if g.HasOrigin {
		out.Origin = &struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
		}{g.OriginX, g.OriginY}
	}
	return json.Marshal(out)
}
