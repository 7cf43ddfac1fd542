package layout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Item is one physical piece placed in the layout. X and Y are the anchor
// in layout units; Rotation is in degrees, clockwise, about the part's
// local origin.
type Item struct {
	ID          string   `json:"id"`
	Part        string   `json:"part"`
	X           float64  `json:"x"`
	Y           float64  `json:"y"`
	Rotation    float64  `json:"rotation_deg"`
	Connections []string `json:"connections,omitempty"`
}

// SwitchEntry is one switch from the controller's authoritative list.
type SwitchEntry struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Layout is the full scene source: items in draw order plus the backend
// switch list, which may be empty.
type Layout struct {
	Items    []Item        `json:"items"`
	Switches []SwitchEntry `json:"switches,omitempty"`
}

// Item returns the item with the given id.
func (l *Layout) Item(id string) (Item, bool) {
	for _, it := range l.Items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// Validate reports empty or duplicate item ids and duplicate switch ids.
func (l *Layout) Validate() error {
	seen := make(map[string]struct{}, len(l.Items))
	for i, it := range l.Items {
		if it.ID == "" {
			return fmt.Errorf("item %d: empty id", i)
		}
		if _, dup := seen[it.ID]; dup {
			return fmt.Errorf("item %s: duplicate id", it.ID)
		}
		seen[it.ID] = struct{}{}
	}
	sw := make(map[string]struct{}, len(l.Switches))
	for _, s := range l.Switches {
		if s.ID == "" {
			return fmt.Errorf("switch list: empty id")
		}
		if _, dup := sw[s.ID]; dup {
			return fmt.Errorf("switch %s: duplicate id", s.ID)
		}
		sw[s.ID] = struct{}{}
	}
	return nil
}

// UnmarshalJSON accepts the canonical field names and the legacy aliases
// described in the package documentation.
func (it *Item) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          json.RawMessage   `json:"id"`
		Part        *string           `json:"part"`
		PartName    *string           `json:"partName"`
		PartNumber  *string           `json:"part_number"`
		X           *float64          `json:"x"`
		Y           *float64          `json:"y"`
		XNorm       *float64          `json:"x_norm"`
		YNorm       *float64          `json:"y_norm"`
		RotationDeg *float64          `json:"rotation_deg"`
		RotDeg      *float64          `json:"rotationDeg"`
		Rotation    *float64          `json:"rotation"`
		Connections []json.RawMessage `json:"connections"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id, err := decodeID(raw.ID)
	if err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*it = Item{
		ID:       id,
		Part:     firstString(raw.Part, raw.PartName, raw.PartNumber),
		X:        firstFloat(raw.X, raw.XNorm),
		Y:        firstFloat(raw.Y, raw.YNorm),
		Rotation: firstFloat(raw.RotationDeg, raw.RotDeg, raw.Rotation),
	}
	for _, c := range raw.Connections {
		cid, err := decodeID(c)
		if err != nil {
			return fmt.Errorf("item %s connection: %w", id, err)
		}
		if cid != "" {
			it.Connections = append(it.Connections, cid)
		}
	}
	return nil
}

// UnmarshalJSON accepts string or numeric ids.
func (s *SwitchEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID   json.RawMessage `json:"id"`
		Name string          `json:"name"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, err := decodeID(raw.ID)
	if err != nil {
		return fmt.Errorf("switch id: %w", err)
	}
	*s = SwitchEntry{ID: id, Name: raw.Name}
	return nil
}

// decodeID turns a JSON string or number into its string form. Null and a
// missing value decode to "".
func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("want string or number, got %s", raw)
	}
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10), nil
	}
	return n.String(), nil
}

func firstString(vals ...*string) string {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return ""
}

func firstFloat(vals ...*float64) float64 {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return 0
}
