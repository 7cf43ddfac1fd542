package layout

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReadJSONCanonical(t *testing.T) {
	in := `{
	  "items": [
	    {"id": 12, "part": "2861 Left Switch", "x": 10, "y": 10, "rotation_deg": 90, "connections": [13, "14"]},
	    {"id": "13", "part": "TB 2865 Straight", "x": 42, "y": 10}
	  ],
	  "switches": [{"id": 12, "name": "Yard entry"}]
	}`

	l, err := ReadJSON(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}

	want := &Layout{
		Items: []Item{
			{ID: "12", Part: "2861 Left Switch", X: 10, Y: 10, Rotation: 90, Connections: []string{"13", "14"}},
			{ID: "13", Part: "TB 2865 Straight", X: 42, Y: 10},
		},
		Switches: []SwitchEntry{{ID: "12", Name: "Yard entry"}},
	}
	if diff := cmp.Diff(want, l); diff != "" {
		t.Errorf("ReadJSON mismatch (-want +got):\n%s", diff)
	}
}

func TestReadJSONAliases(t *testing.T) {
	in := `{"items": [
	  {"id": 1, "partName": "Points Left", "x_norm": 3.5, "y_norm": 4, "rotation": 45},
	  {"id": 2, "part_number": "2859", "x": 1, "y": 2}
	]}`

	l, err := ReadJSON(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got := l.Items[0]; got.Part != "Points Left" || got.X != 3.5 || got.Y != 4 || got.Rotation != 45 {
		t.Errorf("alias item = %+v", got)
	}
	if got := l.Items[1].Part; got != "2859" {
		t.Errorf("part_number alias = %q", got)
	}
	if len(l.Switches) != 0 {
		t.Errorf("switches = %v, want none", l.Switches)
	}
}

func TestReadJSONRotationNames(t *testing.T) {
	tests := []struct {
		name string
		item string
		want float64
	}{
		{"rotation_deg", `{"id": "a", "rotation_deg": 90}`, 90},
		{"rotationDeg", `{"id": "a", "partName": "2861 Left Switch", "x": 10, "y": 10, "rotationDeg": 90}`, 90},
		{"rotation", `{"id": "a", "rotation": 45}`, 45},
		{"canonical wins", `{"id": "a", "rotation_deg": 30, "rotationDeg": 60, "rotation": 90}`, 30},
		{"absent", `{"id": "a"}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := ReadJSON(strings.NewReader(`{"items": [` + tt.item + `]}`))
			if err != nil {
				t.Fatalf("ReadJSON: %v", err)
			}
			if got := l.Items[0].Rotation; got != tt.want {
				t.Errorf("Rotation = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReadJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"malformed", `{"items": [`},
		{"duplicate id", `{"items": [{"id": 1}, {"id": "1"}]}`},
		{"missing id", `{"items": [{"part": "2861"}]}`},
		{"bad id type", `{"items": [{"id": true}]}`},
		{"duplicate switch", `{"items": [], "switches": [{"id": 1}, {"id": 1}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadJSON(strings.NewReader(tt.in)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	l := &Layout{
		Items:    []Item{{ID: "a", Part: "2861", X: 1, Y: 2, Rotation: 180}},
		Switches: []SwitchEntry{{ID: "a"}},
	}
	path := filepath.Join(t.TempDir(), "layout.json")
	if err := ExportJSON(l, path); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	got, err := ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if diff := cmp.Diff(l, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	var buf bytes.Buffer
	_ = WriteJSON(l, &buf)
	if !strings.Contains(buf.String(), `"rotation_deg": 180`) {
		t.Errorf("WriteJSON should use canonical names:\n%s", buf.String())
	}
}

func TestLayoutItem(t *testing.T) {
	l := &Layout{Items: []Item{{ID: "7", Part: "2861"}}}
	if it, ok := l.Item("7"); !ok || it.Part != "2861" {
		t.Errorf("Item(7) = %+v, %v", it, ok)
	}
	if _, ok := l.Item("8"); ok {
		t.Error("Item(8) should be absent")
	}
}
