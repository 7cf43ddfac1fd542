package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/switchyard/pkg/errors"
	"github.com/matzehuels/switchyard/pkg/layout"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty defaults to svg", "", []string{"svg"}},
		{"single format", "svg", []string{"svg"}},
		{"multiple formats", "svg,pdf,png", []string{"svg", "pdf", "png"}},
		{"spaces and case", " SVG , json ", []string{"svg", "json"}},
		{"trailing comma", "json,", []string{"json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFormats(tt.input)
			if len(got) != len(tt.want) {
				t.Errorf("parseFormats(%q) length = %d, want %d", tt.input, len(got), len(tt.want))
				return
			}
			for i, v := range got {
				if v != tt.want[i] {
					t.Errorf("parseFormats(%q)[%d] = %q, want %q", tt.input, i, v, tt.want[i])
				}
			}
		})
	}
}

func TestValidateFormats(t *testing.T) {
	tests := []struct {
		name    string
		formats []string
		wantErr bool
	}{
		{"valid svg", []string{"svg"}, false},
		{"valid pdf", []string{"pdf"}, false},
		{"valid png", []string{"png"}, false},
		{"valid json", []string{"json"}, false},
		{"valid all", []string{"svg", "pdf", "png", "json"}, false},
		{"dot is topology only", []string{"dot"}, true},
		{"invalid format", []string{"invalid"}, true},
		{"mixed valid invalid", []string{"svg", "invalid"}, true},
		{"empty slice", []string{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFormats(tt.formats, sceneFormats)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateFormats(%v) error = %v, wantErr %v", tt.formats, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("validateFormats(%v) code = %v", tt.formats, errors.GetCode(err))
			}
		})
	}
}

func TestRenderFromController(t *testing.T) {
	c, _ := newSimCLI(t)
	dir := t.TempDir()

	var out bytes.Buffer
	cmd := c.renderCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"-o", filepath.Join(dir, "yard"), "-f", "svg,json", "--labels"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("render: %v", err)
	}

	svg, err := os.ReadFile(filepath.Join(dir, "yard.svg"))
	if err != nil {
		t.Fatalf("read svg: %v", err)
	}
	for _, want := range []string{`id="item-1"`, `id="item-2"`, `id="item-3"`, "https://img.example/2861.png", ">Yard entry</text>"} {
		if !bytes.Contains(svg, []byte(want)) {
			t.Errorf("svg missing %q", want)
		}
	}

	raw, err := os.ReadFile(filepath.Join(dir, "yard.json"))
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	var doc struct {
		Source string `json:"source"`
		Nodes  []struct {
			ID     string `json:"id"`
			Switch *struct {
				Configured bool `json:"configured"`
			} `json:"switch"`
		} `json:"nodes"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if len(doc.Nodes) != 3 {
		t.Fatalf("nodes = %d, want 3", len(doc.Nodes))
	}
	configured := map[string]bool{}
	for _, n := range doc.Nodes {
		if n.Switch != nil {
			configured[n.ID] = n.Switch.Configured
		}
	}
	if !configured["1"] || configured["3"] {
		t.Errorf("configured = %v, want 1 configured and 3 not", configured)
	}
	if _, ok := configured["2"]; ok {
		t.Error("straight track rendered as a switch")
	}

	if !strings.Contains(out.String(), "yard.svg") || !strings.Contains(out.String(), "yard.json") {
		t.Errorf("output does not list written files: %q", out.String())
	}
}

func TestRenderLayoutFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "layout.json")
	if err := layout.ExportJSON(testLayout(), in); err != nil {
		t.Fatal(err)
	}

	c := New(&bytes.Buffer{}, LogInfo)
	c.cfg.Controller.URL = "http://127.0.0.1:1/api" // never contacted

	cmd := c.renderCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--layout", in, "-o", filepath.Join(dir, "out", "offline.svg")})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("render: %v", err)
	}

	svg, err := os.ReadFile(filepath.Join(dir, "out", "offline.svg"))
	if err != nil {
		t.Fatalf("read svg: %v", err)
	}
	if n := bytes.Count(svg, []byte(`class="part missing"`)); n != 3 {
		t.Errorf("fallback parts = %d, want 3", n)
	}
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	c := New(&bytes.Buffer{}, LogInfo)
	cmd := c.renderCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"-f", "gif"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for gif")
	}
}

func TestRenderHiddenSwitch(t *testing.T) {
	c, store := newSimCLI(t)
	hideSwitch(t, store, "3")
	dir := t.TempDir()

	render := func(args ...string) string {
		t.Helper()
		cmd := c.renderCommand()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs(append([]string{"-o", filepath.Join(dir, "yard")}, args...))
		if err := cmd.Execute(); err != nil {
			t.Fatalf("render: %v", err)
		}
		svg, err := os.ReadFile(filepath.Join(dir, "yard.svg"))
		if err != nil {
			t.Fatalf("read svg: %v", err)
		}
		return string(svg)
	}

	svg := render()
	if strings.Contains(svg, `data-switch="3"`) || !strings.Contains(svg, `data-switch="1"`) {
		t.Errorf("default render should skip only the hidden switch:\n%s", svg)
	}
	if svg := render("--all"); !strings.Contains(svg, `data-switch="3"`) {
		t.Errorf("--all should draw the hidden switch:\n%s", svg)
	}
}
