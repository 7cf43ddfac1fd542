package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/switchyard/pkg/errors"
	"github.com/matzehuels/switchyard/pkg/layout"
	"github.com/matzehuels/switchyard/pkg/observability"
	"github.com/matzehuels/switchyard/pkg/parts"
	"github.com/matzehuels/switchyard/pkg/switches"
)

type fakeRemote struct {
	layout    *layout.Layout
	layoutErr error
	parts     map[string]string
	geometry  map[string]parts.Geometry
	geoErr    error
	configs   map[string]switches.Config
	cfgErr    error
}

func (f *fakeRemote) Layout(context.Context) (*layout.Layout, error) { return f.layout, f.layoutErr }
func (f *fakeRemote) Parts(context.Context) (map[string]string, error) {
	return f.parts, nil
}
func (f *fakeRemote) PartGeometry(context.Context) (map[string]parts.Geometry, error) {
	return f.geometry, f.geoErr
}
func (f *fakeRemote) SwitchConfigs(context.Context) (map[string]switches.Config, error) {
	return f.configs, f.cfgErr
}
func (f *fakeRemote) Toggle(context.Context, string) (switches.Position, error) {
	return switches.Diverging, nil
}
func (f *fakeRemote) UpdateSwitchConfig(context.Context, switches.Config) (*switches.Config, error) {
	return nil, nil
}
func (f *fakeRemote) TestServo(context.Context, string, switches.Position) error { return nil }
func (f *fakeRemote) SetAngle(context.Context, string, float64, switches.Channel) error {
	return nil
}
func (f *fakeRemote) AutoCalibrate(context.Context, string) (*switches.Config, error) {
	return nil, nil
}

func sampleRemote() *fakeRemote {
	return &fakeRemote{
		layout: &layout.Layout{Items: []layout.Item{
			{ID: "1", Part: "2861 Left Switch", X: 10, Y: 10},
			{ID: "2", Part: "2865 Straight", X: 50, Y: 10},
			{ID: "3", Part: "Unknown Bridge", X: 90, Y: 10},
		}},
		parts: map[string]string{"2861 LEFT SWITCH": "/img/2861.gif"},
		geometry: map[string]parts.Geometry{
			"2861 Left Switch": {Width: 32, Height: 16},
			"2865 Straight":    {Width: 32, Height: 8},
		},
		configs: map[string]switches.Config{"1": {Channel: switches.ChannelOf(0), Angle0: 60, Angle1: 100}},
	}
}

func TestLoad(t *testing.T) {
	s, err := Load(context.Background(), sampleRemote(), Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.ID == "" {
		t.Error("session id should be set")
	}
	if len(s.Nodes) != 3 {
		t.Fatalf("nodes = %d", len(s.Nodes))
	}
	if !s.Nodes[0].IsSwitch || s.Nodes[1].IsSwitch {
		t.Error("switch flags mismatch")
	}
	if len(s.Switches) != 1 || s.Switches[0].ID != "1" {
		t.Errorf("switches = %v", s.Switches)
	}
	want := Stats{Items: 3, Switches: 1, Configured: 1, Missing: 1}
	if got := s.Stats(); got != want {
		t.Errorf("Stats = %+v, want %+v", got, want)
	}
	if n, ok := s.Node("3"); !ok || !n.Missing {
		t.Errorf("Node(3) = %+v, %v", n, ok)
	}
	if tr := s.Fit(800, 600, 20); tr.Scale <= 0 {
		t.Errorf("Fit = %+v", tr)
	}
}

func TestLoadBackendSwitchListWins(t *testing.T) {
	r := sampleRemote()
	r.layout.Switches = []layout.SwitchEntry{{ID: "2", Name: "Siding"}}
	s, err := Load(context.Background(), r, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if s.Nodes[0].IsSwitch || !s.Nodes[1].IsSwitch {
		t.Error("backend list should decide switch flags")
	}
	if _, ok := s.Controller.State("1"); ok {
		t.Error("heuristic match must not get runtime state when a backend list exists")
	}
}

func TestLoadFailures(t *testing.T) {
	r := sampleRemote()
	r.layoutErr = errors.New(errors.ErrCodeNetwork, "down")
	if _, err := Load(context.Background(), r, Options{}); !errors.Is(err, errors.ErrCodeLoadFailed) {
		t.Errorf("layout failure = %v, want LOAD_FAILED", err)
	}

	r = sampleRemote()
	r.geoErr = errors.New(errors.ErrCodeNotFound, "no geometry")
	s, err := Load(context.Background(), r, Options{})
	if err != nil {
		t.Fatalf("missing geometry should not fail: %v", err)
	}
	if s.Stats().Missing != 3 {
		t.Errorf("all nodes should fall back, stats = %+v", s.Stats())
	}
}

func TestLoadConfigFailureIsNotFatal(t *testing.T) {
	r := sampleRemote()
	r.cfgErr = errors.New(errors.ErrCodeNetwork, "down")
	s, err := Load(context.Background(), r, Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.ConfigErr == nil {
		t.Error("ConfigErr should be recorded")
	}
	st, _ := s.Controller.State("1")
	if st.Interaction != switches.Error {
		t.Errorf("interaction = %v, want Error", st.Interaction)
	}
}

func TestReloadBuildsNewSession(t *testing.T) {
	r := sampleRemote()
	s, _ := Load(context.Background(), r, Options{})
	r.layout = &layout.Layout{Items: []layout.Item{{ID: "9", Part: "Points"}}}

	s2, err := s.Reload(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if s2.ID == s.ID || len(s2.Nodes) != 1 || len(s.Nodes) != 3 {
		t.Error("Reload should build a separate session and leave the old one intact")
	}
}

type recordingHooks struct {
	observability.NoopSessionHooks
	mu    sync.Mutex
	nodes int
	err   error
	calls int
}

func (h *recordingHooks) OnLoadComplete(_ context.Context, _ string, nodes, _ int, _ time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	h.nodes, h.err = nodes, err
}

func TestLoadHooks(t *testing.T) {
	h := &recordingHooks{}
	observability.SetSessionHooks(h)
	t.Cleanup(observability.Reset)

	_, _ = Load(context.Background(), sampleRemote(), Options{})
	if h.calls != 1 || h.nodes != 3 || h.err != nil {
		t.Errorf("hooks = %+v", h)
	}
}
