package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"

	"github.com/matzehuels/switchyard/pkg/layout"
	"github.com/matzehuels/switchyard/pkg/parts"
	"github.com/matzehuels/switchyard/pkg/simulator"
	"github.com/matzehuels/switchyard/pkg/switches"
)

// testLayout has one configured switch ("1"), one uncalibrated switch
// ("3") and a straight track piece.
func testLayout() *layout.Layout {
	return &layout.Layout{Items: []layout.Item{
		{ID: "1", Part: "2861 Left Switch", X: 10, Y: 10},
		{ID: "2", Part: "2865 Straight", X: 50, Y: 10},
		{ID: "3", Part: "2859 Right Switch", X: 90, Y: 10, Rotation: 90},
	}}
}

// newSimCLI starts a simulator and returns a CLI pointed at it with the
// catalog cache disabled.
func newSimCLI(t *testing.T) (*CLI, simulator.Store) {
	t.Helper()
	store := simulator.NewMemoryStore()
	err := store.Put(context.Background(), simulator.Record{
		Config:   switches.Config{ID: "1", Channel: switches.ChannelOf(3), Angle0: 60, Angle1: 100, UserName: "Yard entry"},
		Position: switches.Straight,
	})
	if err != nil {
		t.Fatal(err)
	}

	srv := simulator.New(testLayout(), simulator.Options{
		Store: store,
		Parts: map[string]string{"TB 2861 Left Switch": "https://img.example/2861.png"},
		Geometry: map[string]parts.Geometry{
			"2861 left switch": {Width: 40, Height: 20, OriginX: 20, OriginY: 10, HasOrigin: true},
		},
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	c := New(&bytes.Buffer{}, LogInfo)
	c.cfg.Controller.URL = ts.URL + "/api"
	c.flags.noCache = true
	return c, store
}

// hideSwitch stores an uncalibrated config for id with hidden set.
func hideSwitch(t *testing.T, store simulator.Store, id string) {
	t.Helper()
	err := store.Put(context.Background(), simulator.Record{
		Config:   switches.Config{ID: id, Channel: switches.NoChannel, Hidden: true},
		Position: switches.Unknown,
	})
	if err != nil {
		t.Fatal(err)
	}
}
