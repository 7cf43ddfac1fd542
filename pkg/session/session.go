// Package session assembles an operator session: the layout, the part
// catalog, the resolved switch list, the built scene, and the switch
// controller that drives it.
//
// A Session is constructed once per load and handed to whatever presents
// it (CLI, console). Nothing in this module keeps layout or switch state in
// package variables. Refreshing means calling [Session.Reload], which
// builds a new Session from scratch.
//
// Loading fetches the layout and the catalog concurrently. Either failing
// is fatal and reported as LOAD_FAILED. A failed switch config fetch is
// not: the session loads, every switch starts in the Error state, and the
// cause is kept in ConfigErr.
package session

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/switchyard/pkg/errors"
	"github.com/matzehuels/switchyard/pkg/layout"
	"github.com/matzehuels/switchyard/pkg/observability"
	"github.com/matzehuels/switchyard/pkg/parts"
	"github.com/matzehuels/switchyard/pkg/scene"
	"github.com/matzehuels/switchyard/pkg/switches"
	"github.com/matzehuels/switchyard/pkg/viewport"
)

// Remote is everything a session needs from the controller.
type Remote interface {
	switches.Remote
	parts.Source
	Layout(ctx context.Context) (*layout.Layout, error)
}

// Options configures Load.
type Options struct {
	Classifier       *switches.Classifier // default switches.DefaultClassifier
	DefaultFootprint float64              // default scene.DefaultFootprint
	Source           string               // controller label for hooks and logs
	Logger           *log.Logger
}

func (o *Options) setDefaults() {
	if o.Classifier == nil {
		o.Classifier = switches.DefaultClassifier()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Session is one loaded view of the layout.
type Session struct {
	ID         string
	LoadedAt   time.Time
	Layout     *layout.Layout
	Catalog    *parts.Catalog
	Switches   []layout.SwitchEntry
	Nodes      []scene.Node
	Controller *switches.Controller
	ConfigErr  error // switch config fetch failure, if any

	remote Remote
	opts   Options
}

// Load fetches everything and builds the scene.
func Load(ctx context.Context, remote Remote, opts Options) (_ *Session, err error) {
	opts.setDefaults()
	hooks := observability.Session()
	hooks.OnLoadStart(ctx, opts.Source)
	start := time.Now()

	var s *Session
	defer func() {
		nodes, sw := 0, 0
		if s != nil {
			nodes, sw = len(s.Nodes), len(s.Switches)
		}
		hooks.OnLoadComplete(ctx, opts.Source, nodes, sw, time.Since(start), err)
	}()

	var (
		l   *layout.Layout
		cat *parts.Catalog
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if l, err = remote.Layout(gctx); err != nil {
			return fmt.Errorf("layout: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if cat, err = parts.Load(gctx, remote); err != nil {
			return fmt.Errorf("catalog: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeLoadFailed, err, "load session")
	}

	entries := opts.Classifier.Resolve(l)
	known := switches.IDSet(l.Switches)
	nodes := scene.Build(l.Items, cat, scene.Options{
		DefaultFootprint: opts.DefaultFootprint,
		Classify: func(it layout.Item) bool {
			return opts.Classifier.IsSwitch(it, known)
		},
	})

	ctl := switches.NewController(remote, entries, nil, switches.Options{Logger: opts.Logger})
	cfgErr := ctl.RefreshConfigs(ctx)

	s = &Session{
		ID:         uuid.NewString(),
		LoadedAt:   time.Now(),
		Layout:     l,
		Catalog:    cat,
		Switches:   entries,
		Nodes:      nodes,
		Controller: ctl,
		ConfigErr:  cfgErr,
		remote:     remote,
		opts:       opts,
	}
	images, geometry := cat.Len()
	opts.Logger.Info("session loaded",
		"items", len(l.Items),
		"switches", len(entries),
		"images", images,
		"geometry", geometry,
		"missing", s.Stats().Missing,
		"duration", time.Since(start))
	return s, nil
}

// Reload builds a fresh session with the same remote and options. The
// receiver is left untouched.
func (s *Session) Reload(ctx context.Context) (*Session, error) {
	return Load(ctx, s.remote, s.opts)
}

// Fit computes the viewport transform for the current scene.
func (s *Session) Fit(width, height, padding float64) viewport.Transform {
	return viewport.Fit(s.Nodes, width, height, padding)
}

// Node returns the scene node built from item id.
func (s *Session) Node(id string) (scene.Node, bool) {
	for _, n := range s.Nodes {
		if n.SourceItemID == id {
			return n, true
		}
	}
	return scene.Node{}, false
}

// Stats summarizes a session.
type Stats struct {
	Items      int
	Switches   int
	Configured int
	Missing    int // nodes drawn with the fallback footprint
}

// Stats counts items, switches and fallback nodes.
func (s *Session) Stats() Stats {
	st := Stats{Items: len(s.Nodes), Switches: len(s.Switches)}
	for _, n := range s.Nodes {
		if n.Missing {
			st.Missing++
		}
	}
	for _, state := range s.Controller.States() {
		if state.Configured {
			st.Configured++
		}
	}
	return st
}
