package switches

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/switchyard/pkg/errors"
	"github.com/matzehuels/switchyard/pkg/layout"
	"github.com/matzehuels/switchyard/pkg/observability"
)

// Remote is the slice of the controller API used by the state machines.
type Remote interface {
	Toggle(ctx context.Context, id string) (Position, error)
	SwitchConfigs(ctx context.Context) (map[string]Config, error)
	// UpdateSwitchConfig returns the stored config, or nil when the
	// controller acknowledged without a body.
	UpdateSwitchConfig(ctx context.Context, cfg Config) (*Config, error)
	TestServo(ctx context.Context, id string, pos Position) error
	// SetAngle moves the servo of switch id to angle. A set ch is stored
	// as the switch's channel first.
	SetAngle(ctx context.Context, id string, angle float64, ch Channel) error
	// AutoCalibrate sweeps the servo and stores the sweep angles,
	// returning the stored config.
	AutoCalibrate(ctx context.Context, id string) (*Config, error)
}

// Options configures a Controller.
type Options struct {
	Logger *log.Logger
}

// Controller owns the runtime state of every loaded switch. It is safe for
// concurrent use; remote calls are made without holding the lock.
type Controller struct {
	remote Remote
	logger *log.Logger

	mu       sync.Mutex
	order    []string
	switches map[string]*entry
}

type entry struct {
	name        string
	cfg         *Config
	position    Position
	interaction Interaction
	err         error
	configErr   bool // Error came from a config fetch, not a toggle
	committing  bool
	calibrating bool
}

// NewController creates a controller for the given switches. configs may be
// nil; entries without a config cannot be toggled until calibrated.
// Configs for ids not in entries are ignored.
func NewController(remote Remote, entries []layout.SwitchEntry, configs map[string]Config, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	c := &Controller{
		remote:   remote,
		logger:   opts.Logger,
		switches: make(map[string]*entry, len(entries)),
	}
	for _, e := range entries {
		if _, dup := c.switches[e.ID]; dup {
			continue
		}
		c.order = append(c.order, e.ID)
		c.switches[e.ID] = &entry{name: e.Name, position: Unknown}
	}
	c.applyConfigs(configs)
	return c
}

func (c *Controller) applyConfigs(configs map[string]Config) {
	for id, cfg := range configs {
		e, ok := c.switches[id]
		if !ok {
			continue
		}
		cfg.ID = id
		e.cfg = &cfg
	}
}

// RefreshConfigs fetches every switch config from the remote controller.
// On failure every switch that is not mid-toggle enters Error and keeps its
// previous config; the error is returned for reporting.
func (c *Controller) RefreshConfigs(ctx context.Context) error {
	configs, err := c.remote.SwitchConfigs(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		for _, e := range c.switches {
			if e.interaction == Toggling {
				continue
			}
			e.interaction, e.err, e.configErr = Error, err, true
		}
		c.logger.Warn("switch config fetch failed", "err", err)
		return err
	}
	c.applyConfigs(configs)
	for _, e := range c.switches {
		if e.configErr {
			e.interaction, e.err, e.configErr = Idle, nil, false
		}
	}
	c.logger.Debug("switch configs loaded", "count", len(configs))
	return nil
}

// Toggle asks the remote controller to flip switch id and returns the
// confirmed position. On failure the previous position is returned along
// with the error and the switch enters Error.
func (c *Controller) Toggle(ctx context.Context, id string) (Position, error) {
	hooks := observability.Switch()

	c.mu.Lock()
	e, ok := c.switches[id]
	if !ok {
		c.mu.Unlock()
		hooks.OnToggleRejected(ctx, id, string(errors.ErrCodeUnknownSwitch))
		return Unknown, errors.New(errors.ErrCodeUnknownSwitch, "unknown switch %q", id)
	}
	prev := e.position
	if err := e.toggleGuard(id); err != nil {
		c.mu.Unlock()
		hooks.OnToggleRejected(ctx, id, string(errors.GetCode(err)))
		c.logger.Debug("toggle rejected", "id", id, "reason", errors.GetCode(err))
		return prev, err
	}
	e.interaction, e.err, e.configErr = Toggling, nil, false
	c.mu.Unlock()

	hooks.OnToggleStart(ctx, id)
	start := time.Now()
	pos, err := c.remote.Toggle(ctx, id)
	if err == nil && !pos.Valid() {
		err = errors.New(errors.ErrCodeInternal, "controller reported invalid position %d", int(pos))
	}
	elapsed := time.Since(start)

	c.mu.Lock()
	if err != nil {
		e.interaction, e.err = Error, err
	} else {
		e.position, e.interaction = pos, Idle
	}
	c.mu.Unlock()

	if err != nil {
		hooks.OnToggleComplete(ctx, id, int(Unknown), elapsed, err)
		c.logger.Warn("toggle failed", "id", id, "err", err)
		return prev, err
	}
	hooks.OnToggleComplete(ctx, id, int(pos), elapsed, nil)
	c.logger.Info("toggled switch", "id", id, "position", pos, "duration", elapsed)
	return pos, nil
}

func (e *entry) toggleGuard(id string) error {
	switch {
	case e.interaction == Toggling:
		return errors.New(errors.ErrCodeBusy, "switch %s is already toggling", id)
	case e.committing:
		return errors.New(errors.ErrCodeBusy, "switch %s has a calibration commit in flight", id)
	case e.cfg == nil || !e.cfg.Channel.IsSet():
		return errors.New(errors.ErrCodeNotConfigured, "switch %s has no servo channel; calibrate it first", id)
	}
	return nil
}

// State returns the runtime state of switch id.
func (c *Controller) State(id string) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.switches[id]
	if !ok {
		return State{}, false
	}
	return e.state(id), true
}

// States returns every switch state in load order.
func (c *Controller) States() []State {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]State, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.switches[id].state(id))
	}
	return out
}

func (e *entry) state(id string) State {
	st := State{
		ID:          id,
		Name:        e.name,
		Position:    e.position,
		Interaction: e.interaction,
		Err:         e.err,
	}
	if e.cfg != nil {
		st.UserName, st.Hidden = e.cfg.UserName, e.cfg.Hidden
		st.Configured = e.cfg.Channel.IsSet()
	}
	return st
}

// Config returns a copy of the live config of switch id.
func (c *Controller) Config(id string) (Config, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.switches[id]
	if !ok || e.cfg == nil {
		return Config{}, false
	}
	return *e.cfg, true
}

// IDs returns the loaded switch ids in load order.
func (c *Controller) IDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.order...)
}

// String summarizes the controller for logs.
func (c *Controller) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	configured := 0
	for _, e := range c.switches {
		if e.cfg != nil && e.cfg.Channel.IsSet() {
			configured++
		}
	}
	return fmt.Sprintf("%d switches (%d configured)", len(c.order), configured)
}
