package switches

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/matzehuels/switchyard/pkg/errors"
	"github.com/matzehuels/switchyard/pkg/observability"
)

// Draft is the editable copy of a switch config held by a calibration
// session.
type Draft struct {
	SwitchID string
	Channel  Channel
	Angle0   float64
	Angle1   float64
	UserName string
	Hidden   bool
}

// Config converts the draft into the wire config.
func (d Draft) Config() Config {
	return Config{
		ID:       d.SwitchID,
		Channel:  d.Channel,
		Angle0:   d.Angle0,
		Angle1:   d.Angle1,
		UserName: d.UserName,
		Hidden:   d.Hidden,
	}
}

func draftOf(cfg Config) Draft {
	return Draft{
		SwitchID: cfg.ID,
		Channel:  cfg.Channel,
		Angle0:   cfg.Angle0,
		Angle1:   cfg.Angle1,
		UserName: cfg.UserName,
		Hidden:   cfg.Hidden,
	}
}

// Field names an editable draft field.
type Field int

const (
	FieldChannel Field = iota
	FieldAngle0
	FieldAngle1
	FieldUserName
	FieldHidden
)

// Fields lists the editable fields in form order.
var Fields = []Field{FieldChannel, FieldAngle0, FieldAngle1, FieldUserName, FieldHidden}

func (f Field) String() string {
	switch f {
	case FieldChannel:
		return "channel"
	case FieldAngle0:
		return "angle0"
	case FieldAngle1:
		return "angle1"
	case FieldUserName:
		return "name"
	case FieldHidden:
		return "hidden"
	default:
		return "field(" + strconv.Itoa(int(f)) + ")"
	}
}

// Value renders the current draft value of f for editing.
func (d Draft) Value(f Field) string {
	switch f {
	case FieldChannel:
		if n, ok := d.Channel.Get(); ok {
			return strconv.Itoa(n)
		}
		return ""
	case FieldAngle0:
		return strconv.FormatFloat(d.Angle0, 'f', -1, 64)
	case FieldAngle1:
		return strconv.FormatFloat(d.Angle1, 'f', -1, 64)
	case FieldUserName:
		return d.UserName
	case FieldHidden:
		return strconv.FormatBool(d.Hidden)
	}
	return ""
}

// Calibration is an open editing session for one switch.
type Calibration struct {
	ctl *Controller
	id  string

	mu     sync.Mutex
	draft  Draft
	closed bool
}

// OpenCalibration starts a calibration session for switch id. The draft is
// seeded from the controller's stored config, falling back to the live
// cached config and then to [DefaultConfig]. Unconfigured switches can be
// calibrated. Only one session per switch may be open.
func (c *Controller) OpenCalibration(ctx context.Context, id string) (*Calibration, error) {
	c.mu.Lock()
	e, ok := c.switches[id]
	if !ok {
		c.mu.Unlock()
		return nil, errors.New(errors.ErrCodeUnknownSwitch, "unknown switch %q", id)
	}
	if e.calibrating {
		c.mu.Unlock()
		return nil, errors.New(errors.ErrCodeBusy, "switch %s is already being calibrated", id)
	}
	e.calibrating = true
	var live *Config
	if e.cfg != nil {
		cp := *e.cfg
		live = &cp
	}
	c.mu.Unlock()

	seed := DefaultConfig(id)
	configs, err := c.remote.SwitchConfigs(ctx)
	switch {
	case err == nil && hasConfig(configs, id):
		seed = configs[id]
	case live != nil:
		seed = *live
	}
	if err != nil {
		c.logger.Warn("calibration: using cached config", "id", id, "err", err)
	}
	seed.ID = id

	c.logger.Debug("calibration opened", "id", id)
	return &Calibration{ctl: c, id: id, draft: draftOf(seed)}, nil
}

func hasConfig(configs map[string]Config, id string) bool {
	_, ok := configs[id]
	return ok
}

// SwitchID returns the switch being calibrated.
func (s *Calibration) SwitchID() string { return s.id }

// Draft returns a copy of the current draft.
func (s *Calibration) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Closed reports whether the session was committed or cancelled.
func (s *Calibration) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Update parses raw into field f of the draft. Only syntax is checked;
// range and uniqueness are the remote controller's decision at commit.
func (s *Calibration) Update(f Field, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New(errors.ErrCodeSessionClosed, "calibration for %s is closed", s.id)
	}

	raw = strings.TrimSpace(raw)
	switch f {
	case FieldChannel:
		ch, err := ParseChannel(raw)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "channel")
		}
		s.draft.Channel = ch
	case FieldAngle0, FieldAngle1:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return errors.New(errors.ErrCodeInvalidInput, "%s: %q is not a number", f, raw)
		}
		if f == FieldAngle0 {
			s.draft.Angle0 = v
		} else {
			s.draft.Angle1 = v
		}
	case FieldUserName:
		s.draft.UserName = raw
	case FieldHidden:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return errors.New(errors.ErrCodeInvalidInput, "hidden: %q is not a boolean", raw)
		}
		s.draft.Hidden = v
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown field %s", f)
	}
	return nil
}

// Commit sends the draft to the remote controller. On success the live
// config is replaced and the session closes. On failure nothing changes:
// the session stays open with the draft intact, and a rejection is
// returned as VALIDATION carrying the controller's message.
func (s *Calibration) Commit(ctx context.Context) (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Config{}, errors.New(errors.ErrCodeSessionClosed, "calibration for %s is closed", s.id)
	}

	c := s.ctl
	c.mu.Lock()
	e := c.switches[s.id]
	switch {
	case e.interaction == Toggling:
		c.mu.Unlock()
		return Config{}, errors.New(errors.ErrCodeBusy, "switch %s is toggling; commit after it settles", s.id)
	case e.committing:
		c.mu.Unlock()
		return Config{}, errors.New(errors.ErrCodeBusy, "switch %s already has a commit in flight", s.id)
	}
	e.committing = true
	c.mu.Unlock()

	sent := s.draft.Config()
	stored, err := c.remote.UpdateSwitchConfig(ctx, sent)
	observability.Switch().OnCalibrationCommit(ctx, s.id, err)

	c.mu.Lock()
	defer c.mu.Unlock()
	e.committing = false
	if err != nil {
		c.logger.Warn("calibration commit failed", "id", s.id, "err", err)
		return Config{}, err
	}

	live := sent
	if stored != nil {
		live = *stored
	}
	live.ID = s.id
	e.cfg = &live
	if e.configErr {
		e.interaction, e.err, e.configErr = Idle, nil, false
	}
	e.calibrating = false
	s.closed = true
	c.logger.Info("calibration committed", "id", s.id, "channel", live.Channel, "angle0", live.Angle0, "angle1", live.Angle1)
	return live, nil
}

// Cancel discards the draft without contacting the remote controller.
// Cancelling a closed session is a no-op.
func (s *Calibration) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.ctl.mu.Lock()
	s.ctl.switches[s.id].calibrating = false
	s.ctl.mu.Unlock()
	s.ctl.logger.Debug("calibration cancelled", "id", s.id)
}

// TestPosition asks the remote controller to move the servo of this switch
// to pos, using the controller's stored calibration.
func (s *Calibration) TestPosition(ctx context.Context, pos Position) error {
	if s.Closed() {
		return errors.New(errors.ErrCodeSessionClosed, "calibration for %s is closed", s.id)
	}
	if !pos.Valid() {
		return errors.New(errors.ErrCodeInvalidInput, "invalid test position %d", int(pos))
	}
	return s.ctl.remote.TestServo(ctx, s.id, pos)
}

// SetAngle moves the servo of this switch to an arbitrary angle. When the
// draft has a channel it is sent along and the controller stores it as the
// switch's channel.
func (s *Calibration) SetAngle(ctx context.Context, angle float64) error {
	s.mu.Lock()
	closed, ch := s.closed, s.draft.Channel
	s.mu.Unlock()
	if closed {
		return errors.New(errors.ErrCodeSessionClosed, "calibration for %s is closed", s.id)
	}
	if err := errors.ValidateAngle(angle); err != nil {
		return err
	}
	if n, ok := ch.Get(); ok {
		if err := errors.ValidateChannel(n); err != nil {
			return err
		}
	}
	return s.ctl.remote.SetAngle(ctx, s.id, angle, ch)
}

// AutoCalibrate asks the controller to sweep the servo and store the sweep
// angles. The draft and the live config take the stored result; the
// session stays open for fine tuning. The servo rests at the diverging
// angle afterwards.
func (s *Calibration) AutoCalibrate(ctx context.Context) (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Config{}, errors.New(errors.ErrCodeSessionClosed, "calibration for %s is closed", s.id)
	}

	c := s.ctl
	c.mu.Lock()
	e := c.switches[s.id]
	if e.interaction == Toggling || e.committing {
		c.mu.Unlock()
		return Config{}, errors.New(errors.ErrCodeBusy, "switch %s is busy; auto-calibrate after it settles", s.id)
	}
	e.committing = true
	c.mu.Unlock()

	stored, err := c.remote.AutoCalibrate(ctx, s.id)

	c.mu.Lock()
	defer c.mu.Unlock()
	e.committing = false
	if err != nil {
		c.logger.Warn("auto-calibration failed", "id", s.id, "err", err)
		return Config{}, err
	}
	if stored == nil {
		return Config{}, errors.New(errors.ErrCodeInvalidFormat, "auto-calibrate %s: response carries no config", s.id)
	}

	live := *stored
	live.ID = s.id
	e.cfg = &live
	e.position = Diverging
	if e.configErr {
		e.interaction, e.err, e.configErr = Idle, nil, false
	}
	s.draft.Channel, s.draft.Angle0, s.draft.Angle1 = live.Channel, live.Angle0, live.Angle1
	c.logger.Info("auto-calibrated", "id", s.id, "channel", live.Channel, "angle0", live.Angle0, "angle1", live.Angle1)
	return live, nil
}
