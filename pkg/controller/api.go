package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/matzehuels/switchyard/pkg/errors"
	"github.com/matzehuels/switchyard/pkg/layout"
	"github.com/matzehuels/switchyard/pkg/parts"
	"github.com/matzehuels/switchyard/pkg/switches"
)

// Layout fetches the layout. It is never cached.
func (c *Client) Layout(ctx context.Context) (*layout.Layout, error) {
	var l layout.Layout
	if err := c.getJSON(ctx, &l, "layout"); err != nil {
		return nil, err
	}
	if err := l.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "layout")
	}
	return &l, nil
}

// Parts fetches the part image catalog.
func (c *Client) Parts(ctx context.Context) (map[string]string, error) {
	var out map[string]string
	if err := c.cached(ctx, "parts", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PartGeometry fetches the part geometry catalog. Controllers without
// geometry answer 404, reported as NOT_FOUND.
func (c *Client) PartGeometry(ctx context.Context) (map[string]parts.Geometry, error) {
	var out map[string]parts.Geometry
	if err := c.cached(ctx, "part_geometry", &out); err != nil {
		return nil, err
	}
	return out, nil
}

type switchConfigResponse struct {
	Switches map[string]switches.Config `json:"switches"`
}

// SwitchConfigs fetches the calibration of every switch, keyed by id.
func (c *Client) SwitchConfigs(ctx context.Context) (map[string]switches.Config, error) {
	var resp switchConfigResponse
	if err := c.getJSON(ctx, &resp, "switch_config"); err != nil {
		return nil, err
	}
	for id, cfg := range resp.Switches {
		cfg.ID = id
		resp.Switches[id] = cfg
	}
	if resp.Switches == nil {
		resp.Switches = map[string]switches.Config{}
	}
	return resp.Switches, nil
}

type toggleResponse struct {
	State switches.Position `json:"state"`
}

// Toggle flips switch id and returns the position the controller reports.
// It is sent exactly once.
func (c *Client) Toggle(ctx context.Context, id string) (switches.Position, error) {
	if err := errors.ValidateSwitchID(id); err != nil {
		return switches.Unknown, err
	}
	raw, err := c.do(ctx, http.MethodGet, c.endpoint("switch", id, "toggle"), nil)
	if err != nil {
		return switches.Unknown, err
	}
	resp := toggleResponse{State: switches.Unknown}
	if err := decode(raw, &resp, "toggle"); err != nil {
		return switches.Unknown, err
	}
	if !resp.State.Valid() {
		return switches.Unknown, errors.New(errors.ErrCodeInvalidFormat, "toggle %s: response carries no state", id)
	}
	return resp.State, nil
}

// UpdateSwitchConfig commits a calibration. Any non-2xx response whose body
// carries a message is returned as VALIDATION with that message verbatim;
// other failures keep their transport code. The stored config is returned
// when the controller echoes it, otherwise nil.
func (c *Client) UpdateSwitchConfig(ctx context.Context, cfg switches.Config) (*switches.Config, error) {
	if err := errors.ValidateSwitchID(cfg.ID); err != nil {
		return nil, err
	}
	raw, err := c.command(ctx, http.MethodPost, c.endpoint("update_switch_config"), cfg)
	if err != nil {
		return nil, err
	}
	return echoedConfig(raw, cfg.ID), nil
}

// command sends a state-changing request once. Any non-2xx response whose
// body carries a message becomes VALIDATION with that message verbatim;
// other failures keep their transport code.
func (c *Client) command(ctx context.Context, method string, u *url.URL, body any) ([]byte, error) {
	code, raw, err := c.send(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	if code >= 200 && code < 300 {
		return raw, nil
	}
	if msg, ok := bodyMessage(raw); ok {
		return nil, errors.Verbatim(errors.ErrCodeValidation, msg)
	}
	err = checkStatus(code, raw, u.Path)
	if errors.Is(err, errors.ErrCodeRemote) {
		return nil, errors.Verbatim(errors.ErrCodeValidation, errors.UserMessage(err))
	}
	return nil, err
}

// echoedConfig returns the config in a commit response, or nil when the
// body is empty or only an acknowledgement such as {"ok": true}.
func echoedConfig(raw []byte, id string) *switches.Config {
	var fields map[string]json.RawMessage
	if json.Unmarshal(raw, &fields) != nil {
		return nil
	}
	if nested, ok := fields["config"]; ok {
		raw = nested
		fields = nil
		if json.Unmarshal(raw, &fields) != nil {
			return nil
		}
	}
	if _, ok := fields["channel"]; !ok {
		return nil
	}
	var out switches.Config
	if json.Unmarshal(raw, &out) != nil {
		return nil
	}
	out.ID = id
	return &out
}

type testServoRequest struct {
	ID    string            `json:"id"`
	State switches.Position `json:"state"`
}

// TestServo moves the servo of switch id to pos using the stored
// calibration. It is sent exactly once.
func (c *Client) TestServo(ctx context.Context, id string, pos switches.Position) error {
	if err := errors.ValidateSwitchID(id); err != nil {
		return err
	}
	_, err := c.do(ctx, http.MethodPost, c.endpoint("test_servo"), testServoRequest{ID: id, State: pos})
	return err
}

type setAngleRequest struct {
	Angle   float64 `json:"angle"`
	ServoID *int    `json:"servo_id,omitempty"`
}

// SetAngle moves the servo of switch id to angle. A set ch is sent as the
// servo channel and the controller stores it for the switch. It is sent
// exactly once.
func (c *Client) SetAngle(ctx context.Context, id string, angle float64, ch switches.Channel) error {
	if err := errors.ValidateSwitchID(id); err != nil {
		return err
	}
	req := setAngleRequest{Angle: angle}
	if n, ok := ch.Get(); ok {
		req.ServoID = &n
	}
	_, err := c.command(ctx, http.MethodPost, c.endpoint("switch", id, "set_angle"), req)
	return err
}

// AutoCalibrate has the controller sweep the servo of switch id and store
// the sweep angles. Older controllers answer a missing channel with
// {"error": ...} and status 200; that is reported as VALIDATION too.
func (c *Client) AutoCalibrate(ctx context.Context, id string) (*switches.Config, error) {
	if err := errors.ValidateSwitchID(id); err != nil {
		return nil, err
	}
	raw, err := c.command(ctx, http.MethodGet, c.endpoint("switch", id, "auto_calibrate"), nil)
	if err != nil {
		return nil, err
	}
	if cfg := echoedConfig(raw, id); cfg != nil {
		return cfg, nil
	}
	if msg, ok := bodyMessage(raw); ok {
		return nil, errors.Verbatim(errors.ErrCodeValidation, msg)
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "auto-calibrate %s: response carries no config", id)
}

var (
	_ switches.Remote = (*Client)(nil)
	_ parts.Source    = (*Client)(nil)
)
