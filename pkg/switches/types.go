package switches

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Channel is a servo channel that may be unassigned. The zero value is
// unassigned.
type Channel struct {
	n   int
	set bool
}

// NoChannel is the unassigned channel.
var NoChannel = Channel{}

// ChannelOf returns an assigned channel.
func ChannelOf(n int) Channel { return Channel{n: n, set: true} }

// Get returns the channel number and whether one is assigned.
func (c Channel) Get() (int, bool) { return c.n, c.set }

// IsSet reports whether a channel is assigned.
func (c Channel) IsSet() bool { return c.set }

func (c Channel) String() string {
	if !c.set {
		return "none"
	}
	return strconv.Itoa(c.n)
}

// MarshalJSON encodes an unassigned channel as null.
func (c Channel) MarshalJSON() ([]byte, error) {
	if !c.set {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(c.n)), nil
}

// UnmarshalJSON accepts null, an integer, or a numeric string. An empty
// string decodes as unassigned.
func (c *Channel) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		*c = NoChannel
		return nil
	}
	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		s = string(data)
	}
	ch, err := ParseChannel(s)
	if err != nil {
		return err
	}
	*c = ch
	return nil
}

// ParseChannel parses operator input. Blank input and "none" mean
// unassigned.
func ParseChannel(s string) (Channel, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") {
		return NoChannel, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return NoChannel, fmt.Errorf("channel %q is not an integer", s)
	}
	return ChannelOf(n), nil
}

// Position is the confirmed mechanical position of a switch.
type Position int

const (
	Unknown   Position = -1
	Straight  Position = 0
	Diverging Position = 1
)

func (p Position) String() string {
	switch p {
	case Straight:
		return "straight"
	case Diverging:
		return "diverging"
	default:
		return "unknown"
	}
}

// Valid reports whether p is Straight or Diverging.
func (p Position) Valid() bool { return p == Straight || p == Diverging }

// Other returns the opposite position. Unknown stays Unknown.
func (p Position) Other() Position {
	switch p {
	case Straight:
		return Diverging
	case Diverging:
		return Straight
	default:
		return Unknown
	}
}

// ParsePosition accepts 0/1 and the names used by older controllers
// ("straight", "turnout", "diverging").
func ParsePosition(s string) (Position, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "straight":
		return Straight, nil
	case "1", "diverging", "turnout":
		return Diverging, nil
	}
	return Unknown, fmt.Errorf("invalid position %q", s)
}

// MarshalJSON encodes Straight and Diverging as 0 and 1, Unknown as null.
func (p Position) MarshalJSON() ([]byte, error) {
	if !p.Valid() {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(int(p))), nil
}

// UnmarshalJSON accepts 0, 1, null, or a position name.
func (p *Position) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		*p = Unknown
		return nil
	}
	s := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	}
	v, err := ParsePosition(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Interaction is the UI-facing state of a switch.
type Interaction int

const (
	Idle Interaction = iota
	Toggling
	Error
)

func (i Interaction) String() string {
	switch i {
	case Idle:
		return "idle"
	case Toggling:
		return "toggling"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("Interaction(%d)", int(i))
	}
}

// Config is the calibration of one switch, owned by the remote controller.
type Config struct {
	ID       string  `json:"id"`
	Channel  Channel `json:"channel"`
	Angle0   float64 `json:"angle0"`
	Angle1   float64 `json:"angle1"`
	UserName string  `json:"userName,omitempty"`
	Hidden   bool    `json:"hidden,omitempty"`
}

// Default calibration for a switch the controller has never seen.
const (
	DefaultChannel = 0
	DefaultAngle0  = 65.0
	DefaultAngle1  = 105.0
)

// Auto-calibration sweeps the servo between these angles and stores them
// as the straight and diverging angles.
const (
	SweepAngle0 = 58.0
	SweepAngle1 = 100.0
)

// DefaultConfig returns the calibration offered for a switch with no
// stored config.
func DefaultConfig(id string) Config {
	return Config{ID: id, Channel: ChannelOf(DefaultChannel), Angle0: DefaultAngle0, Angle1: DefaultAngle1}
}

// Angle returns the servo angle for p.
func (c Config) Angle(p Position) float64 {
	if p == Diverging {
		return c.Angle1
	}
	return c.Angle0
}

// UnmarshalJSON accepts angles as numbers or numeric strings, as sent by
// form-based clients.
func (c *Config) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       json.RawMessage `json:"id"`
		Channel  Channel         `json:"channel"`
		Angle0   flexFloat       `json:"angle0"`
		Angle1   flexFloat       `json:"angle1"`
		UserName string          `json:"userName"`
		Hidden   bool            `json:"hidden"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, err := decodeID(raw.ID)
	if err != nil {
		return err
	}
	*c = Config{
		ID:       id,
		Channel:  raw.Channel,
		Angle0:   float64(raw.Angle0),
		Angle1:   float64(raw.Angle1),
		UserName: raw.UserName,
		Hidden:   raw.Hidden,
	}
	return nil
}

type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q", s)
	}
	*f = flexFloat(v)
	return nil
}

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
		return "", fmt.Errorf("id: want string or number, got %s", raw)
	}
	return n.String(), nil
}

// State is the runtime view of one switch. It is rebuilt every session and
// never persisted.
type State struct {
	ID          string
	Name        string // layout name
	UserName    string // operator-assigned name from the config
	Hidden      bool   // config asks for the switch to stay out of views
	Position    Position
	Interaction Interaction
	Configured  bool
	Err         error // last failure, set while Interaction is Error
}

// DisplayName prefers the operator-assigned name over the layout name.
func (s State) DisplayName() string {
	if s.UserName != "" {
		return s.UserName
	}
	return s.Name
}
