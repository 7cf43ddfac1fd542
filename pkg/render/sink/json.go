package sink

import (
	"encoding/json"

	"github.com/matzehuels/switchyard/pkg/scene"
	"github.com/matzehuels/switchyard/pkg/switches"
	"github.com/matzehuels/switchyard/pkg/viewport"
)

// JSONOption configures RenderJSON.
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	width, height, padding float64
	states                 []switches.State
	source                 string
}

// WithJSONSize fits the exported viewport transform to a w by h canvas.
func WithJSONSize(w, h float64) JSONOption {
	return func(r *jsonRenderer) { r.width, r.height = w, h }
}

// WithJSONPadding sets the fit padding.
func WithJSONPadding(p float64) JSONOption { return func(r *jsonRenderer) { r.padding = p } }

// WithJSONStates attaches switch states to switch nodes.
func WithJSONStates(states []switches.State) JSONOption {
	return func(r *jsonRenderer) { r.states = states }
}

// WithJSONSource records where the scene was loaded from.
func WithJSONSource(s string) JSONOption { return func(r *jsonRenderer) { r.source = s } }

type jsonOutput struct {
	Source    string             `json:"source,omitempty"`
	Width     float64            `json:"width"`
	Height    float64            `json:"height"`
	Transform viewport.Transform `json:"transform"`
	Nodes     []jsonNode         `json:"nodes"`
}

type jsonNode struct {
	ID       string     `json:"id"`
	Label    string     `json:"label"`
	Key      string     `json:"key"`
	X        float64    `json:"x"`
	Y        float64    `json:"y"`
	Rotation float64    `json:"rotation_deg"`
	Width    float64    `json:"width"`
	Height   float64    `json:"height"`
	OriginX  float64    `json:"origin_x"`
	OriginY  float64    `json:"origin_y"`
	Image    string     `json:"image,omitempty"`
	Missing  bool       `json:"missing,omitempty"`
	Switch   *jsonState `json:"switch,omitempty"`
}

type jsonState struct {
	Name        string            `json:"name,omitempty"`
	Position    switches.Position `json:"position"`
	Interaction string            `json:"interaction"`
	Configured  bool              `json:"configured"`
	Hidden      bool              `json:"hidden,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// RenderJSON exports the scene as a pretty-printed JSON document. Switch
// nodes always carry a "switch" object; without states it reports an
// unknown position.
func RenderJSON(nodes []scene.Node, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{width: DefaultWidth, height: DefaultHeight, padding: DefaultPadding}
	for _, opt := range opts {
		opt(&r)
	}
	byID := make(map[string]switches.State, len(r.states))
	for _, s := range r.states {
		byID[s.ID] = s
	}

	out := jsonOutput{
		Source:    r.source,
		Width:     r.width,
		Height:    r.height,
		Transform: viewport.Fit(nodes, r.width, r.height, r.padding),
		Nodes:     make([]jsonNode, 0, len(nodes)),
	}
	for _, n := range nodes {
		px, py := n.Geometry.Pivot()
		jn := jsonNode{
			ID:       n.SourceItemID,
			Label:    n.Label,
			Key:      n.ImageKey,
			X:        n.Transform.TX,
			Y:        n.Transform.TY,
			Rotation: n.Transform.Rotation,
			Width:    n.Geometry.Width,
			Height:   n.Geometry.Height,
			OriginX:  px,
			OriginY:  py,
			Image:    n.ImageURL,
			Missing:  n.Missing,
		}
		if n.IsSwitch {
			jn.Switch = buildJSONState(byID, n.SourceItemID)
		}
		out.Nodes = append(out.Nodes, jn)
	}
	return json.MarshalIndent(out, "", "  ")
}

func buildJSONState(states map[string]switches.State, id string) *jsonState {
	st, ok := states[id]
	if !ok {
		return &jsonState{Position: switches.Unknown, Interaction: switches.Idle.String()}
	}
	js := &jsonState{
		Name:        st.DisplayName(),
		Position:    st.Position,
		Interaction: st.Interaction.String(),
		Configured:  st.Configured,
		Hidden:      st.Hidden,
	}
	if st.Err != nil {
		js.Error = st.Err.Error()
	}
	return js
}
