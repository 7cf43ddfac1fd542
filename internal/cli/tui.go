package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/switchyard/pkg/errors"
	"github.com/matzehuels/switchyard/pkg/session"
	"github.com/matzehuels/switchyard/pkg/switches"
)

// List styles
var (
	listDimStyle   = lipgloss.NewStyle().Foreground(colorDim)
	formLabelStyle = lipgloss.NewStyle().Foreground(colorGray).Width(10)
	formFocusStyle = lipgloss.NewStyle().Foreground(colorCyan).Bold(true).Width(10)
	formBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
)

// consoleCommand runs the interactive operator console.
func (c *CLI) consoleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Interactive console to toggle and calibrate switches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.loadSessionWithSpinner(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			p := tea.NewProgram(newConsoleModel(ctx, s), tea.WithAltScreen(), tea.WithContext(ctx))
			_, err = p.Run()
			return err
		},
	}
}

// =============================================================================
// Messages
// =============================================================================

// Intents emitted by key handling. They carry no results; the model turns
// them into commands against the switch controller.
type (
	toggleRequestedMsg   struct{ id string }
	calibrationOpenedMsg struct {
		cal *switches.Calibration
		err error
	}
)

// Results of controller commands.
type (
	toggleDoneMsg struct {
		id  string
		pos switches.Position
		err error
	}
	commitDoneMsg struct {
		cfg switches.Config
		err error
	}
	testDoneMsg struct {
		pos switches.Position
		err error
	}
	angleSetMsg struct {
		angle float64
		err   error
	}
	autoCalibratedMsg struct {
		cfg switches.Config
		err error
	}
	reloadedMsg struct {
		sess *session.Session
		err  error
	}
)

// =============================================================================
// consoleModel - switch list
// =============================================================================

// consoleModel is the bubbletea model of the operator console.
type consoleModel struct {
	ctx     context.Context
	sess    *session.Session
	cursor  int
	offset  int
	height  int
	form    *calibrationForm
	status  string
	failed  bool
	loading bool
	all     bool // list switches marked hidden
}

func newConsoleModel(ctx context.Context, s *session.Session) consoleModel {
	m := consoleModel{ctx: ctx, sess: s, height: 15}
	if s.ConfigErr != nil {
		m.setStatus(true, "switch configs unavailable: %s", errors.UserMessage(s.ConfigErr))
	}
	return m
}

func (m consoleModel) Init() tea.Cmd {
	return nil
}

func (m *consoleModel) setStatus(failed bool, format string, args ...any) {
	m.status, m.failed = fmt.Sprintf(format, args...), failed
}

// visible returns the listed switches in load order.
func (m consoleModel) visible() []switches.State {
	states := m.sess.Controller.States()
	if m.all {
		return states
	}
	out := states[:0]
	for _, st := range states {
		if !st.Hidden {
			out = append(out, st)
		}
	}
	return out
}

// selected returns the id under the cursor.
func (m consoleModel) selected() (string, bool) {
	states := m.visible()
	if m.cursor < 0 || m.cursor >= len(states) {
		return "", false
	}
	return states[m.cursor].ID, true
}

func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-10, 5)
		return m, nil

	case toggleRequestedMsg:
		m.setStatus(false, "toggling %s…", msg.id)
		return m, toggleCmd(m.ctx, m.sess.Controller, msg.id)

	case toggleDoneMsg:
		if msg.err != nil {
			m.setStatus(true, "%s: %s", msg.id, errors.UserMessage(msg.err))
		} else {
			m.setStatus(false, "%s is now %s", msg.id, msg.pos)
		}
		return m, nil

	case calibrationOpenedMsg:
		if msg.err != nil {
			m.setStatus(true, "%s", errors.UserMessage(msg.err))
			return m, nil
		}
		form := newCalibrationForm(msg.cal)
		m.form = &form
		m.setStatus(false, "calibrating %s", msg.cal.SwitchID())
		return m, textinput.Blink

	case commitDoneMsg:
		if m.form == nil {
			return m, nil
		}
		if msg.err != nil {
			// the session stays open with the draft intact
			m.form.err = errors.UserMessage(msg.err)
			return m, nil
		}
		id := m.form.cal.SwitchID()
		m.form = nil
		m.setStatus(false, "calibrated %s on channel %s", id, msg.cfg.Channel)
		return m, nil

	case testDoneMsg:
		if m.form == nil {
			return m, nil
		}
		if msg.err != nil {
			m.form.err = errors.UserMessage(msg.err)
		} else {
			m.form.err = ""
			m.form.note = "moved servo to " + msg.pos.String()
		}
		return m, nil

	case angleSetMsg:
		if m.form == nil {
			return m, nil
		}
		if msg.err != nil {
			m.form.err = errors.UserMessage(msg.err)
		} else {
			m.form.err = ""
			m.form.note = fmt.Sprintf("moved servo to %g°", msg.angle)
		}
		return m, nil

	case autoCalibratedMsg:
		if m.form == nil {
			return m, nil
		}
		if msg.err != nil {
			m.form.err = errors.UserMessage(msg.err)
			return m, nil
		}
		m.form.load(msg.cfg)
		m.form.err = ""
		m.form.note = fmt.Sprintf("auto-calibrated: %g° / %g°", msg.cfg.Angle0, msg.cfg.Angle1)
		return m, nil

	case reloadedMsg:
		m.loading = false
		if msg.err != nil {
			m.setStatus(true, "reload failed: %s", errors.UserMessage(msg.err))
			return m, nil
		}
		m.sess = msg.sess
		m.cursor, m.offset = 0, 0
		m.setStatus(false, "reloaded %d switches", len(msg.sess.Switches))
		return m, nil

	case tea.KeyMsg:
		if m.form != nil {
			return m.updateForm(msg)
		}
		return m.updateList(msg)
	}

	if m.form != nil {
		var cmd tea.Cmd
		*m.form, cmd = m.form.update(msg)
		return m, cmd
	}
	return m, nil
}

func (m consoleModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.visible())
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			if m.cursor < m.offset {
				m.offset = m.cursor
			}
		}
	case "down", "j":
		if m.cursor < n-1 {
			m.cursor++
			if m.cursor >= m.offset+m.height {
				m.offset = m.cursor - m.height + 1
			}
		}
	case "enter", " ":
		if id, ok := m.selected(); ok {
			return m, func() tea.Msg { return toggleRequestedMsg{id: id} }
		}
	case "c":
		if id, ok := m.selected(); ok {
			return m, openCalibrationCmd(m.ctx, m.sess.Controller, id)
		}
	case "a":
		m.all = !m.all
		m.cursor, m.offset = 0, 0
		if m.all {
			m.setStatus(false, "showing hidden switches")
		} else {
			m.setStatus(false, "hiding hidden switches")
		}
	case "r":
		if !m.loading {
			m.loading = true
			m.setStatus(false, "reloading…")
			return m, reloadCmd(m.ctx, m.sess)
		}
	}
	return m, nil
}

func (m consoleModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form
	switch msg.String() {
	case "ctrl+c":
		f.cal.Cancel()
		return m, tea.Quit
	case "esc":
		f.cal.Cancel()
		m.form = nil
		m.setStatus(false, "calibration cancelled")
		return m, nil
	case "enter":
		if err := f.apply(); err != nil {
			f.err = errors.UserMessage(err)
			return m, nil
		}
		f.err, f.note = "", "committing…"
		return m, commitCmd(m.ctx, f.cal)
	case "ctrl+s":
		return m, testCmd(m.ctx, f.cal, switches.Straight)
	case "ctrl+d":
		return m, testCmd(m.ctx, f.cal, switches.Diverging)
	case "ctrl+g":
		field := switches.Fields[f.focused]
		if field != switches.FieldAngle0 && field != switches.FieldAngle1 {
			f.err = "focus an angle field to move the servo"
			return m, nil
		}
		if err := f.apply(); err != nil {
			f.err = errors.UserMessage(err)
			return m, nil
		}
		angle := f.cal.Draft().Angle0
		if field == switches.FieldAngle1 {
			angle = f.cal.Draft().Angle1
		}
		return m, setAngleCmd(m.ctx, f.cal, angle)
	case "ctrl+a":
		f.err, f.note = "", "sweeping…"
		return m, autoCalibrateCmd(m.ctx, f.cal)
	case "tab", "down":
		return m, f.focus(f.focused + 1)
	case "shift+tab", "up":
		return m, f.focus(f.focused - 1)
	}
	var cmd tea.Cmd
	*m.form, cmd = f.update(msg)
	return m, cmd
}

func (m consoleModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Switchyard"))
	b.WriteString("  ")
	b.WriteString(listDimStyle.Render(m.sess.Controller.String()))
	b.WriteString("\n")
	if m.form != nil {
		b.WriteString(listDimStyle.Render("tab next field  ⏎ commit  ctrl+s/ctrl+d test straight/diverging  ctrl+g move to angle  ctrl+a auto  esc cancel"))
	} else {
		b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ toggle  c calibrate  a all  r reload  q quit"))
	}
	b.WriteString("\n\n")

	if m.form != nil {
		b.WriteString(m.form.view())
	} else {
		b.WriteString(m.listView())
	}
	b.WriteString("\n\n")

	if m.status != "" {
		if m.failed {
			b.WriteString(styleIconError.Render(iconError) + " " + m.status)
		} else {
			b.WriteString(styleIconInfo.Render(iconInfo) + " " + m.status)
		}
	}
	return b.String()
}

func (m consoleModel) listView() string {
	states := m.visible()
	if len(states) == 0 {
		return listDimStyle.Render("  no switches to show")
	}
	end := min(m.offset+m.height, len(states))

	rows := [][]string{}
	for i := m.offset; i < end; i++ {
		st := states[i]
		cfg, _ := m.sess.Controller.Config(st.ID)
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, st.ID, st.DisplayName(), cfg.Channel.String(), stateText(st)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "ID", "Name", "Ch", "State").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if m.offset+row == m.cursor && col != 4 {
				return lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
			}
			return lipgloss.NewStyle()
		})

	return t.Render() + "\n" + listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(states)))
}

// =============================================================================
// calibrationForm - draft editor
// =============================================================================

// calibrationForm edits one calibration draft, one text input per field.
type calibrationForm struct {
	cal     *switches.Calibration
	inputs  []textinput.Model
	focused int
	err     string
	note    string
}

func newCalibrationForm(cal *switches.Calibration) calibrationForm {
	draft := cal.Draft()
	f := calibrationForm{cal: cal, inputs: make([]textinput.Model, len(switches.Fields))}
	for i, field := range switches.Fields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 64
		ti.Width = 24
		ti.Placeholder = field.String()
		ti.SetValue(draft.Value(field))
		f.inputs[i] = ti
	}
	f.inputs[0].Focus()
	return f
}

// load replaces the channel and angle inputs with cfg.
func (f *calibrationForm) load(cfg switches.Config) {
	d := switches.Draft{Channel: cfg.Channel, Angle0: cfg.Angle0, Angle1: cfg.Angle1}
	for i, field := range switches.Fields {
		switch field {
		case switches.FieldChannel, switches.FieldAngle0, switches.FieldAngle1:
			f.inputs[i].SetValue(d.Value(field))
		}
	}
}

// focus moves focus to input i, wrapping around.
func (f *calibrationForm) focus(i int) tea.Cmd {
	n := len(f.inputs)
	f.inputs[f.focused].Blur()
	f.focused = ((i % n) + n) % n
	return f.inputs[f.focused].Focus()
}

func (f calibrationForm) update(msg tea.Msg) (calibrationForm, tea.Cmd) {
	var cmd tea.Cmd
	f.inputs[f.focused], cmd = f.inputs[f.focused].Update(msg)
	return f, cmd
}

// apply writes every input into the draft, stopping at the first field
// that does not parse.
func (f *calibrationForm) apply() error {
	for i, field := range switches.Fields {
		if err := f.cal.Update(field, f.inputs[i].Value()); err != nil {
			f.focus(i)
			return err
		}
	}
	return nil
}

func (f calibrationForm) view() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render("Calibrate " + f.cal.SwitchID()))
	b.WriteString("\n\n")
	for i, field := range switches.Fields {
		label := formLabelStyle
		if i == f.focused {
			label = formFocusStyle
		}
		b.WriteString(label.Render(field.String()))
		b.WriteString(f.inputs[i].View())
		b.WriteString("\n")
	}
	switch {
	case f.err != "":
		b.WriteString("\n" + styleIconError.Render(iconError) + " " + f.err)
	case f.note != "":
		b.WriteString("\n" + StyleDim.Render(f.note))
	}
	return formBoxStyle.Render(b.String())
}

// =============================================================================
// Commands
// =============================================================================

func toggleCmd(ctx context.Context, ctl *switches.Controller, id string) tea.Cmd {
	return func() tea.Msg {
		pos, err := ctl.Toggle(ctx, id)
		return toggleDoneMsg{id: id, pos: pos, err: err}
	}
}

func openCalibrationCmd(ctx context.Context, ctl *switches.Controller, id string) tea.Cmd {
	return func() tea.Msg {
		cal, err := ctl.OpenCalibration(ctx, id)
		return calibrationOpenedMsg{cal: cal, err: err}
	}
}

func commitCmd(ctx context.Context, cal *switches.Calibration) tea.Cmd {
	return func() tea.Msg {
		cfg, err := cal.Commit(ctx)
		return commitDoneMsg{cfg: cfg, err: err}
	}
}

func testCmd(ctx context.Context, cal *switches.Calibration, pos switches.Position) tea.Cmd {
	return func() tea.Msg {
		return testDoneMsg{pos: pos, err: cal.TestPosition(ctx, pos)}
	}
}

func setAngleCmd(ctx context.Context, cal *switches.Calibration, angle float64) tea.Cmd {
	return func() tea.Msg {
		return angleSetMsg{angle: angle, err: cal.SetAngle(ctx, angle)}
	}
}

func autoCalibrateCmd(ctx context.Context, cal *switches.Calibration) tea.Cmd {
	return func() tea.Msg {
		cfg, err := cal.AutoCalibrate(ctx)
		return autoCalibratedMsg{cfg: cfg, err: err}
	}
}

func reloadCmd(ctx context.Context, s *session.Session) tea.Cmd {
	return func() tea.Msg {
		next, err := s.Reload(ctx)
		return reloadedMsg{sess: next, err: err}
	}
}
