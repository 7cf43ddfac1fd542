package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/switchyard/pkg/errors"
	"github.com/matzehuels/switchyard/pkg/session"
	"github.com/matzehuels/switchyard/pkg/switches"
)

// switchesCommand lists every switch with its state and calibration.
func (c *CLI) switchesCommand() *cobra.Command {
	var showHidden bool

	cmd := &cobra.Command{
		Use:     "switches",
		Aliases: []string{"ls"},
		Short:   "List switches with their state and calibration",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.loadSessionWithSpinner(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if s.ConfigErr != nil {
				printWarning(out, "Switch configs unavailable: %s", errors.UserMessage(s.ConfigErr))
			}
			renderSwitchTable(out, s.Controller, showHidden)

			st := s.Stats()
			printStats(out,
				statCount{st.Switches, "switches"},
				statCount{st.Configured, "configured"},
				statCount{st.Missing, "parts without geometry"})
			return nil
		},
	}

	cmd.Flags().BoolVar(&showHidden, "all", false, "include switches marked hidden")
	return cmd
}

// renderSwitchTable prints one row per switch in load order.
func renderSwitchTable(w io.Writer, ctl *switches.Controller, showHidden bool) {
	var rows [][]string
	for _, st := range ctl.States() {
		cfg, _ := ctl.Config(st.ID)
		if st.Hidden && !showHidden {
			continue
		}
		angles := "-"
		if st.Configured {
			angles = fmt.Sprintf("%g / %g", cfg.Angle0, cfg.Angle1)
		}
		rows = append(rows, []string{st.ID, st.DisplayName(), cfg.Channel.String(), angles, stateText(st)})
	}
	if len(rows) == 0 {
		printInfo(w, "No switches in layout")
		return
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Name", "Channel", "Angles", "State").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	fmt.Fprintln(w, t)
}

// toggleCommand flips one switch.
func (c *CLI) toggleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <switch-id>",
		Short: "Flip a switch between straight and diverging",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if err := errors.ValidateSwitchID(id); err != nil {
				return err
			}
			ctx := cmd.Context()
			s, err := c.loadSessionWithSpinner(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			spinner := newSpinner(ctx, cmd.ErrOrStderr(), "Toggling "+id+"...")
			spinner.Start()
			pos, err := s.Controller.Toggle(ctx, id)
			spinner.Stop()
			if err != nil {
				return toggleError(id, err)
			}

			st, _ := s.Controller.State(id)
			printSuccess(cmd.OutOrStdout(), "%s is now %s", st.DisplayName(), pos)
			return nil
		},
	}
}

// toggleError adds operator guidance to the failures they can act on.
func toggleError(id string, err error) error {
	switch errors.GetCode(err) {
	case errors.ErrCodeNotConfigured:
		return fmt.Errorf("%s (run: %s calibrate %s --channel N)", errors.UserMessage(err), appName, id)
	case errors.ErrCodeUnknownSwitch:
		return fmt.Errorf("%s (run: %s switches)", errors.UserMessage(err), appName)
	}
	return err
}

// calibrateOpts holds the field flags of the calibrate command.
type calibrateOpts struct {
	channel string
	angle0  string
	angle1  string
	name    string
	hidden  string
	test    string  // position to move to after committing
	angle   float64 // move the servo to this angle instead of committing
	auto    bool    // sweep and store the default angles instead of committing
}

// calibrateCommand edits and commits one switch's calibration.
func (c *CLI) calibrateCommand() *cobra.Command {
	var opts calibrateOpts

	cmd := &cobra.Command{
		Use:   "calibrate <switch-id>",
		Short: "Set a switch's servo channel, angles and name",
		Long: `Open a calibration session for a switch, apply the given fields over its
stored calibration, and commit the result to the controller. Fields that are
not given keep their current value. The controller validates the commit and
its message is shown verbatim on rejection.

With --test the servo is moved to the given position after the commit.

With --angle the servo is moved to an arbitrary angle and nothing is
committed. The session's channel (--channel, else the stored or default
one) is sent along and stored as the switch's channel.
With --auto the controller sweeps the servo and stores its default angles
on the switch's stored channel.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if err := errors.ValidateSwitchID(id); err != nil {
				return err
			}
			ctx := cmd.Context()
			s, err := c.loadSessionWithSpinner(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return runCalibrate(ctx, cmd.OutOrStdout(), s, id, cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.channel, "channel", "", "servo channel (0-15)")
	f.StringVar(&opts.angle0, "angle0", "", "servo angle for straight")
	f.StringVar(&opts.angle1, "angle1", "", "servo angle for diverging")
	f.StringVar(&opts.name, "name", "", "display name")
	f.StringVar(&opts.hidden, "hidden", "", "hide the switch from listings (true/false)")
	f.StringVar(&opts.test, "test", "", "move the servo to straight or diverging after committing")
	f.Float64Var(&opts.angle, "angle", 0, "move the servo to this angle without committing")
	f.BoolVar(&opts.auto, "auto", false, "sweep the servo and store the default angles")
	cmd.MarkFlagsMutuallyExclusive("angle", "auto")
	return cmd
}

func runCalibrate(ctx context.Context, out io.Writer, s *session.Session, id string, cmd *cobra.Command, opts calibrateOpts) error {
	moveOnly, auto := cmd.Flags().Changed("angle"), opts.auto
	if moveOnly || auto {
		allowed := map[string]bool{"channel": moveOnly}
		for _, name := range []string{"channel", "angle0", "angle1", "name", "hidden", "test"} {
			if cmd.Flags().Changed(name) && !allowed[name] {
				return errors.New(errors.ErrCodeInvalidInput, "--%s cannot be combined with --angle or --auto", name)
			}
		}
	}

	testPos := switches.Unknown
	if opts.test != "" {
		p, err := switches.ParsePosition(opts.test)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "--test")
		}
		testPos = p
	}

	cal, err := s.Controller.OpenCalibration(ctx, id)
	if err != nil {
		return err
	}
	defer cal.Cancel()

	fields := []struct {
		flag  string
		field switches.Field
		value string
	}{
		{"channel", switches.FieldChannel, opts.channel},
		{"angle0", switches.FieldAngle0, opts.angle0},
		{"angle1", switches.FieldAngle1, opts.angle1},
		{"name", switches.FieldUserName, opts.name},
		{"hidden", switches.FieldHidden, opts.hidden},
	}
	for _, fl := range fields {
		if !cmd.Flags().Changed(fl.flag) {
			continue
		}
		if err := cal.Update(fl.field, fl.value); err != nil {
			return err
		}
	}

	switch {
	case moveOnly:
		if err := cal.SetAngle(ctx, opts.angle); err != nil {
			return err
		}
		printSuccess(out, "Moved servo of %s to %s°", id, strconv.FormatFloat(opts.angle, 'f', -1, 64))
		return nil
	case auto:
		spinner := newSpinner(ctx, cmd.ErrOrStderr(), "Sweeping servo of "+id+"...")
		spinner.Start()
		cfg, err := cal.AutoCalibrate(ctx)
		spinner.Stop()
		if err != nil {
			if errors.Is(err, errors.ErrCodeValidation) {
				return fmt.Errorf("controller rejected auto-calibration: %s (run: %s calibrate %s --channel N)", errors.UserMessage(err), appName, id)
			}
			return err
		}
		printSuccess(out, "Auto-calibrated %s", id)
		printCalibration(out, cfg)
		return nil
	}

	cfg, err := cal.Commit(ctx)
	if err != nil {
		if errors.Is(err, errors.ErrCodeValidation) {
			return fmt.Errorf("controller rejected calibration: %s", errors.UserMessage(err))
		}
		return err
	}

	printSuccess(out, "Calibrated %s", id)
	printCalibration(out, cfg)

	if testPos.Valid() {
		if err := testServo(ctx, s, id, testPos); err != nil {
			return err
		}
		printInfo(out, "Moved servo to %s", testPos)
	}
	return nil
}

func printCalibration(out io.Writer, cfg switches.Config) {
	printKeyValue(out, "Channel", cfg.Channel.String())
	printKeyValue(out, "Straight", strconv.FormatFloat(cfg.Angle0, 'f', -1, 64))
	printKeyValue(out, "Diverging", strconv.FormatFloat(cfg.Angle1, 'f', -1, 64))
	if cfg.UserName != "" {
		printKeyValue(out, "Name", cfg.UserName)
	}
}

// testServo opens a fresh session to move the servo after a commit closed
// the previous one.
func testServo(ctx context.Context, s *session.Session, id string, pos switches.Position) error {
	cal, err := s.Controller.OpenCalibration(ctx, id)
	if err != nil {
		return err
	}
	defer cal.Cancel()
	return cal.TestPosition(ctx, pos)
}

// loadSessionWithSpinner loads a session while showing a spinner on w.
func (c *CLI) loadSessionWithSpinner(ctx context.Context, w io.Writer) (*session.Session, error) {
	spinner := newSpinner(ctx, w, "Loading layout from "+c.cfg.Controller.URL+"...")
	spinner.Start()
	s, err := c.loadSession(ctx)
	spinner.Stop()
	if err != nil {
		return nil, err
	}
	return s, nil
}
