package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/switchyard/pkg/switches"
)

func TestSwitchesList(t *testing.T) {
	c, _ := newSimCLI(t)

	var out bytes.Buffer
	cmd := c.switchesCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(nil)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("switches: %v", err)
	}

	got := out.String()
	for _, want := range []string{"Yard entry", "not configured", "2859 Right Switch"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "2865 Straight") {
		t.Errorf("straight track listed as a switch:\n%s", got)
	}
}

func TestSwitchesListHidden(t *testing.T) {
	c, store := newSimCLI(t)
	hideSwitch(t, store, "3")

	list := func(args ...string) string {
		t.Helper()
		var out bytes.Buffer
		cmd := c.switchesCommand()
		cmd.SetOut(&out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(args)
		if err := cmd.Execute(); err != nil {
			t.Fatalf("switches: %v", err)
		}
		return out.String()
	}

	if got := list(); strings.Contains(got, "2859 Right Switch") || !strings.Contains(got, "Yard entry") {
		t.Errorf("default list:\n%s", got)
	}
	if got := list("--all"); !strings.Contains(got, "2859 Right Switch") {
		t.Errorf("--all list:\n%s", got)
	}
}

func TestToggleCommand(t *testing.T) {
	c, store := newSimCLI(t)

	var out bytes.Buffer
	cmd := c.toggleCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"1"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !strings.Contains(out.String(), "Yard entry is now diverging") {
		t.Errorf("output = %q", out.String())
	}

	rec, ok, err := store.Get(context.Background(), "1")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if rec.Position != switches.Diverging {
		t.Errorf("stored position = %v, want diverging", rec.Position)
	}
}

func TestToggleCommandErrors(t *testing.T) {
	c, _ := newSimCLI(t)

	tests := []struct {
		name string
		id   string
		want string
	}{
		{"uncalibrated", "3", "calibrate 3"},
		{"unknown", "99", "switchyard switches"},
		{"bad id", "a/b", "invalid characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := c.toggleCommand()
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs([]string{tt.id})
			err := cmd.Execute()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestCalibrateCommand(t *testing.T) {
	c, store := newSimCLI(t)

	var out bytes.Buffer
	cmd := c.calibrateCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"3", "--channel", "5", "--angle0", "70", "--name", "Siding", "--test", "diverging"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("calibrate: %v", err)
	}

	rec, ok, err := store.Get(context.Background(), "3")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	ch, _ := rec.Config.Channel.Get()
	if ch != 5 || rec.Config.Angle0 != 70 || rec.Config.Angle1 != switches.DefaultAngle1 || rec.Config.UserName != "Siding" {
		t.Errorf("stored config = %+v", rec.Config)
	}
	if !strings.Contains(out.String(), "Moved servo to diverging") {
		t.Errorf("output = %q", out.String())
	}
}

func TestCalibrateAngle(t *testing.T) {
	c, store := newSimCLI(t)

	var out bytes.Buffer
	cmd := c.calibrateCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"3", "--channel", "5", "--angle", "72.5"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("calibrate --angle: %v", err)
	}
	if !strings.Contains(out.String(), "Moved servo of 3 to 72.5°") {
		t.Errorf("output = %q", out.String())
	}
	rec, ok, _ := store.Get(context.Background(), "3")
	if ch, _ := rec.Config.Channel.Get(); !ok || ch != 5 {
		t.Errorf("channel not assigned: %+v", rec.Config)
	}
	if rec.Config.Angle0 != switches.DefaultAngle0 {
		t.Errorf("--angle must not commit angles: %+v", rec.Config)
	}
}

func TestCalibrateAuto(t *testing.T) {
	c, store := newSimCLI(t)

	var out bytes.Buffer
	cmd := c.calibrateCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"1", "--auto"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("calibrate --auto: %v", err)
	}
	if !strings.Contains(out.String(), "Auto-calibrated 1") {
		t.Errorf("output = %q", out.String())
	}
	rec, _, _ := store.Get(context.Background(), "1")
	if rec.Config.Angle0 != switches.SweepAngle0 || rec.Config.Angle1 != switches.SweepAngle1 || rec.Config.UserName != "Yard entry" {
		t.Errorf("stored config = %+v", rec.Config)
	}
}

func TestCalibrateAngleAndAutoErrors(t *testing.T) {
	c, _ := newSimCLI(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"auto without channel", []string{"3", "--auto"}, "servo channel not assigned"},
		{"auto with field", []string{"1", "--auto", "--name", "x"}, "--name cannot be combined"},
		{"angle with angle0", []string{"1", "--angle", "70", "--angle0", "60"}, "--angle0 cannot be combined"},
		{"angle out of range", []string{"1", "--angle", "200"}, "out of range"},
		{"both", []string{"1", "--angle", "70", "--auto"}, "none of the others can be"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := c.calibrateCommand()
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs(tt.args)
			err := cmd.Execute()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestCalibrateRejected(t *testing.T) {
	c, _ := newSimCLI(t)

	// channel 3 already belongs to switch 1
	cmd := c.calibrateCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"3", "--channel", "3"})
	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected rejection")
	}
	if !strings.Contains(err.Error(), "controller rejected calibration") {
		t.Errorf("error = %q", err)
	}
}

func TestCalibrateBadField(t *testing.T) {
	c, _ := newSimCLI(t)

	cmd := c.calibrateCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"1", "--angle0", "wide"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected parse error")
	}
}
