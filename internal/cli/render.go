package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/switchyard/pkg/errors"
	"github.com/matzehuels/switchyard/pkg/layout"
	"github.com/matzehuels/switchyard/pkg/render/sink"
	"github.com/matzehuels/switchyard/pkg/scene"
	"github.com/matzehuels/switchyard/pkg/simulator"
	"github.com/matzehuels/switchyard/pkg/switches"
)

// Output formats.
const (
	formatSVG  = "svg"
	formatJSON = "json"
	formatPDF  = "pdf"
	formatPNG  = "png"
	formatDOT  = "dot"
)

var sceneFormats = []string{formatSVG, formatJSON, formatPDF, formatPNG}

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output     string   // output base path; extensions are added per format
	layoutFile string   // render a local .json/.bbm file instead of the controller
	formats    []string // svg, json, pdf, png
	width      float64
	height     float64
	padding    float64
	labels     bool
	all        bool    // draw indicators of hidden switches
	scale      float64 // PNG scale factor
}

// sceneInput is what the sinks need, independent of where it came from.
type sceneInput struct {
	nodes  []scene.Node
	states []switches.State
	source string
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{output: "layout", scale: 2}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the layout to SVG, JSON, PDF or PNG",
		Long: `Render the layout with every switch's current state.

By default the layout, part catalog and switch states are fetched from the
controller. With --layout a local JSON or BlueBrick (.bbm) file is drawn
instead; parts then use placeholder footprints and switch states are unknown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := validateFormats(opts.formats, sceneFormats); err != nil {
				return err
			}
			c.applyViewDefaults(cmd, &opts)

			ctx := cmd.Context()
			in, err := c.sceneFor(ctx, opts.layoutFile)
			if err != nil {
				return err
			}
			return writeScene(ctx, cmd.OutOrStdout(), in, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", opts.output, "output base path")
	f.StringVarP(&formatsStr, "format", "f", formatSVG, "comma-separated formats: svg, json, pdf, png")
	f.StringVarP(&opts.layoutFile, "layout", "l", "", "render a local layout file (.json or .bbm)")
	f.Float64Var(&opts.width, "width", 0, "canvas width (default from config)")
	f.Float64Var(&opts.height, "height", 0, "canvas height (default from config)")
	f.Float64Var(&opts.padding, "padding", 0, "fit padding (default from config)")
	f.BoolVar(&opts.labels, "labels", false, "print switch names under the indicators")
	f.BoolVar(&opts.all, "all", false, "include switches marked hidden")
	f.Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")

	return cmd
}

// applyViewDefaults fills unset canvas flags from config.
func (c *CLI) applyViewDefaults(cmd *cobra.Command, opts *renderOpts) {
	if !cmd.Flags().Changed("width") {
		opts.width = c.cfg.View.Width
	}
	if !cmd.Flags().Changed("height") {
		opts.height = c.cfg.View.Height
	}
	if !cmd.Flags().Changed("padding") {
		opts.padding = c.cfg.View.Padding
	}
}

// sceneFor loads the scene from a local file, or from the controller when
// path is empty.
func (c *CLI) sceneFor(ctx context.Context, path string) (sceneInput, error) {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	if path != "" {
		l, err := simulator.LoadLayoutFile(path)
		if err != nil {
			return sceneInput{}, errors.Wrap(errors.ErrCodeLoadFailed, err, "load %s", path)
		}
		cls := c.classifier()
		known := switches.IDSet(l.Switches)
		nodes := scene.Build(l.Items, nil, scene.Options{
			DefaultFootprint: c.cfg.View.DefaultFootprint,
			Classify:         func(it layout.Item) bool { return cls.IsSwitch(it, known) },
		})
		prog.done("loaded layout file", "items", len(nodes))
		return sceneInput{nodes: nodes, source: path}, nil
	}

	s, err := c.loadSession(ctx)
	if err != nil {
		return sceneInput{}, err
	}
	if s.ConfigErr != nil {
		logger.Warn("switch configs unavailable", "err", s.ConfigErr)
	}
	prog.done("loaded session", "items", len(s.Nodes), "switches", len(s.Switches))
	return sceneInput{nodes: s.Nodes, states: s.Controller.States(), source: c.cfg.Controller.URL}, nil
}

// validateFormats rejects formats outside allowed.
func validateFormats(formats, allowed []string) error {
	for _, f := range formats {
		if !slices.Contains(allowed, f) {
			return errors.New(errors.ErrCodeInvalidInput, "unsupported format %q (want %s)", f, strings.Join(allowed, ", "))
		}
	}
	return nil
}

// writeScene writes one file per format next to opts.output.
func writeScene(ctx context.Context, out io.Writer, in sceneInput, opts renderOpts) error {
	svgOpts := []sink.SVGOption{
		sink.WithSize(opts.width, opts.height),
		sink.WithPadding(opts.padding),
		sink.WithStates(in.states),
	}
	if opts.labels {
		svgOpts = append(svgOpts, sink.WithLabels())
	}
	if opts.all {
		svgOpts = append(svgOpts, sink.WithHidden())
	}

	base := strings.TrimSuffix(opts.output, filepath.Ext(opts.output))
	if base == "" {
		base = opts.output
	}
	if dir := filepath.Dir(base); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	for _, format := range opts.formats {
		var (
			data []byte
			err  error
		)
		switch format {
		case formatSVG:
			data = sink.RenderSVG(in.nodes, svgOpts...)
		case formatJSON:
			data, err = sink.RenderJSON(in.nodes,
				sink.WithJSONSize(opts.width, opts.height),
				sink.WithJSONPadding(opts.padding),
				sink.WithJSONStates(in.states),
				sink.WithJSONSource(in.source))
		case formatPDF:
			data, err = sink.RenderPDF(ctx, in.nodes, svgOpts...)
		case formatPNG:
			data, err = sink.RenderPNG(ctx, in.nodes, opts.scale, svgOpts...)
		}
		if err != nil {
			return fmt.Errorf("render %s: %w", format, err)
		}

		path := base + "." + format
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(out, path)
	}
	return nil
}
