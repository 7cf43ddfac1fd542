package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/switchyard/pkg/layout"
	"github.com/matzehuels/switchyard/pkg/render/topology"
	"github.com/matzehuels/switchyard/pkg/simulator"
	"github.com/matzehuels/switchyard/pkg/switches"
)

var topologyFormats = []string{formatDOT, formatSVG, formatPDF, formatPNG}

// topologyOpts holds the flags of the topology command.
type topologyOpts struct {
	output       string
	layoutFile   string
	formats      []string
	detailed     bool
	hideIsolated bool
	scale        float64
}

// topologyCommand draws the track connection graph with Graphviz.
func (c *CLI) topologyCommand() *cobra.Command {
	var formatsStr string
	opts := topologyOpts{output: "topology", scale: 2}

	cmd := &cobra.Command{
		Use:   "topology",
		Short: "Draw the track connection graph",
		Long: `Draw which pieces of track connect to which, as a Graphviz graph. Switches
are highlighted. The layout comes from the controller, or from a local file
with --layout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := validateFormats(opts.formats, topologyFormats); err != nil {
				return err
			}
			return c.runTopology(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", opts.output, "output base path")
	f.StringVarP(&formatsStr, "format", "f", formatSVG, "comma-separated formats: dot, svg, pdf, png")
	f.StringVarP(&opts.layoutFile, "layout", "l", "", "read a local layout file (.json or .bbm)")
	f.BoolVar(&opts.detailed, "detailed", false, "label every node with its part name")
	f.BoolVar(&opts.hideIsolated, "hide-isolated", false, "omit pieces with no connections")
	f.Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")
	return cmd
}

func (c *CLI) runTopology(cmd *cobra.Command, opts topologyOpts) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	l, err := c.topologyLayout(ctx, opts.layoutFile)
	if err != nil {
		return err
	}

	g := topology.Build(l)
	if g.Dangling > 0 {
		printWarning(out, "%d connections point at pieces missing from the layout", g.Dangling)
	}

	cls := c.classifier()
	known := switches.IDSet(l.Switches)
	dot := topology.ToDOT(l, topology.Options{
		Switch:       func(it layout.Item) bool { return cls.IsSwitch(it, known) },
		Detailed:     opts.detailed,
		HideIsolated: opts.hideIsolated,
	})

	base := strings.TrimSuffix(opts.output, filepath.Ext(opts.output))
	if dir := filepath.Dir(base); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	for _, format := range opts.formats {
		var data []byte
		switch format {
		case formatDOT:
			data = []byte(dot)
		case formatSVG:
			data, err = topology.RenderSVG(ctx, dot)
		case formatPDF:
			data, err = topology.RenderPDF(ctx, dot)
		case formatPNG:
			data, err = topology.RenderPNG(ctx, dot, opts.scale)
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

	printStats(out,
		statCount{len(g.Items), "pieces"},
		statCount{len(g.Edges), "connections"})
	return nil
}

// topologyLayout reads the layout alone; the part catalog is not needed.
func (c *CLI) topologyLayout(ctx context.Context, path string) (*layout.Layout, error) {
	if path != "" {
		return simulator.LoadLayoutFile(path)
	}
	client, err := c.newClient()
	if err != nil {
		return nil, err
	}
	return client.Layout(ctx)
}
