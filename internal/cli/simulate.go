package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/switchyard/pkg/layout"
	"github.com/matzehuels/switchyard/pkg/observability/prom"
	"github.com/matzehuels/switchyard/pkg/parts"
	"github.com/matzehuels/switchyard/pkg/simulator"
)

// simulateOpts holds the flags of the simulate command. Unset flags fall
// back to the [simulator] section of the config file.
type simulateOpts struct {
	addr     string
	layout   string
	store    string
	parts    string
	geometry string
	watch    bool
	metrics  bool
}

// simulateCommand serves a simulated controller.
func (c *CLI) simulateCommand() *cobra.Command {
	var opts simulateOpts

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Serve a simulated switch controller",
		Long: `Serve the controller HTTP API without hardware. Servo moves are logged
instead of driven. Switch calibrations and positions persist in the store:

  memory                    in-process, lost on exit (default)
  file:PATH or PATH.json    a JSON file
  redis://HOST:PORT/DB      a Redis hash
  mongodb://HOST/DB         a MongoDB collection

The layout is read from a JSON or BlueBrick (.bbm) file. With --watch the
file is reloaded whenever it changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.applySimulatorDefaults(cmd, &opts)
			return c.runSimulator(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.addr, "addr", "", "listen address (default from config, :8080)")
	f.StringVarP(&opts.layout, "layout", "l", "", "layout file (.json or .bbm)")
	f.StringVar(&opts.store, "store", "", "switch record store (memory, file:PATH, redis://, mongodb://)")
	f.StringVar(&opts.parts, "parts", "", "JSON file mapping part names to image URLs")
	f.StringVar(&opts.geometry, "geometry", "", "JSON file mapping part names to geometry")
	f.BoolVarP(&opts.watch, "watch", "w", false, "reload the layout file when it changes")
	f.BoolVar(&opts.metrics, "metrics", true, "serve Prometheus metrics on /metrics")
	return cmd
}

func (c *CLI) applySimulatorDefaults(cmd *cobra.Command, opts *simulateOpts) {
	sim := c.cfg.Simulator
	for _, d := range []struct {
		flag string
		dst  *string
		val  string
	}{
		{"addr", &opts.addr, sim.Addr},
		{"layout", &opts.layout, sim.Layout},
		{"store", &opts.store, sim.Store},
		{"parts", &opts.parts, sim.Parts},
		{"geometry", &opts.geometry, sim.Geometry},
	} {
		if !cmd.Flags().Changed(d.flag) {
			*d.dst = d.val
		}
	}
}

func (c *CLI) runSimulator(ctx context.Context, opts simulateOpts) error {
	logger := loggerFromContext(ctx)

	l := &layout.Layout{}
	if opts.layout != "" {
		var err error
		if l, err = simulator.LoadLayoutFile(opts.layout); err != nil {
			return fmt.Errorf("load layout: %w", err)
		}
	} else if opts.watch {
		return fmt.Errorf("--watch needs a layout file")
	}

	var partImages map[string]string
	if err := readJSONFile(opts.parts, &partImages); err != nil {
		return fmt.Errorf("load parts: %w", err)
	}
	var geometry map[string]parts.Geometry
	if err := readJSONFile(opts.geometry, &geometry); err != nil {
		return fmt.Errorf("load geometry: %w", err)
	}

	store, err := simulator.Open(ctx, opts.store)
	if err != nil {
		return err
	}
	defer store.Close()

	srvOpts := simulator.Options{
		Store:    store,
		Parts:    partImages,
		Geometry: geometry,
		Logger:   logger,
	}
	if opts.metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		prom.New(reg).Install()
		srvOpts.Gatherer = reg
	}
	srv := simulator.New(l, srvOpts)

	logger.Info("simulator ready",
		"items", len(l.Items),
		"switches", len(l.Switches),
		"parts", len(partImages),
		"geometry", len(geometry),
		"store", storeLabel(opts.store))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx, opts.addr) })
	if opts.watch {
		g.Go(func() error { return srv.Watch(gctx, opts.layout) })
	}
	return g.Wait()
}

// readJSONFile decodes path into v. An empty path leaves v untouched.
func readJSONFile(path string, v any) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// storeLabel hides credentials in a store DSN for logging.
func storeLabel(dsn string) string {
	if dsn == "" {
		return "memory"
	}
	if scheme, _, ok := strings.Cut(dsn, "://"); ok {
		return scheme
	}
	return dsn
}
