package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/switchyard/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// The persistent pre-run loads the config file, applies the environment and
// flag overrides, and attaches the logger to the command context.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Switchyard operates the turnouts of a model railway layout",
		Long:          `Switchyard renders a model railway layout from its controller and drives the servo-actuated switches on it: toggle, calibrate, and watch them from the shell or an interactive console.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.flags.verbose {
				c.SetLogLevel(LogDebug)
			}
			if err := c.configure(cmd); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.BoolVarP(&c.flags.verbose, "verbose", "v", false, "enable verbose logging")
	pf.StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/switchyard/config.toml)")
	pf.StringVarP(&c.flags.controller, "controller", "c", "", "controller API base URL (env "+envController+")")
	pf.BoolVar(&c.flags.noCache, "no-cache", false, "disable the catalog cache")
	pf.BoolVar(&c.flags.refresh, "refresh", false, "refetch the part catalog, ignoring cached copies")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.switchesCommand())
	root.AddCommand(c.toggleCommand())
	root.AddCommand(c.calibrateCommand())
	root.AddCommand(c.consoleCommand())
	root.AddCommand(c.simulateCommand())
	root.AddCommand(c.topologyCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// configure resolves the effective config: file, then env, then flags.
func (c *CLI) configure(cmd *cobra.Command) error {
	path, explicit := c.configPath, c.configPath != ""
	if !explicit {
		p, err := defaultConfigPath()
		if err == nil {
			path = p
		}
	}
	cfg, err := loadConfig(path, explicit)
	if err != nil {
		return err
	}
	cfg.applyEnv()
	if cmd.Flags().Changed("controller") {
		cfg.Controller.URL = c.flags.controller
	}
	c.cfg = cfg
	c.Logger.Debug("config loaded", "path", path, "controller", cfg.Controller.URL)
	return nil
}
