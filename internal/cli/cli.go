// Package cli implements the switchyard command-line interface.
//
// This package wires the switch control packages into commands: loading a
// session from a controller, rendering the layout, listing and toggling
// switches, calibrating them, running the operator console, and running the
// controller simulator. The CLI is built using cobra and logs through
// charmbracelet/log.
//
// # Commands
//
//   - render: draw the layout to SVG, JSON, PDF or PNG
//   - switches: list switches with their state and calibration
//   - toggle / calibrate: drive one switch from the shell
//   - console: interactive operator console
//   - simulate: serve a simulated controller
//   - topology: draw the track connection graph
//   - cache: manage the catalog cache
//
// # Configuration
//
// Settings come from a TOML file (default $XDG_CONFIG_HOME/switchyard/config.toml),
// then the SWITCHYARD_CONTROLLER environment variable, then flags.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/switchyard/pkg/cache"
	"github.com/matzehuels/switchyard/pkg/controller"
	"github.com/matzehuels/switchyard/pkg/session"
	"github.com/matzehuels/switchyard/pkg/switches"
)

const (
	// appName is the application name used for directories and display.
	appName = "switchyard"

	// envController overrides the configured controller URL.
	envController = "SWITCHYARD_CONTROLLER"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        Config
	flags      globalFlags
}

// globalFlags are the persistent flags that override the config file.
type globalFlags struct {
	controller string
	verbose    bool
	noCache    bool
	refresh    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    defaultConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// newCache opens the catalog cache, or a null cache when disabled or when
// no cache directory can be determined.
func (c *CLI) newCache() cache.Cache {
	if c.flags.noCache || c.cfg.Cache.Disabled {
		return cache.NewNullCache()
	}
	dir := c.cfg.Cache.Dir
	if dir == "" {
		d, err := cacheDir()
		if err != nil {
			return cache.NewNullCache()
		}
		dir = d
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Warn("cache disabled", "dir", dir, "err", err)
		return cache.NewNullCache()
	}
	return fc
}

// newClient builds the controller client from the effective config.
func (c *CLI) newClient() (*controller.Client, error) {
	return controller.New(c.cfg.Controller.URL, controller.Options{
		Timeout:  c.cfg.Controller.Timeout,
		Cache:    c.newCache(),
		CacheTTL: c.cfg.Cache.TTL,
		Refresh:  c.flags.refresh,
		Logger:   c.Logger,
	})
}

// classifier builds the switch heuristic from config.
func (c *CLI) classifier() *switches.Classifier {
	return switches.NewClassifier(c.cfg.Classifier.Keywords, c.cfg.Classifier.PartIDs)
}

// loadSession connects to the controller and loads a full session.
func (c *CLI) loadSession(ctx context.Context) (*session.Session, error) {
	client, err := c.newClient()
	if err != nil {
		return nil, err
	}
	return session.Load(ctx, client, c.sessionOptions(client.BaseURL()))
}

func (c *CLI) sessionOptions(source string) session.Options {
	return session.Options{
		Classifier:       c.classifier(),
		DefaultFootprint: c.cfg.View.DefaultFootprint,
		Source:           source,
		Logger:           c.Logger,
	}
}

// cacheDir returns the cache directory using XDG standard (~/.cache/switchyard/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// configDir returns the config directory using XDG standard (~/.config/switchyard/).
func configDir() (string, error) {
	if cfgHome := os.Getenv("XDG_CONFIG_HOME"); cfgHome != "" {
		return filepath.Join(cfgHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{formatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}
