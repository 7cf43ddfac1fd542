package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/switchyard/pkg/controller"
	"github.com/matzehuels/switchyard/pkg/render/sink"
	"github.com/matzehuels/switchyard/pkg/scene"
	"github.com/matzehuels/switchyard/pkg/switches"
)

// Config is the on-disk configuration.
type Config struct {
	Controller ControllerConfig `toml:"controller"`
	View       ViewConfig       `toml:"view"`
	Classifier ClassifierConfig `toml:"classifier"`
	Cache      CacheConfig      `toml:"cache"`
	Simulator  SimulatorConfig  `toml:"simulator"`
}

type ControllerConfig struct {
	URL     string        `toml:"url"`
	Timeout time.Duration `toml:"timeout"`
}

type ViewConfig struct {
	Width            float64 `toml:"width"`
	Height           float64 `toml:"height"`
	Padding          float64 `toml:"padding"`
	DefaultFootprint float64 `toml:"default_footprint"`
}

type ClassifierConfig struct {
	Keywords []string `toml:"keywords"`
	PartIDs  []string `toml:"part_ids"`
}

type CacheConfig struct {
	Dir      string        `toml:"dir"`
	TTL      time.Duration `toml:"ttl"`
	Disabled bool          `toml:"disabled"`
}

type SimulatorConfig struct {
	Addr     string `toml:"addr"`
	Store    string `toml:"store"`
	Layout   string `toml:"layout"`
	Parts    string `toml:"parts"`
	Geometry string `toml:"geometry"`
}

func defaultConfig() Config {
	return Config{
		Controller: ControllerConfig{URL: controller.DefaultBaseURL, Timeout: 10 * time.Second},
		View: ViewConfig{
			Width:            sink.DefaultWidth,
			Height:           sink.DefaultHeight,
			Padding:          sink.DefaultPadding,
			DefaultFootprint: scene.DefaultFootprint,
		},
		Classifier: ClassifierConfig{
			Keywords: slices.Clone(switches.DefaultKeywords),
			PartIDs:  slices.Clone(switches.DefaultPartIDs),
		},
		Cache:     CacheConfig{TTL: 24 * time.Hour},
		Simulator: SimulatorConfig{Addr: ":8080", Store: "memory"},
	}
}

// defaultConfigPath returns config.toml under configDir.
func defaultConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// loadConfig reads path over the defaults. A missing file is an error only
// when the path was given explicitly. Unknown keys are rejected so typos
// do not pass silently.
func loadConfig(path string, explicit bool) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return defaultConfig(), nil
		}
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}

// applyEnv applies environment overrides.
func (cfg *Config) applyEnv() {
	if u := os.Getenv(envController); u != "" {
		cfg.Controller.URL = u
	}
}
