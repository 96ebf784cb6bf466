// Package config loads ember settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Script engines.
const (
	EngineBuiltin = "builtin"
	EngineGoja    = "goja"
)

// Text metrics sources.
const (
	MetricsFixed = "fixed"
	MetricsFont  = "font"
)

type Config struct {
	Viewport Viewport `toml:"viewport"`
	Script   Script   `toml:"script"`
	Fonts    Fonts    `toml:"fonts"`
	Log      Log      `toml:"log"`
	Network  Network  `toml:"network"`
}

type Viewport struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

type Script struct {
	Enabled bool   `toml:"enabled"`
	Engine  string `toml:"engine"`
}

// Fonts selects how text is measured and drawn. With Metrics "font" the
// Regular and Bold TrueType files are used; empty paths fall back to the
// bundled Go fonts.
type Fonts struct {
	Metrics string `toml:"metrics"`
	Regular string `toml:"regular"`
	Bold    string `toml:"bold"`
}

type Log struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

type Network struct {
	TimeoutSeconds int    `toml:"timeout_seconds"`
	UserAgent      string `toml:"user_agent"`
}

// Timeout returns the request timeout.
func (n Network) Timeout() time.Duration {
	return time.Duration(n.TimeoutSeconds) * time.Second
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Viewport: Viewport{Width: 800, Height: 600},
		Script:   Script{Enabled: true, Engine: EngineBuiltin},
		Fonts:    Fonts{Metrics: MetricsFixed},
		Log:      Log{Level: "info"},
		Network:  Network{TimeoutSeconds: 30},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values; unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("loading config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("loading config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("loading config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOptional is Load, except that a missing file yields the defaults.
func LoadOptional(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Validate checks enumerated fields and sizes.
func (c Config) Validate() error {
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return fmt.Errorf("viewport must be positive, got %dx%d", c.Viewport.Width, c.Viewport.Height)
	}
	switch c.Script.Engine {
	case EngineBuiltin, EngineGoja:
	default:
		return fmt.Errorf("unknown script engine %q", c.Script.Engine)
	}
	switch c.Fonts.Metrics {
	case MetricsFixed, MetricsFont:
	default:
		return fmt.Errorf("unknown font metrics %q", c.Fonts.Metrics)
	}
	if c.Network.TimeoutSeconds < 0 {
		return fmt.Errorf("negative network timeout")
	}
	return nil
}
