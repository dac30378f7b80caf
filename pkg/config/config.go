// Package config loads netgraph settings from a TOML file and NETGRAPH_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "NETGRAPH_"

// Config holds netgraph configuration.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Store      StoreConfig      `toml:"store"`
	Log        LogConfig        `toml:"log"`
	Simulation SimulationConfig `toml:"simulation"`
	Kubernetes KubernetesConfig `toml:"kubernetes"`
	FortiOS    FortiOSConfig    `toml:"fortios"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr            string   `toml:"addr"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

// StoreConfig controls where uploaded documents live.
type StoreConfig struct {
	DataDir string `toml:"data_dir"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `toml:"level"`  // "debug", "info", "warn", "error"
	Format string `toml:"format"` // "text", "json"
}

// SimulationConfig controls diagram layout.
type SimulationConfig struct {
	Width        float64 `toml:"width"`
	Height       float64 `toml:"height"`
	Seed         uint64  `toml:"seed"`
	MaxTicks     int     `toml:"max_ticks"`
	Charge       float64 `toml:"charge"`
	LinkDistance float64 `toml:"link_distance"`
}

// KubernetesConfig controls the cluster topology source.
type KubernetesConfig struct {
	Kubeconfig string `toml:"kubeconfig"`
	Namespaces string `toml:"namespaces"`
}

// FortiOSConfig controls policy normalization.
type FortiOSConfig struct {
	Profile string `toml:"profile"`
}

// Duration is a time.Duration written as a string such as "15s".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server:     ServerConfig{Addr: ":8080", ShutdownTimeout: Duration{15 * time.Second}},
		Store:      StoreConfig{DataDir: "data"},
		Log:        LogConfig{Level: "info", Format: "text"},
		Simulation: SimulationConfig{Width: 700, Height: 700, MaxTicks: 300, Charge: -50, LinkDistance: 30},
		Kubernetes: KubernetesConfig{Namespaces: "default"},
		FortiOS:    FortiOSConfig{Profile: "full"},
	}
}

// Dir returns the netgraph config directory path.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "netgraph")
}

// DefaultPath returns the config file read when no path is given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file at path over the defaults and applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return Write(f, cfg)
}

// Write encodes the config as TOML.
func Write(w io.Writer, cfg *Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

// ApplyEnv overrides settings from NETGRAPH_* environment variables.
func (c *Config) ApplyEnv() error {
	strs := map[string]*string{
		"ADDR":            &c.Server.Addr,
		"DATA_DIR":        &c.Store.DataDir,
		"LOG_LEVEL":       &c.Log.Level,
		"LOG_FORMAT":      &c.Log.Format,
		"KUBECONFIG":      &c.Kubernetes.Kubeconfig,
		"NAMESPACES":      &c.Kubernetes.Namespaces,
		"FORTIOS_PROFILE": &c.FortiOS.Profile,
	}
	for key, dst := range strs {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}

	floats := map[string]*float64{
		"WIDTH":         &c.Simulation.Width,
		"HEIGHT":        &c.Simulation.Height,
		"CHARGE":        &c.Simulation.Charge,
		"LINK_DISTANCE": &c.Simulation.LinkDistance,
	}
	for key, dst := range floats {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
			}
			*dst = f
		}
	}

	if v := os.Getenv(EnvPrefix + "MAX_TICKS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sMAX_TICKS: %w", EnvPrefix, err)
		}
		c.Simulation.MaxTicks = n
	}
	if v := os.Getenv(EnvPrefix + "SEED"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %sSEED: %w", EnvPrefix, err)
		}
		c.Simulation.Seed = n
	}
	if v := os.Getenv(EnvPrefix + "SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sSHUTDOWN_TIMEOUT: %w", EnvPrefix, err)
		}
		c.Server.ShutdownTimeout = Duration{d}
	}
	return nil
}

// Validate checks settings that would otherwise fail late.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("server addr cannot be empty")
	}
	if c.Simulation.Width <= 0 || c.Simulation.Height <= 0 {
		return fmt.Errorf("invalid simulation size %gx%g", c.Simulation.Width, c.Simulation.Height)
	}
	if c.Simulation.MaxTicks <= 0 {
		return fmt.Errorf("invalid max_ticks %d", c.Simulation.MaxTicks)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log format: %s", c.Log.Format)
	}
	return nil
}
