// Package config loads settings for go-odometry commands.
//
// Values are resolved in this order, later sources winning:
// built-in defaults, the named preset, the YAML file, environment variables,
// and finally command-line flags (applied by each command).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-odometry/pkg/bench"
	"github.com/teslashibe/go-odometry/pkg/odometry"
)

// Defaults.
const (
	DefaultPort        = 8090
	DefaultHistorySize = 100
)

// Environment variables.
const (
	EnvPort     = "ODOMETRY_PORT"
	EnvPreset   = "ODOMETRY_PRESET"
	EnvSeed     = "ODOMETRY_SEED"
	EnvMatcher  = "ODOMETRY_MATCHER"
	EnvLogLevel = "LOG_LEVEL"
)

// AppConfig is the full command configuration.
type AppConfig struct {
	Port        int             `yaml:"port"`
	Preset      string          `yaml:"preset"`
	LogLevel    string          `yaml:"log_level"`
	HistorySize int             `yaml:"history_size"`
	Odometry    odometry.Config `yaml:"odometry"`
	Bench       bench.Config    `yaml:"bench"`
}

// Default returns the built-in configuration.
func Default() AppConfig {
	return AppConfig{
		Port:        DefaultPort,
		Preset:      odometry.PresetDefault,
		LogLevel:    "info",
		HistorySize: DefaultHistorySize,
		Odometry:    odometry.DefaultConfig(),
		Bench:       bench.DefaultConfig(),
	}
}

// Load reads path (if non-empty), applies environment overrides and
// validates the result.
func Load(path string) (AppConfig, error) {
	return LoadWithPreset(path, "")
}

// LoadWithPreset is Load with a preset that takes precedence over both the
// file and ODOMETRY_PRESET. An empty preset leaves the choice to them.
func LoadWithPreset(path, preset string) (AppConfig, error) {
	var data []byte
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return AppConfig{}, fmt.Errorf("read config: %w", err)
		}
		data = b
	}

	cfg, err := ParseWithPreset(data, preset)
	if err != nil {
		return AppConfig{}, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return AppConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. The preset (from the document or
// ODOMETRY_PRESET) is applied first so explicit odometry fields override it.
func Parse(data []byte) (AppConfig, error) {
	return ParseWithPreset(data, "")
}

// ParseWithPreset is Parse with a preset override.
func ParseWithPreset(data []byte, preset string) (AppConfig, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("parse config: %w", err)
	}

	if preset == "" {
		preset = cfg.Preset
		if env := os.Getenv(EnvPreset); env != "" {
			preset = env
		}
	}
	p := odometry.GetPreset(preset)
	if p == nil {
		return AppConfig{}, fmt.Errorf("unknown preset %q (available: %v)", preset, odometry.PresetNames())
	}
	cfg.Preset = preset
	cfg.Odometry = *p

	// A missing section leaves the node zero.
	var overlay struct {
		Odometry yaml.Node `yaml:"odometry"`
	}
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return AppConfig{}, fmt.Errorf("parse config: %w", err)
	}
	if overlay.Odometry.Kind != 0 {
		if err := overlay.Odometry.Decode(&cfg.Odometry); err != nil {
			return AppConfig{}, fmt.Errorf("parse odometry section: %w", err)
		}
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment.
func (c *AppConfig) ApplyEnv() error {
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		c.Port = port
	}
	if v := os.Getenv(EnvSeed); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSeed, err)
		}
		c.Odometry.Seed = seed
	}
	if v := os.Getenv(EnvMatcher); v != "" {
		c.Odometry.Matcher = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	return nil
}

// Validate checks every section.
func (c AppConfig) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port must be in [1, 65535], got %d", c.Port))
	}
	if c.HistorySize < 1 {
		errs = append(errs, fmt.Errorf("history_size must be positive, got %d", c.HistorySize))
	}
	if err := c.Odometry.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Bench.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("bench: %w", err))
	}
	return errors.Join(errs...)
}
