// Package config loads and validates plash.yaml, the single configuration
// file for plashboardd and plashctl (spec §6). The daemon runs with sensible
// defaults when no file is present.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/openclaw/plashboard/internal/domain"
)

// FillProvider selects which fillrunner.Runner backs the fill stage.
type FillProvider string

const (
	FillProviderMock     FillProvider = "mock"
	FillProviderCommand  FillProvider = "command"
	FillProviderOpenclaw FillProvider = "openclaw"
)

// Config is the parsed, defaulted, and validated contents of plash.yaml.
type Config struct {
	DataDir                   string                `yaml:"data_dir"`
	DashboardOutputPath       string                `yaml:"dashboard_output_path"`
	SchedulerTickSeconds      int                   `yaml:"scheduler_tick_seconds"`
	MaxParallelRuns           int                   `yaml:"max_parallel_runs"`
	DefaultRetryCount         int                   `yaml:"default_retry_count"`
	RetryBackoffSeconds       int                   `yaml:"retry_backoff_seconds"`
	SessionTimeoutSeconds     int                   `yaml:"session_timeout_seconds"`
	AutoSeedTemplate          bool                  `yaml:"auto_seed_template"`
	FillProvider              FillProvider          `yaml:"fill_provider"`
	FillCommand               string                `yaml:"fill_command"`
	OpenclawFillAgentID       string                `yaml:"openclaw_fill_agent_id"`
	DisplayProfile            domain.DisplayProfile `yaml:"display_profile"`
	LayoutOverflowTolerancePx int                   `yaml:"layout_overflow_tolerance_px"`
}

// Default returns the configuration used when plash.yaml is absent, matching
// spec §6's configuration table verbatim.
func Default() *Config {
	return &Config{
		DataDir:                   "/var/lib/openclaw/plash-data",
		DashboardOutputPath:       "", // derived from data_dir unless overridden; see applyDerived
		SchedulerTickSeconds:      30,
		MaxParallelRuns:           1,
		DefaultRetryCount:         1,
		RetryBackoffSeconds:       20,
		SessionTimeoutSeconds:     90,
		AutoSeedTemplate:          true,
		FillProvider:              FillProviderOpenclaw,
		OpenclawFillAgentID:       "main",
		DisplayProfile:            domain.DefaultDisplayProfile(),
		LayoutOverflowTolerancePx: 40,
	}
}

// defaultWithDerived is Default() with computed fields filled in, used
// whenever no plash.yaml overrides them.
func defaultWithDerived() *Config {
	cfg := Default()
	cfg.applyDerived()
	return cfg
}

// Load reads path (if non-empty and present), applies defaults for any
// unset field, and validates the result. An empty path returns defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return defaultWithDerived(), nil
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return defaultWithDerived(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read config %s: %v", domain.ErrConfigInvalid, path, err)
	}

	// Unmarshal over an already-defaulted struct so a partial plash.yaml
	// only overrides the keys it sets.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parse config %s: %v", domain.ErrConfigInvalid, path, err)
	}

	cfg.applyMinimums()
	cfg.applyDerived()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDerived fills in fields whose default is computed from another field,
// only when the caller left them unset.
func (c *Config) applyDerived() {
	if c.DashboardOutputPath == "" {
		c.DashboardOutputPath = filepath.Join(c.DataDir, "dashboard.json")
	}
}

// applyMinimums clamps fields the spec gives a floor to, in case plash.yaml
// set them below the documented minimum.
func (c *Config) applyMinimums() {
	if c.SchedulerTickSeconds < 5 {
		c.SchedulerTickSeconds = 5
	}
	if c.MaxParallelRuns < 1 {
		c.MaxParallelRuns = 1
	}
	if c.RetryBackoffSeconds < 1 {
		c.RetryBackoffSeconds = 1
	}
	if c.SessionTimeoutSeconds < 10 {
		c.SessionTimeoutSeconds = 10
	}
	c.DisplayProfile = c.DisplayProfile.Clamp()
}

func (c *Config) validate() error {
	switch c.FillProvider {
	case FillProviderMock, FillProviderCommand, FillProviderOpenclaw:
	default:
		return fmt.Errorf("%w: fill_provider %q is not one of mock, command, openclaw", domain.ErrConfigInvalid, c.FillProvider)
	}
	if c.FillProvider == FillProviderCommand && c.FillCommand == "" {
		return fmt.Errorf("%w: fill_provider is command but fill_command is empty", domain.ErrConfigInvalid)
	}
	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir must not be empty", domain.ErrConfigInvalid)
	}
	if c.DashboardOutputPath == "" {
		return fmt.Errorf("%w: dashboard_output_path must not be empty", domain.ErrConfigInvalid)
	}
	return nil
}

// ResolvePath finds the config file path. Priority: PLASH_CONFIG env var >
// ./plash.yaml > "" (defaults only).
func ResolvePath() string {
	if p := os.Getenv("PLASH_CONFIG"); p != "" {
		return p
	}
	if _, err := os.Stat("plash.yaml"); err == nil {
		return "plash.yaml"
	}
	return ""
}

// ResolveDataDir lets PLASH_DATA_DIR override whatever data_dir plash.yaml
// (or defaults) set.
func ResolveDataDir(cfg *Config) string {
	if d := os.Getenv("PLASH_DATA_DIR"); d != "" {
		return d
	}
	return cfg.DataDir
}

// AbsDataDir is ResolveDataDir with the result made absolute, which the
// single-owner lock and filestore paths both require for consistent
// comparison across working directories.
func AbsDataDir(cfg *Config) (string, error) {
	dir := ResolveDataDir(cfg)
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%w: resolve data dir %s: %v", domain.ErrConfigInvalid, dir, err)
	}
	return abs, nil
}
