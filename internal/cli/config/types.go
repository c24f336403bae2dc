// Package config provides configuration management for the leapschema CLI.
package config

import (
	"time"

	intconfig "github.com/leapstack-labs/leapschema/internal/config"
	"github.com/leapstack-labs/leapschema/pkg/core"
	"github.com/leapstack-labs/leapschema/pkg/overlay"
)

// UIConfig holds configuration for the UI server.
type UIConfig struct {
	Port          int    `koanf:"port"`
	Watch         bool   `koanf:"watch"`
	WatchDir      string `koanf:"watch_dir"`
	SessionSecret string `koanf:"session_secret"`
}

// OverlayConfig controls how field edits are merged and persisted.
type OverlayConfig struct {
	MergePolicy       string `koanf:"merge_policy"`
	RollbackOnFailure bool   `koanf:"rollback_on_failure"`
}

// Policy returns the parsed merge policy.
func (o OverlayConfig) Policy() overlay.MergePolicy {
	p, _ := overlay.ParsePolicy(o.MergePolicy)
	return p
}

// CaptureConfig holds the live database target used by the capture command.
type CaptureConfig struct {
	Target *core.TargetConfig `koanf:"target"`
	Env    string             `koanf:"env"`
}

// Config holds all CLI configuration options.
type Config struct {
	StatePath    string         `koanf:"state_path"`
	Verbose      bool           `koanf:"verbose"`
	OutputFormat string         `koanf:"output"`
	Dataset      string         `koanf:"dataset"`
	FetchTimeout time.Duration  `koanf:"fetch_timeout"`
	Overlay      OverlayConfig  `koanf:"overlay"`
	UI           *UIConfig      `koanf:"ui"`
	Capture      *CaptureConfig `koanf:"capture"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultOutput = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultPort   = 8766
)

// DefaultUIConfig returns a UIConfig with default values.
func DefaultUIConfig() *UIConfig {
	return &UIConfig{
		Port:     DefaultPort,
		Watch:    true,
		WatchDir: intconfig.DefaultWatchDir,
	}
}

// GetUIConfig returns the UI config with defaults applied for any unset values.
func (c *Config) GetUIConfig() *UIConfig {
	if c.UI == nil {
		return DefaultUIConfig()
	}
	ui := c.UI
	if ui.Port == 0 {
		ui.Port = DefaultPort
	}
	if ui.WatchDir == "" {
		ui.WatchDir = intconfig.DefaultWatchDir
	}
	return ui
}
