package config

import (
	"errors"
	"fmt"

	intconfig "github.com/leapstack-labs/leapschema/internal/config"
	"github.com/leapstack-labs/leapschema/pkg/overlay"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.StatePath == "" {
		return fmt.Errorf("state_path is required")
	}
	if c.FetchTimeout < 0 {
		return fmt.Errorf("fetch_timeout must not be negative, got %s", c.FetchTimeout)
	}
	if _, err := overlay.ParsePolicy(c.Overlay.MergePolicy); err != nil {
		return fmt.Errorf("invalid overlay.merge_policy: %w", err)
	}
	if c.Capture != nil {
		if err := intconfig.ValidateTarget(c.Capture.Target); err != nil {
			return fmt.Errorf("invalid capture target: %w", err)
		}
	}
	return nil
}

// RequireDataset returns the dataset URN from args or the configured default.
func (c *Config) RequireDataset(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if c.Dataset != "" {
		return c.Dataset, nil
	}
	return "", errors.New("no dataset given\nHint: pass a dataset URN or set dataset in leapschema.yaml")
}

// RequireCapture returns the capture target or an error when none is configured.
func (c *Config) RequireCapture() (*CaptureConfig, error) {
	if c.Capture == nil || c.Capture.Target == nil {
		return nil, errors.New("no capture target configured\nHint: set capture.target in leapschema.yaml")
	}
	return c.Capture, nil
}
