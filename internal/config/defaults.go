package config

import (
	"strings"

	"github.com/leapstack-labs/leapschema/pkg/core"
)

// Default configuration values.
const (
	DefaultStateFile    = ".leapschema/state.db"
	DefaultWatchDir     = "snapshots"
	DefaultEnv          = "PROD"
	DefaultFetchTimeout = "10s"
)

// DefaultSchemaForType returns the default schema for a capture target type.
func DefaultSchemaForType(dbType string) string {
	switch strings.ToLower(dbType) {
	case "postgres":
		return "public"
	default:
		return "main"
	}
}

// ApplyTargetDefaults applies default values to a TargetConfig based on the target type.
func ApplyTargetDefaults(t *core.TargetConfig) {
	if t == nil {
		return
	}

	t.Type = strings.ToLower(t.Type)
	if t.Schema == "" {
		t.Schema = DefaultSchemaForType(t.Type)
	}

	if t.Type == "postgres" && t.Port == 0 {
		t.Port = 5432
	}
}
