package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapschema/pkg/adapter"
	"github.com/leapstack-labs/leapschema/pkg/core"

	_ "github.com/leapstack-labs/leapschema/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/leapschema/pkg/adapters/postgres"
)

func TestApplyTargetDefaults(t *testing.T) {
	tests := []struct {
		name   string
		in     core.TargetConfig
		schema string
		port   int
	}{
		{"duckdb", core.TargetConfig{Type: "duckdb"}, "main", 0},
		{"postgres", core.TargetConfig{Type: "Postgres"}, "public", 5432},
		{"postgres explicit", core.TargetConfig{Type: "postgres", Schema: "raw", Port: 6543}, "raw", 6543},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := tt.in
			ApplyTargetDefaults(&target)
			assert.Equal(t, tt.schema, target.Schema)
			assert.Equal(t, tt.port, target.Port)
		})
	}

	ApplyTargetDefaults(nil)
}

func TestValidateTarget(t *testing.T) {
	require.NoError(t, ValidateTarget(nil))
	require.NoError(t, ValidateTarget(&core.TargetConfig{Type: "duckdb"}))
	require.NoError(t, ValidateTarget(&core.TargetConfig{Type: "DuckDB"}))

	err := ValidateTarget(&core.TargetConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target type is required")

	err = ValidateTarget(&core.TargetConfig{Type: "oracle"})
	var unknown *adapter.UnknownAdapterError
	require.ErrorAs(t, err, &unknown)
	assert.Contains(t, err.Error(), "duckdb")
	assert.Contains(t, err.Error(), "leapschema.yaml")
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileNameAlt), []byte("dataset: x\n"), 0o600))

	assert.Equal(t, root, FindProjectRoot(nested, 10))
	assert.Empty(t, FindProjectRoot(nested, 1))
	assert.Equal(t, filepath.Join(root, ConfigFileNameAlt), FindConfigFile(root))
	assert.Empty(t, FindConfigFile(nested))
}
