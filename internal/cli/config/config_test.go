package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapschema/pkg/overlay"

	// Import adapter packages to ensure adapters are registered via init()
	_ "github.com/leapstack-labs/leapschema/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/leapschema/pkg/adapters/postgres"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	p := filepath.Join(dir, "leapschema.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("state", "", "")
	fs.String("dataset", "", "")
	fs.StringP("output", "o", "", "")
	fs.BoolP("verbose", "v", false, "")
	fs.Duration("fetch-timeout", 0, "")
	fs.String("merge-policy", "", "")
	return fs
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "dataset: urn:li:dataset:(urn:li:dataPlatform:hive,db.users,PROD)\n")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, ".leapschema", "state.db"), cfg.StatePath)
	assert.Equal(t, "auto", cfg.OutputFormat)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Equal(t, overlay.MergeFields, cfg.Overlay.Policy())
	assert.False(t, cfg.Overlay.RollbackOnFailure)
	assert.Equal(t, "urn:li:dataset:(urn:li:dataPlatform:hive,db.users,PROD)", cfg.Dataset)
	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Nil(t, cfg.Capture)

	ui := cfg.GetUIConfig()
	assert.Equal(t, DefaultPort, ui.Port)
	assert.True(t, ui.Watch)
	assert.Equal(t, filepath.Join(dir, "snapshots"), ui.WatchDir)

	assert.Equal(t, cfgPath, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, `
state_path: /tmp/leapschema-state.db
output: json
fetch_timeout: 250ms
overlay:
  merge_policy: replace
  rollback_on_failure: true
ui:
  port: 9000
  watch: false
  watch_dir: drops
capture:
  env: DEV
  target:
    type: DuckDB
    database: warehouse.duckdb
`)

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/leapschema-state.db", cfg.StatePath)
	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Equal(t, 250*time.Millisecond, cfg.FetchTimeout)
	assert.Equal(t, overlay.ReplaceEntry, cfg.Overlay.Policy())
	assert.True(t, cfg.Overlay.RollbackOnFailure)
	assert.Equal(t, 9000, cfg.UI.Port)
	assert.False(t, cfg.UI.Watch)
	assert.Equal(t, filepath.Join(dir, "drops"), cfg.UI.WatchDir)

	require.NotNil(t, cfg.Capture)
	assert.Equal(t, "DEV", cfg.Capture.Env)
	assert.Equal(t, "duckdb", cfg.Capture.Target.Type)
	assert.Equal(t, "main", cfg.Capture.Target.Schema)
	assert.Equal(t, filepath.Join(dir, "warehouse.duckdb"), cfg.Capture.Target.Database)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "output: text\noverlay:\n  merge_policy: merge\n")

	t.Setenv("LEAPSCHEMA_OUTPUT", "markdown")
	t.Setenv("LEAPSCHEMA_OVERLAY__MERGE_POLICY", "replace")
	t.Setenv("LEAPSCHEMA_FETCH_TIMEOUT", "3s")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, "markdown", cfg.OutputFormat)
	assert.Equal(t, overlay.ReplaceEntry, cfg.Overlay.Policy())
	assert.Equal(t, 3*time.Second, cfg.FetchTimeout)
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "output: text\n")
	t.Setenv("LEAPSCHEMA_OUTPUT", "markdown")

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{
		"--output", "json",
		"--state", ":memory:",
		"--fetch-timeout", "2s",
		"--merge-policy", "replace",
		"--dataset", "urn:x",
	}))

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Equal(t, ":memory:", cfg.StatePath)
	assert.Equal(t, 2*time.Second, cfg.FetchTimeout)
	assert.Equal(t, overlay.ReplaceEntry, cfg.Overlay.Policy())
	assert.Equal(t, "urn:x", cfg.Dataset)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, `
capture:
  target:
    type: postgres
    host: db.internal
    user: reader
    password: ${LEAPSCHEMA_TEST_PG_PASSWORD}
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LEAPSCHEMA_TEST_PG_PASSWORD=s3cret\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("LEAPSCHEMA_TEST_PG_PASSWORD") })

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	target := cfg.Capture.Target
	assert.Equal(t, "s3cret", target.Password)
	assert.Equal(t, 5432, target.Port)
	assert.Equal(t, "public", target.Schema)
	assert.Equal(t, "PROD", cfg.Capture.Env)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		errSubstr string
	}{
		{
			name:      "unknown merge policy",
			content:   "overlay:\n  merge_policy: smash\n",
			errSubstr: "overlay.merge_policy",
		},
		{
			name:      "unknown capture type",
			content:   "capture:\n  target:\n    type: oracle\n",
			errSubstr: "unknown adapter type",
		},
		{
			name:      "bad duration",
			content:   "fetch_timeout: soon\n",
			errSubstr: "unable to decode config",
		},
		{
			name:      "negative timeout",
			content:   "fetch_timeout: -1s\n",
			errSubstr: "must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			cfgPath := writeConfig(t, t.TempDir(), tt.content)
			_, err := LoadConfig(cfgPath, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	ResetConfig()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestRequireDataset(t *testing.T) {
	cfg := &Config{}
	_, err := cfg.RequireDataset(nil)
	require.Error(t, err)

	cfg.Dataset = "urn:default"
	got, err := cfg.RequireDataset(nil)
	require.NoError(t, err)
	assert.Equal(t, "urn:default", got)

	got, err = cfg.RequireDataset([]string{"urn:arg"})
	require.NoError(t, err)
	assert.Equal(t, "urn:arg", got)
}

func TestRequireCapture(t *testing.T) {
	_, err := (&Config{}).RequireCapture()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "capture.target")
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "state_path", envKey("LEAPSCHEMA_STATE_PATH"))
	assert.Equal(t, "ui.watch_dir", envKey("LEAPSCHEMA_UI__WATCH_DIR"))
	assert.Equal(t, "overlay.rollback_on_failure", envKey("LEAPSCHEMA_OVERLAY__ROLLBACK_ON_FAILURE"))
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR_ONE", "value_one")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"single variable", "${TEST_VAR_ONE}", "value_one"},
		{"variable in path", "/path/${TEST_VAR_ONE}/file", "/path/value_one/file"},
		{"unset variable stays as-is", "${UNSET_VARIABLE_XYZ}", "${UNSET_VARIABLE_XYZ}"},
		{"no variables", "plain string", "plain string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandEnvVars(tt.input))
		})
	}
}
