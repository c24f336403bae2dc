package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapschema/internal/snapshotfile"
)

func TestNewInitCommand(t *testing.T) {
	tests := []struct {
		name      string
		setupDir  func(t *testing.T, dir string) // setup before running
		args      []string
		wantErr   bool
		wantFiles []string
	}{
		{
			name: "init empty directory",
			args: []string{},
			wantFiles: []string{
				"leapschema.yaml",
				".gitignore",
				"snapshots",
			},
		},
		{
			name: "init with example snapshots",
			args: []string{"--example"},
			wantFiles: []string{
				"leapschema.yaml",
				"snapshots/orders_v1.yaml",
				"snapshots/orders_v2.yaml",
			},
		},
		{
			name: "init existing config without force",
			setupDir: func(_ *testing.T, dir string) {
				_ = os.WriteFile(filepath.Join(dir, "leapschema.yaml"), []byte("existing"), 0600)
			},
			args:    []string{},
			wantErr: true,
		},
		{
			name: "init existing config with force",
			setupDir: func(_ *testing.T, dir string) {
				_ = os.WriteFile(filepath.Join(dir, "leapschema.yaml"), []byte("existing"), 0600)
			},
			args: []string{"--force"},
			wantFiles: []string{
				"leapschema.yaml",
				"snapshots",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupCommandEnv(t, "text")
			tmpDir := t.TempDir()

			if tt.setupDir != nil {
				tt.setupDir(t, tmpDir)
			}

			cmd := NewInitCommand()
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)
			cmd.SetArgs(append([]string{tmpDir}, tt.args...))

			err := cmd.Execute()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			for _, f := range tt.wantFiles {
				_, err := os.Stat(filepath.Join(tmpDir, f))
				assert.False(t, os.IsNotExist(err), "expected file/dir %q to exist", f)
			}
		})
	}
}

func TestInitCommandMetadata(t *testing.T) {
	cmd := NewInitCommand()

	assert.Equal(t, "init [directory]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotNil(t, cmd.Flags().Lookup("force"), "--force flag should exist")
	assert.NotNil(t, cmd.Flags().Lookup("example"), "--example flag should exist")
}

func TestInitCreatesValidConfig(t *testing.T) {
	setupCommandEnv(t, "text")
	tmpDir := t.TempDir()

	cmd := NewInitCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{tmpDir})
	require.NoError(t, cmd.Execute())

	content, err := os.ReadFile(filepath.Join(tmpDir, "leapschema.yaml"))
	require.NoError(t, err, "failed to read leapschema.yaml")

	for _, expected := range []string{
		"state_path:",
		"merge_policy: merge",
		"watch_dir: snapshots",
	} {
		assert.Contains(t, string(content), expected, "config should contain %q", expected)
	}
}

func TestInitExampleSnapshotsParse(t *testing.T) {
	tmpDir := t.TempDir()
	res, err := scaffold("example", tmpDir, false)
	require.NoError(t, err)

	var snapshots []string
	for _, f := range res.Written {
		if f.group() == "snapshots" {
			snapshots = append(snapshots, f.dest)
		}
	}
	require.Len(t, snapshots, 2)

	for _, f := range snapshots {
		snap, err := snapshotfile.Load(filepath.Join(tmpDir, filepath.FromSlash(f)))
		require.NoError(t, err, f)
		assert.Equal(t, "urn:li:dataset:(urn:li:dataPlatform:hive,sales.orders,PROD)", snap.DatasetURN)
		assert.NotEmpty(t, snap.RawForm)
	}
}

func TestTemplatePlan(t *testing.T) {
	plan, err := templatePlan("minimal")
	require.NoError(t, err)

	dests := make(map[string]templateFile, len(plan))
	for _, f := range plan {
		dests[f.dest] = f
	}
	assert.Contains(t, dests, ".gitignore", "gitignore is renamed to a dotfile")
	assert.NotContains(t, dests, "gitignore")
	require.Contains(t, dests, "snapshots")
	assert.True(t, dests["snapshots"].dir, ".gitkeep marks a directory")
	assert.Equal(t, "config", dests["leapschema.yaml"].group())

	_, err = templatePlan("nope")
	assert.ErrorContains(t, err, `unknown project template "nope"`)
}

func TestScaffold_KeepsExistingFiles(t *testing.T) {
	tmpDir := t.TempDir()
	ignore := filepath.Join(tmpDir, ".gitignore")
	require.NoError(t, os.WriteFile(ignore, []byte("mine\n"), 0o600))

	res, err := scaffold("minimal", tmpDir, false)
	require.NoError(t, err)
	require.Len(t, res.Kept, 1)
	assert.Equal(t, ".gitignore", res.Kept[0].dest)

	content, err := os.ReadFile(ignore)
	require.NoError(t, err)
	assert.Equal(t, "mine\n", string(content))

	res, err = scaffold("minimal", tmpDir, true)
	require.NoError(t, err)
	assert.Empty(t, res.Kept)
	content, err = os.ReadFile(ignore)
	require.NoError(t, err)
	assert.NotEqual(t, "mine\n", string(content))
}
