package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapschema/internal/cli/output"
	"github.com/leapstack-labs/leapschema/internal/snapshotfile"
	"github.com/leapstack-labs/leapschema/pkg/core"
)

// ImportOptions holds options for the import command.
type ImportOptions struct {
	Dataset  string
	Platform string
}

// NewImportCommand creates the import command.
func NewImportCommand() *cobra.Command {
	opts := &ImportOptions{}

	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Store schema snapshot documents as new versions",
		Long: `Read one or more schema snapshot documents (YAML or JSON) and store each
as the next version of its dataset.

A document whose fields and raw form are identical to the dataset's latest
version is not stored again.`,
		Example: `  # Import a snapshot document
  leapschema import snapshots/users.yaml

  # Import an exported schema metadata document under a given dataset
  leapschema import export.json --dataset 'urn:li:dataset:(urn:li:dataPlatform:hive,db.users,PROD)'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Dataset, "dataset", "", "Dataset URN (overrides the document)")
	cmd.Flags().StringVar(&opts.Platform, "platform", "", "Platform name (overrides the document)")

	return cmd
}

type importResult struct {
	File    string `json:"file"`
	URN     string `json:"urn"`
	Version int    `json:"version"`
	Created bool   `json:"created"`
}

func runImport(cmd *cobra.Command, files []string, opts *ImportOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	r := cmdCtx.Renderer
	ctx := cmd.Context()

	results := make([]importResult, 0, len(files))
	for _, file := range files {
		snap, err := snapshotfile.Load(file)
		if err != nil {
			return err
		}
		if err := applyOverrides(snap, opts.Dataset, opts.Platform, cmdCtx.Cfg.Dataset); err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}

		stored, created, err := cmdCtx.Store.SaveSnapshot(ctx, snap)
		if err != nil {
			return fmt.Errorf("failed to store %s: %w", file, err)
		}
		cmdCtx.Logger.Info("imported snapshot",
			"file", file, "urn", stored.DatasetURN, "version", stored.Version, "created", created)

		results = append(results, importResult{
			File:    file,
			URN:     stored.DatasetURN,
			Version: stored.Version,
			Created: created,
		})
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(results)
	}
	for _, res := range results {
		if res.Created {
			r.Success(fmt.Sprintf("%s stored as version %d of %s", res.File, res.Version, res.URN))
		} else {
			r.Println(r.Muted(fmt.Sprintf("%s unchanged (latest is version %d of %s)", res.File, res.Version, res.URN)))
		}
	}
	return nil
}

// applyOverrides sets the dataset and platform from flags, falling back
// to the configured default dataset when the document names none.
func applyOverrides(snap *core.Snapshot, dataset, platform, defaultDataset string) error {
	if dataset != "" {
		snap.DatasetURN = dataset
	}
	if platform != "" {
		snap.Platform = platform
	}
	if snap.DatasetURN == "" {
		snap.DatasetURN = defaultDataset
	}
	if snap.DatasetURN == "" {
		return fmt.Errorf("no dataset URN\nHint: add 'dataset:' to the document or pass --dataset")
	}
	return nil
}
