package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapschema/internal/cli/output"
)

// NewVersionsCommand creates the versions command.
func NewVersionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions [urn]",
		Short: "List the stored schema versions of a dataset",
		Long: `List every stored schema version of a dataset, oldest first.

Without a URN the configured default dataset is used. With --all, the
datasets known to the state store are listed instead.`,
		Example: `  # Versions of the default dataset
  leapschema versions

  # Versions of a specific dataset as JSON
  leapschema versions 'urn:li:dataset:(urn:li:dataPlatform:hive,db.users,PROD)' -o json

  # Known datasets
  leapschema versions --all`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			if all {
				return runDatasets(cmd)
			}
			return runVersions(cmd, args)
		},
	}

	cmd.Flags().Bool("all", false, "List datasets instead of versions")

	return cmd
}

func runVersions(cmd *cobra.Command, args []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	urn, err := cmdCtx.Cfg.RequireDataset(args)
	if err != nil {
		return err
	}

	versions, err := cmdCtx.Store.ListVersions(cmd.Context(), urn)
	if err != nil {
		return err
	}

	infos := make([]output.VersionInfo, 0, len(versions))
	for _, v := range versions {
		infos = append(infos, output.VersionInfo{
			Version:    v.Version,
			FieldCount: v.FieldCount,
			Hash:       v.Hash,
			CreatedAt:  v.CreatedAt.Format(time.RFC3339),
		})
	}
	return cmdCtx.Renderer.Versions(urn, infos)
}

func runDatasets(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	datasets, err := cmdCtx.Store.ListDatasets(cmd.Context())
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(datasets)
	}

	r.Header(1, "Datasets")
	if len(datasets) == 0 {
		r.Println(r.Muted("(no datasets)"))
		return nil
	}
	for _, d := range datasets {
		r.Println(output.FormatKeyValue(d.URN, "latest version "+itoa(d.LatestVersion)))
	}
	return nil
}
