package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapschema/internal/cli/output"
	"github.com/leapstack-labs/leapschema/pkg/adapter"
)

// CaptureOptions holds options for the capture command.
type CaptureOptions struct {
	Dataset string
	Env     string
}

// NewCaptureCommand creates the capture command.
func NewCaptureCommand() *cobra.Command {
	opts := &CaptureOptions{}

	cmd := &cobra.Command{
		Use:   "capture <table>",
		Short: "Capture a live table's columns as a new schema version",
		Long: `Connect to the capture target configured in leapschema.yaml, read the
columns and comments of a table, and store them as the next version of the
table's dataset.

The dataset URN defaults to urn:li:dataset:(urn:li:dataPlatform:<type>,<schema.table>,<env>).`,
		Example: `  # Capture main.users from the configured DuckDB file
  leapschema capture users

  # Capture a postgres table into an explicit dataset
  leapschema capture analytics.orders --dataset 'urn:li:dataset:(urn:li:dataPlatform:postgres,analytics.orders,PROD)'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapture(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Dataset, "dataset", "", "Dataset URN (default: derived from the table)")
	cmd.Flags().StringVar(&opts.Env, "env", "", "Fabric environment used in the derived URN (default: capture.env)")

	return cmd
}

func runCapture(cmd *cobra.Command, table string, opts *CaptureOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	capture, err := cmdCtx.Cfg.RequireCapture()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	logger := cmdCtx.Logger

	adp, err := adapter.Open(ctx, capture.Target.AdapterConfig(), logger)
	if err != nil {
		return err
	}
	defer func() { _ = adp.Close() }()

	meta, err := adp.GetTableMetadata(ctx, table)
	if err != nil {
		return fmt.Errorf("failed to read table %s: %w", table, err)
	}

	env := opts.Env
	if env == "" {
		env = capture.Env
	}
	snap, err := adapter.ToSnapshot(meta, adp.Platform(), env)
	if err != nil {
		return err
	}
	if opts.Dataset != "" {
		snap.DatasetURN = opts.Dataset
	}

	stored, created, err := cmdCtx.Store.SaveSnapshot(ctx, snap)
	if err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	logger.Info("captured table", "table", table, "urn", stored.DatasetURN, "version", stored.Version, "created", created)

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(importResult{File: table, URN: stored.DatasetURN, Version: stored.Version, Created: created})
	}
	if created {
		r.Success(fmt.Sprintf("captured %d columns of %s as version %d of %s", len(stored.Fields), table, stored.Version, stored.DatasetURN))
	} else {
		r.Println(r.Muted(fmt.Sprintf("%s unchanged (latest is version %d of %s)", table, stored.Version, stored.DatasetURN)))
	}
	return nil
}
