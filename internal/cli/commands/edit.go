package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapschema/internal/schemaview"
	"github.com/leapstack-labs/leapschema/pkg/core"
)

// NewEditCommand creates the edit command group.
func NewEditCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit field descriptions and tags",
		Long: `Record a field edit in the dataset's overlay and persist it.

Edits apply to the live schema. A field path that is not in the current
schema is accepted, so edits survive fields being renamed or removed.`,
	}

	cmd.PersistentFlags().String("dataset", "", "Dataset URN (default: configured dataset)")
	cmd.AddCommand(newEditDescriptionCommand())
	cmd.AddCommand(newEditTagsCommand())

	return cmd
}

func newEditDescriptionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "description <field-path> <text>",
		Short: "Set the description of a field",
		Long: `Set the description of a field. HTML input is converted to markdown.
An empty text clears the description.`,
		Example: `  leapschema edit description user.id "Primary key"
  leapschema edit description address.zip "<p>The <b>postal</b> code</p>"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, args[0], func(ctx context.Context, view *schemaview.View, row *core.FieldDiffRow) error {
				return view.OnUpdateDescription(ctx, args[1], row)
			})
		},
	}
}

func newEditTagsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tags <field-path> [tag...]",
		Short: "Set the tags of a field",
		Long: `Replace the tags of a field. Tags are URNs; a bare name is expanded to
urn:li:tag:<name>. Giving no tags clears them.`,
		Example: `  leapschema edit tags email pii gdpr
  leapschema edit tags email urn:li:tag:pii
  leapschema edit tags email`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			update := core.ConvertTagsForUpdate(core.ParseTags(args[1:]))
			return runEdit(cmd, args[0], func(ctx context.Context, view *schemaview.View, row *core.FieldDiffRow) error {
				return view.OnUpdateTags(ctx, update, row)
			})
		},
	}
}

func runEdit(cmd *cobra.Command, fieldPath string, apply func(context.Context, *schemaview.View, *core.FieldDiffRow) error) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	dataset, _ := cmd.Flags().GetString("dataset")
	urn, err := cmdCtx.Cfg.RequireDataset([]string{dataset})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	view, err := cmdCtx.OpenView(ctx, urn)
	if err != nil {
		return err
	}

	row := view.Row(fieldPath)
	if row == nil {
		cmdCtx.Renderer.Warning(fmt.Sprintf("%s is not in the current schema of %s; recording the edit anyway", fieldPath, urn))
		row = &core.FieldDiffRow{Field: core.SchemaField{Path: fieldPath}, Key: fieldPath}
	}

	if err := apply(ctx, view, row); err != nil {
		return err
	}

	cmdCtx.Renderer.Success(fmt.Sprintf("updated %s (%d edited fields)", fieldPath, len(view.Edits())))
	return nil
}

// NewEditsCommand creates the edits command.
func NewEditsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edits [urn]",
		Short: "Show the persisted field edits of a dataset",
		Long: `Show the overlay of field edits recorded for a dataset, in the order the
fields were first edited. With -o json this is the update payload sent on
every persist.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			urn, err := cmdCtx.Cfg.RequireDataset(args)
			if err != nil {
				return err
			}
			entries, err := cmdCtx.Store.LoadEdits(cmd.Context(), urn)
			if err != nil {
				return err
			}
			return cmdCtx.Renderer.Edits(urn, toEditInfos(entries))
		},
	}
}
