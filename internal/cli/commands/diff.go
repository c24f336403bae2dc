package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapschema/internal/navigator"
	"github.com/leapstack-labs/leapschema/pkg/rawdiff"
)

// DiffOptions holds options for the diff and raw commands.
type DiffOptions struct {
	Version string
	History bool
	Unified bool
	Context int
}

// NewDiffCommand creates the diff command.
func NewDiffCommand() *cobra.Command {
	opts := &DiffOptions{}

	cmd := &cobra.Command{
		Use:   "diff [urn]",
		Short: "Compare a schema version with its predecessor",
		Long: `Show the fields of a dataset's schema.

Without flags the live schema is shown with its field edits applied.
With --history the live schema is classified against the version before it:
each field is marked added, removed, description updated or unchanged.
With --version N, version N is compared with version N-1. Zero and negative
values count back from the latest version (0 is latest, -1 the one before).`,
		Example: `  # Live schema with edits
  leapschema diff

  # What changed in the latest version
  leapschema diff --history

  # What changed in version 3
  leapschema diff --version 3

  # The version before the latest as markdown
  leapschema diff --version -1 -o markdown`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd, args, opts, navigator.ModeTabular)
		},
	}

	cmd.Flags().StringVar(&opts.Version, "version", "", "Version to compare with its predecessor")
	cmd.Flags().BoolVar(&opts.History, "history", false, "Classify the live schema against its predecessor")

	return cmd
}

// NewRawCommand creates the raw command.
func NewRawCommand() *cobra.Command {
	opts := &DiffOptions{}

	cmd := &cobra.Command{
		Use:   "raw [urn]",
		Short: "Show the raw schema document or its line diff",
		Long: `Show the raw serialized schema of a dataset, pretty-printed when it is JSON.

With --history or --version the raw form is diffed line by line against the
preceding version: lines prefixed "+ " were inserted, "- " were deleted.`,
		Example: `  # Raw document of the latest version
  leapschema raw

  # Line diff of version 4 against version 3
  leapschema raw --version 4

  # Unified diff with 3 lines of context
  leapschema raw --version 4 --unified`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd, args, opts, navigator.ModeRaw)
		},
	}

	cmd.Flags().StringVar(&opts.Version, "version", "", "Version to diff against its predecessor")
	cmd.Flags().BoolVar(&opts.History, "history", false, "Diff the live raw form against its predecessor")
	cmd.Flags().BoolVar(&opts.Unified, "unified", false, "Print a unified diff instead of the marked line view")
	cmd.Flags().IntVar(&opts.Context, "context", 3, "Context lines for --unified")

	return cmd
}

func runCompare(cmd *cobra.Command, args []string, opts *DiffOptions, mode navigator.Mode) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	urn, err := cmdCtx.Cfg.RequireDataset(args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	view, err := cmdCtx.OpenView(ctx, urn)
	if err != nil {
		return err
	}
	nav := view.Navigator()

	switch {
	case opts.Version != "":
		ref, err := strconv.Atoi(opts.Version)
		if err != nil {
			return fmt.Errorf("invalid --version %q: %w", opts.Version, err)
		}
		if err := selectVersion(ctx, view, ref); err != nil {
			return err
		}
	case opts.History:
		nav.OpenHistory()
	}

	if mode == navigator.ModeRaw {
		if !nav.State().RawAvailable() {
			return fmt.Errorf("version %d of %s has no raw form", nav.State().Displayed.Newer, urn)
		}
		if err := nav.SetMode(navigator.ModeRaw); err != nil {
			return err
		}
	}

	rendered := view.Render()
	if opts.Unified && rendered.State.HistoryEnabled {
		st := rendered.State
		var olderRaw string
		if st.Older != nil {
			olderRaw = st.Older.RawForm
		}
		text, err := rawdiff.Unified(olderRaw, st.Newer.RawForm,
			fmt.Sprintf("version %d", st.Displayed.Older), fmt.Sprintf("version %d", st.Displayed.Newer), opts.Context)
		if err != nil {
			return err
		}
		cmdCtx.Renderer.Printf("%s", text)
		return nil
	}

	return cmdCtx.Renderer.Comparison(toComparison(rendered))
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
