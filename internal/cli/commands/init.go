package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/leapschema/internal/cli/output"
	"github.com/leapstack-labs/leapschema/internal/config"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool
	var example bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new LeapSchema project",
		Long: `Initialize a new LeapSchema project with a default configuration.

This creates:
  - leapschema.yaml configuration file
  - snapshots/ directory watched by 'leapschema serve'
  - .gitignore excluding the local state store

Use --example to also create two versions of a sample dataset snapshot.`,
		Example: `  # Initialize in current directory
  leapschema init

  # Initialize with sample snapshots
  leapschema init --example

  # Initialize in a new directory
  leapschema init my-schemas --example

  # Force overwrite existing config
  leapschema init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			cfg := getConfig()
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

			template := "minimal"
			if example {
				template = "example"
			}
			return runInit(r, dir, template, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")
	cmd.Flags().BoolVar(&example, "example", false, "Create sample snapshots of an example dataset")

	return cmd
}

func runInit(r *output.Renderer, dir, template string, force bool) error {
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	configPath := filepath.Join(dir, config.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", config.ConfigFileName)
	}

	res, err := scaffold(template, dir, force)
	if err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	titleCaser := cases.Title(language.English)
	for i, group := range []string{"config", "snapshots"} {
		if i > 0 {
			r.Println("")
		}
		r.Header(2, titleCaser.String(group))
		for _, f := range res.Written {
			if f.group() == group {
				r.StatusLine(f.dest, "success", "")
			}
		}
		for _, f := range res.Kept {
			if f.group() == group {
				r.StatusLine(f.dest, "skipped", "exists, use --force to overwrite")
			}
		}
	}

	r.Println("")
	r.Success("LeapSchema project initialized!")
	r.Println("")
	r.Println("Next steps:")
	if template == "example" {
		r.Println("  leapschema import snapshots/orders_v1.yaml snapshots/orders_v2.yaml")
		r.Println("  leapschema diff --history     Compare the two versions")
		r.Println("  leapschema serve              Browse and edit in the web UI")
	} else {
		r.Println("  1. Export or capture schema snapshots into snapshots/")
		r.Println("  2. Run 'leapschema import <file>' to store them")
		r.Println("  3. Run 'leapschema serve' to browse versions and edit fields")
	}

	return nil
}
