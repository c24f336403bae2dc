package commands

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapschema/internal/cli/output"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(info BuildInfo) *cobra.Command {
	if info.GoVersion == "" {
		info.GoVersion = runtime.Version()
	}
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display leapschema version and build information. With -o json the build details are printed as an object.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := NewCommandContextWithoutStore(cmd).Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(info)
			}
			r.Printf("leapschema v%s\n", info.Version)
			r.Println("Schema version comparison and field edits for datasets")
			r.Println(r.Muted("commit " + info.Commit + ", built " + info.BuildDate + ", " + info.GoVersion))
			return nil
		},
	}
}
