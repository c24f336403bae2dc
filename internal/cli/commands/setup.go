package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapschema/internal/cli/config"
	"github.com/leapstack-labs/leapschema/internal/cli/output"
	intconfig "github.com/leapstack-labs/leapschema/internal/config"
	"github.com/leapstack-labs/leapschema/internal/navigator"
	"github.com/leapstack-labs/leapschema/internal/schemaview"
	"github.com/leapstack-labs/leapschema/internal/state"
	"github.com/leapstack-labs/leapschema/pkg/core"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Store    *state.SQLiteStore
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with an open state store.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cmdCtx := NewCommandContextWithoutStore(cmd)

	store, err := openStore(cmdCtx.Cfg.StatePath)
	if err != nil {
		return nil, nil, err
	}
	cmdCtx.Store = store

	cleanup := func() {
		_ = store.Close()
	}
	return cmdCtx, cleanup, nil
}

// NewCommandContextWithoutStore creates a CommandContext without a state store.
func NewCommandContextWithoutStore(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// OpenView opens a live schema view for urn backed by the state store.
func (c *CommandContext) OpenView(ctx context.Context, urn string) (*schemaview.View, error) {
	view := schemaview.New(c.Store, urn, schemaview.Config{
		MergePolicy:       c.Cfg.Overlay.Policy(),
		RollbackOnFailure: c.Cfg.Overlay.RollbackOnFailure,
		FetchTimeout:      c.Cfg.FetchTimeout,
		Logger:            c.Logger,
	})
	if err := view.Open(ctx); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", urn, err)
	}
	return view, nil
}

// Helper functions shared across commands

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	return &config.Config{
		StatePath:    getEnvOrDefault("LEAPSCHEMA_STATE_PATH", intconfig.DefaultStateFile),
		Verbose:      os.Getenv("LEAPSCHEMA_VERBOSE") == "true",
		OutputFormat: os.Getenv("LEAPSCHEMA_OUTPUT"),
		Dataset:      os.Getenv("LEAPSCHEMA_DATASET"),
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func openStore(statePath string) (*state.SQLiteStore, error) {
	if statePath != ":memory:" {
		stateDir := filepath.Dir(statePath)
		if stateDir != "." && stateDir != "" {
			if err := os.MkdirAll(stateDir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}

	store := state.NewSQLiteStore()
	if err := store.Open(statePath); err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	if err := store.InitSchema(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize state store: %w", err)
	}
	return store, nil
}

// selectVersion moves view to the version ref (absolute, or relative when
// <= 0) and waits for the fetch to resolve.
func selectVersion(ctx context.Context, view *schemaview.View, ref int) error {
	nav := view.Navigator()
	v, err := state.RelativeToAbsolute(nav.State().Latest, ref)
	if err != nil {
		return err
	}

	ch, err := nav.Select(ctx, v)
	if err != nil {
		return err
	}

	select {
	case out := <-ch:
		return out.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// toComparison converts a rendered view into the output DTO.
func toComparison(r schemaview.Rendered) output.Comparison {
	c := output.Comparison{
		URN:      r.URN,
		Heading:  r.Heading,
		Mode:     string(r.State.Mode),
		Phase:    string(r.State.Phase),
		Editable: r.Editable,
		Summary:  r.SummaryLines,
	}
	if r.State.Mode == navigator.ModeRaw {
		c.Raw = r.Raw.Text
		return c
	}

	c.Rows = make([]output.FieldRow, 0, len(r.Rows))
	for _, row := range r.Rows {
		c.Rows = append(c.Rows, output.FieldRow{
			Path:        row.Field.Path,
			Status:      string(row.Status),
			Type:        row.Field.Type.String(),
			Description: row.EffectiveDescription(),
			Tags:        tagLabels(row.EffectiveTags()),
			Depth:       row.Depth,
			Edited:      row.Edit != nil,
		})
	}
	return c
}

func tagLabels(tags []core.TagRef) []string {
	if len(tags) == 0 {
		return nil
	}
	labels := make([]string, 0, len(tags))
	for _, t := range tags {
		if t.Name != "" {
			labels = append(labels, t.Name)
		} else {
			labels = append(labels, t.URN)
		}
	}
	return labels
}

func toEditInfos(entries []core.EditOverlayEntry) []output.EditInfo {
	infos := make([]output.EditInfo, 0, len(entries))
	for _, e := range entries {
		info := output.EditInfo{FieldPath: e.FieldPath, Description: e.Description}
		if e.Tags != nil {
			info.Tags = make([]string, 0, len(e.Tags))
			for _, t := range e.Tags {
				info.Tags = append(info.Tags, t.URN)
			}
		}
		infos = append(infos, info)
	}
	return infos
}
