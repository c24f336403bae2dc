package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapschema/internal/cli/output"
	"github.com/leapstack-labs/leapschema/internal/navigator"
	"github.com/leapstack-labs/leapschema/internal/schemaview"
	"github.com/leapstack-labs/leapschema/pkg/core"
)

// NewBrowseCommand creates the browse command.
func NewBrowseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse [urn]",
		Short: "Interactively browse a dataset's schema versions",
		Long: `Open an interactive session on a dataset's schema.

The session starts on the live schema. Use "history" to classify it against
its predecessor, "version N" to compare any version with the one before it,
and "back" to return to the live schema. Type "help" for all commands.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(cmd, args)
		},
	}
}

// browseSession is the state of one interactive browse session.
type browseSession struct {
	view *schemaview.View
	r    *output.Renderer
	w    io.Writer
}

func runBrowse(cmd *cobra.Command, args []string) error {
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

	historyFile := ""
	if cmdCtx.Cfg.StatePath != ":memory:" {
		historyFile = filepath.Join(filepath.Dir(cmdCtx.Cfg.StatePath), "browse_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          browsePrompt(view.Navigator().State()),
		HistoryFile:     historyFile,
		AutoComplete:    newBrowseCompleter(view),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	s := &browseSession{view: view, r: cmdCtx.Renderer, w: cmd.OutOrStdout()}

	_, _ = fmt.Fprintf(s.w, "Browsing %s (latest version %d)\n", urn, view.Navigator().State().Latest)
	_, _ = fmt.Fprintln(s.w, `Type "help" for commands, "quit" to exit`)
	_, _ = fmt.Fprintln(s.w)
	_ = s.show()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		quit, err := s.handle(ctx, line)
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		if quit {
			break
		}
		rl.SetPrompt(browsePrompt(view.Navigator().State()))
	}

	return nil
}

func browsePrompt(st navigator.State) string {
	if st.HistoryEnabled {
		return fmt.Sprintf("v%d..v%d> ", st.Displayed.Older, st.Displayed.Newer)
	}
	return fmt.Sprintf("live(v%d)> ", st.Latest)
}

// handle runs one REPL line. It reports whether the session should end.
func (s *browseSession) handle(ctx context.Context, line string) (bool, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false, nil
	}
	nav := s.view.Navigator()

	switch strings.ToLower(parts[0]) {
	case "quit", "exit", ".quit":
		return true, nil

	case "help", "?":
		printBrowseHelp(s.w)
		return false, nil

	case "show", "ls":
		return false, s.show()

	case "history":
		nav.OpenHistory()
		return false, s.show()

	case "version", "v":
		if len(parts) != 2 {
			return false, errors.New("usage: version <n>")
		}
		ref, err := strconv.Atoi(parts[1])
		if err != nil {
			return false, fmt.Errorf("invalid version %q", parts[1])
		}
		if err := selectVersion(ctx, s.view, ref); err != nil {
			return false, err
		}
		return false, s.show()

	case "back", "live":
		nav.Back()
		return false, s.show()

	case "raw":
		if !nav.State().RawAvailable() {
			return false, errors.New("the displayed version has no raw form")
		}
		if err := nav.SetMode(navigator.ModeRaw); err != nil {
			return false, err
		}
		return false, s.show()

	case "table", "tabular":
		if err := nav.SetMode(navigator.ModeTabular); err != nil {
			return false, err
		}
		return false, s.show()

	case "describe":
		if len(parts) < 2 {
			return false, errors.New("usage: describe <field-path> <text>")
		}
		rest := strings.TrimSpace(strings.TrimSpace(line)[len(parts[0]):])
		text := strings.TrimSpace(rest[len(parts[1]):])
		row := s.editRow(parts[1])
		if err := s.view.OnUpdateDescription(ctx, text, row); err != nil {
			return false, err
		}
		s.r.Success("updated " + parts[1])
		return false, nil

	case "tag", "tags":
		if len(parts) < 2 {
			return false, errors.New("usage: tags <field-path> [tag...]")
		}
		row := s.editRow(parts[1])
		if err := s.view.OnUpdateTags(ctx, core.ConvertTagsForUpdate(core.ParseTags(parts[2:])), row); err != nil {
			return false, err
		}
		s.r.Success("updated " + parts[1])
		return false, nil

	default:
		return false, fmt.Errorf("unknown command: %s (type help for commands)", parts[0])
	}
}

func (s *browseSession) editRow(path string) *core.FieldDiffRow {
	if row := s.view.Row(path); row != nil {
		return row
	}
	return &core.FieldDiffRow{Field: core.SchemaField{Path: path}, Key: path}
}

func (s *browseSession) show() error {
	return s.r.Comparison(toComparison(s.view.Render()))
}

func printBrowseHelp(w io.Writer) {
	help := `
Commands:
  show                        Show the current comparison
  history                     Classify the live schema against its predecessor
  version <n>                 Compare version n with n-1 (0 = latest, -1 = previous)
  back                        Return to the live schema
  raw | table                 Switch between raw and tabular presentation
  describe <field> <text>     Set a field description (live schema only)
  tags <field> [tag...]       Set field tags (live schema only)
  help                        Show this help message
  quit                        Exit
`
	_, _ = fmt.Fprintln(w, help)
}

// newBrowseCompleter completes commands and the live field paths.
func newBrowseCompleter(view *schemaview.View) *readline.PrefixCompleter {
	var fields []readline.PrefixCompleterInterface
	for _, row := range view.Render().Rows {
		fields = append(fields, readline.PcItem(row.Field.Path))
	}

	return readline.NewPrefixCompleter(
		readline.PcItem("show"),
		readline.PcItem("history"),
		readline.PcItem("version"),
		readline.PcItem("back"),
		readline.PcItem("raw"),
		readline.PcItem("table"),
		readline.PcItem("describe", fields...),
		readline.PcItem("tags", fields...),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
}
