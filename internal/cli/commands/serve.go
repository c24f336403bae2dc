package commands

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapschema/internal/ui"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Port     int
	Watch    bool
	WatchDir string
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the schema comparison web UI",
		Long: `Start a local web server to browse and edit dataset schemas.

The UI provides:
- Live schema with inline description and tag edits
- Version history browsing with added/removed/updated markers
- Raw schema view and raw line diff
- Automatic ingestion of snapshot files dropped into the watch directory`,
		Example: `  # Start UI on default port
  leapschema serve

  # Start on custom port without watching for snapshot files
  leapschema serve --port 3000 --watch=false`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default: ui.port)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "Watch the snapshot directory for new files")
	cmd.Flags().StringVar(&opts.WatchDir, "watch-dir", "", "Snapshot directory to watch (default: ui.watch_dir)")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg := cmdCtx.Cfg
	uiCfg := cfg.GetUIConfig()

	// CLI flags override config file
	port := uiCfg.Port
	if opts.Port != 0 {
		port = opts.Port
	}
	watch := uiCfg.Watch
	if cmd.Flags().Changed("watch") {
		watch = opts.Watch
	}
	watchDir := uiCfg.WatchDir
	if opts.WatchDir != "" {
		watchDir = opts.WatchDir
	}

	secret := uiCfg.SessionSecret
	if secret == "" {
		secret, err = randomSecret()
		if err != nil {
			return err
		}
		cmdCtx.Logger.Debug("no ui.session_secret configured, sessions will not survive a restart")
	}

	server := ui.NewServer(ui.Config{
		Store:             cmdCtx.Store,
		Port:              port,
		Watch:             watch,
		WatchDir:          watchDir,
		SessionSecret:     secret,
		MergePolicy:       cfg.Overlay.Policy(),
		RollbackOnFailure: cfg.Overlay.RollbackOnFailure,
		FetchTimeout:      cfg.FetchTimeout,
		Logger:            cmdCtx.Logger,
	})

	r := cmdCtx.Renderer
	r.Printf("Starting UI server on http://localhost:%d\n", port)
	if watch {
		r.Printf("Watching %s for snapshot files\n", watchDir)
	}
	r.Println("Press Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.Serve(ctx)
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

