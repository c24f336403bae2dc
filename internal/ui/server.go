// Package ui provides the web UI for browsing and editing dataset schemas.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapschema/pkg/overlay"
	"github.com/leapstack-labs/leapschema/internal/schemaview"
	"github.com/leapstack-labs/leapschema/internal/snapshotfile"
	"github.com/leapstack-labs/leapschema/internal/state"
	schemaFeature "github.com/leapstack-labs/leapschema/internal/ui/features/schema"
	"github.com/leapstack-labs/leapschema/internal/ui/notifier"
	"github.com/leapstack-labs/leapschema/internal/ui/router"
)

// Server is the main UI server.
type Server struct {
	store        *state.SQLiteStore
	sessionStore *sessions.CookieStore
	port         int
	watch        bool
	watchDir     string
	logger       *slog.Logger
	notifier     *notifier.Notifier
	views        *schemaFeature.Registry
}

// Config holds configuration for the UI server.
type Config struct {
	Store             *state.SQLiteStore
	Port              int
	Watch             bool
	WatchDir          string
	SessionSecret     string
	MergePolicy       overlay.MergePolicy
	RollbackOnFailure bool
	FetchTimeout      time.Duration
	Logger            *slog.Logger
}

// NewServer creates a new UI server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.MaxAge(86400 * 30) // 30 days
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	notify := notifier.New()
	views := schemaFeature.NewRegistry(cfg.Store, schemaview.Config{
		MergePolicy:       cfg.MergePolicy,
		RollbackOnFailure: cfg.RollbackOnFailure,
		FetchTimeout:      cfg.FetchTimeout,
		Logger:            logger,
	}, notify)

	return &Server{
		store:        cfg.Store,
		sessionStore: sessionStore,
		port:         cfg.Port,
		watch:        cfg.Watch,
		watchDir:     cfg.WatchDir,
		logger:       logger,
		notifier:     notify,
		views:        views,
	}
}

// Handler builds the server's HTTP handler.
func (s *Server) Handler() (http.Handler, error) {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	if err := router.SetupRoutes(r, s.store, s.views, s.sessionStore, s.notifier, s.logger); err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}
	return r, nil
}

// Serve starts the UI server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting UI server", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	eg, egctx := errgroup.WithContext(ctx)

	handler, err := s.Handler()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch {
		eg.Go(func() error {
			return s.watchFiles(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down UI server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// Notifier returns the server's notifier for SSE updates.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}

// watchFiles imports snapshot files written to the watch directory.
func (s *Server) watchFiles(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := os.MkdirAll(s.watchDir, 0o755); err != nil {
		return fmt.Errorf("create watch directory: %w", err)
	}
	if err := watchDirRecursive(watcher, s.watchDir); err != nil {
		// Continue without watching
		s.logger.Error("failed to watch snapshot directory", "dir", s.watchDir, "error", err)
	}

	// Debounce per file; editors often write a file in several steps.
	var mu sync.Mutex
	timers := make(map[string]*time.Timer)

	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			for _, t := range timers {
				t.Stop()
			}
			mu.Unlock()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !snapshotfile.IsSnapshotFile(event.Name) {
				continue
			}

			name := event.Name
			mu.Lock()
			if t, ok := timers[name]; ok {
				t.Stop()
			}
			timers[name] = time.AfterFunc(100*time.Millisecond, func() {
				mu.Lock()
				delete(timers, name)
				mu.Unlock()
				s.importFile(ctx, name)
			})
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}

// importFile stores a snapshot file and refreshes the views of its dataset.
func (s *Server) importFile(ctx context.Context, path string) {
	snap, err := snapshotfile.Load(path)
	if err != nil {
		s.logger.Warn("skipping snapshot file", "file", path, "error", err)
		return
	}

	saved, created, err := s.store.SaveSnapshot(ctx, snap)
	if err != nil {
		s.logger.Error("import snapshot failed", "file", path, "error", err)
		return
	}
	if !created {
		s.logger.Debug("snapshot unchanged, not stored", "file", path, "urn", saved.DatasetURN, "version", saved.Version)
		return
	}
	s.logger.Info("imported snapshot", "file", path, "urn", saved.DatasetURN, "version", saved.Version)

	if err := s.views.RefreshDataset(ctx, saved.DatasetURN); err != nil {
		s.logger.Error("refresh views failed", "urn", saved.DatasetURN, "error", err)
	}
	s.notifier.Broadcast(saved.DatasetURN)
}

// watchDirRecursive adds a directory and all subdirectories to the watcher.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
