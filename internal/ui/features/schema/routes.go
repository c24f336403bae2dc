package schema

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/leapstack-labs/leapschema/internal/ui/notifier"
)

// SetupRoutes configures routes for the schema feature.
func SetupRoutes(
	router chi.Router,
	versions VersionLister,
	views *Registry,
	sessionStore sessions.Store,
	notify *notifier.Notifier,
	logger *slog.Logger,
) error {
	handlers := NewHandlers(versions, views, sessionStore, notify, logger)

	router.Route("/datasets/{urn}/schema", func(r chi.Router) {
		r.Get("/", handlers.SchemaPage)
		r.Get("/updates", handlers.SchemaUpdates)
		r.Post("/version", handlers.SelectVersion)
		r.Post("/history", handlers.OpenHistory)
		r.Post("/back", handlers.Back)
		r.Post("/mode", handlers.ToggleMode)
		r.Post("/fields/description", handlers.UpdateDescription)
		r.Post("/fields/tags", handlers.UpdateTags)
	})

	return nil
}
