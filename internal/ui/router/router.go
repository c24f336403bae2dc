// Package router sets up HTTP routes for the UI server.
package router

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	homeFeature "github.com/leapstack-labs/leapschema/internal/ui/features/home"
	schemaFeature "github.com/leapstack-labs/leapschema/internal/ui/features/schema"
	"github.com/leapstack-labs/leapschema/internal/state"
	"github.com/leapstack-labs/leapschema/internal/ui/notifier"
	"github.com/leapstack-labs/leapschema/internal/ui/resources"
)

// SetupRoutes configures all routes for the UI server.
func SetupRoutes(
	router chi.Router,
	store *state.SQLiteStore,
	views *schemaFeature.Registry,
	sessionStore sessions.Store,
	notify *notifier.Notifier,
	logger *slog.Logger,
) error {
	// Static assets
	router.Handle(resources.URLPrefix+"*", resources.Handler())

	if err := homeFeature.SetupRoutes(router, store, notify); err != nil {
		return err
	}

	if err := schemaFeature.SetupRoutes(router, store, views, sessionStore, notify, logger); err != nil {
		return err
	}

	return nil
}
