// Package home provides the dataset index page for the UI.
package home

import (
	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/leapschema/internal/ui/notifier"
)

// SetupRoutes configures routes for the home feature.
func SetupRoutes(router chi.Router, datasets DatasetLister, notify *notifier.Notifier) error {
	handlers := NewHandlers(datasets, notify)

	router.Get("/", handlers.HomePage)
	router.Get("/updates", handlers.HomePageUpdates)

	return nil
}
