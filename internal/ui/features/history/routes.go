// Package history provides the build and script-run history page.
package history

import (
	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/zsplay/internal/state"
)

// SetupRoutes configures routes for the history feature.
func SetupRoutes(router chi.Router, store state.Store, isDev bool) error {
	handlers := NewHandlers(store, isDev)

	router.Get("/history", handlers.HistoryPage)

	return nil
}
