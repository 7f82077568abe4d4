// Package playground provides the schema editor, source browser and script
// runner of the UI.
package playground

import (
	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/zsplay/internal/highlight"
	"github.com/leapstack-labs/zsplay/internal/ui/notifier"
)

// SetupRoutes configures routes for the playground feature.
func SetupRoutes(
	router chi.Router,
	highlighter *highlight.Highlighter,
	samplesDir string,
	notify *notifier.Notifier,
	isDev bool,
) error {
	handlers := NewHandlers(highlighter, samplesDir, notify, isDev)

	router.Get("/", handlers.PlaygroundPage)
	router.Get("/updates", handlers.PlaygroundUpdates)
	router.Get("/highlight.css", handlers.HighlightCSS)
	router.Post("/compile", handlers.CompileSSE)
	router.Post("/exec", handlers.ExecSSE)
	router.Post("/upload", handlers.Upload)
	router.Get("/samples/{name}", handlers.LoadSample)
	router.Get("/download", handlers.Download)

	return nil
}
