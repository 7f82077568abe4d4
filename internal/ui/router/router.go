// Package router sets up HTTP routes for the UI server.
package router

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/zsplay/internal/highlight"
	"github.com/leapstack-labs/zsplay/internal/session"
	"github.com/leapstack-labs/zsplay/internal/state"
	historyFeature "github.com/leapstack-labs/zsplay/internal/ui/features/history"
	playgroundFeature "github.com/leapstack-labs/zsplay/internal/ui/features/playground"
	"github.com/leapstack-labs/zsplay/internal/ui/notifier"
	"github.com/leapstack-labs/zsplay/internal/ui/resources"
)

// Deps are the collaborators shared by all feature routes.
type Deps struct {
	Manager      *session.Manager
	Store        state.Store
	SessionStore sessions.Store
	Notifier     *notifier.Notifier
	Highlighter  *highlight.Highlighter
	SamplesDir   string
	Logger       *slog.Logger
}

// SetupRoutes configures all routes for the UI server.
func SetupRoutes(router chi.Router, deps Deps, isDev bool) error {
	// Hot reload endpoint for dev mode
	if isDev {
		setupReload(router)
	}

	// Static assets
	router.Handle("/static/*", resources.Handler())

	var err error
	router.Group(func(r chi.Router) {
		r.Use(SessionMiddleware(deps.SessionStore, deps.Manager, deps.Logger))

		if err = playgroundFeature.SetupRoutes(r, deps.Highlighter, deps.SamplesDir, deps.Notifier, isDev); err != nil {
			return
		}
		err = historyFeature.SetupRoutes(r, deps.Store, isDev)
	})
	return err
}

func setupReload(router chi.Router) {
	reloadChan := make(chan struct{}, 1)
	var hotReloadOnce sync.Once

	router.Get("/reload", func(w http.ResponseWriter, r *http.Request) {
		sse := datastar.NewSSE(w, r)
		reload := func() { _ = sse.ExecuteScript("window.location.reload()") }
		hotReloadOnce.Do(reload)
		select {
		case <-reloadChan:
			reload()
		case <-r.Context().Done():
		}
	})

	router.Get("/hotreload", func(w http.ResponseWriter, _ *http.Request) {
		select {
		case reloadChan <- struct{}{}:
		default:
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}
