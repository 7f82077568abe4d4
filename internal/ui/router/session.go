package router

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/leapstack-labs/zsplay/internal/session"
	"github.com/leapstack-labs/zsplay/internal/ui/features/common"
)

const (
	// CookieName is the name of the session cookie.
	CookieName = "zsplay"

	sessionIDKey = "id"
)

// SessionMiddleware resolves the playground session of the browser,
// issuing a new session cookie when there is none, and stores it in the
// request context.
func SessionMiddleware(store sessions.Store, manager *session.Manager, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// A cookie that fails to decode yields a fresh session.
			cookie, _ := store.Get(r, CookieName)

			id, _ := cookie.Values[sessionIDKey].(string)
			s, err := manager.Get(id)
			if err != nil {
				id = session.NewID()
				cookie.Values[sessionIDKey] = id
				if err := cookie.Save(r, w); err != nil {
					http.Error(w, "failed to save session: "+err.Error(), http.StatusInternalServerError)
					return
				}
				if s, err = manager.Get(id); err != nil {
					http.Error(w, err.Error(), http.StatusInternalServerError)
					return
				}
				logger.Debug("issued session cookie", slog.String("session", id))
			}

			next.ServeHTTP(w, r.WithContext(common.WithSession(r.Context(), s)))
		})
	}
}
