package history

import (
	"net/http"

	"github.com/leapstack-labs/zsplay/internal/state"
	"github.com/leapstack-labs/zsplay/internal/ui/features/common"
	"github.com/leapstack-labs/zsplay/internal/ui/features/common/components"
)

const pageLimit = 100

// Handlers provides HTTP handlers for the history feature.
type Handlers struct {
	store state.Store
	isDev bool
}

// NewHandlers creates a new Handlers instance. A nil store renders an
// empty page.
func NewHandlers(store state.Store, isDev bool) *Handlers {
	return &Handlers{store: store, isDev: isDev}
}

// HistoryPage renders the builds and script runs of the current session,
// or of all sessions with ?all=1.
func (h *Handlers) HistoryPage(w http.ResponseWriter, r *http.Request) {
	data := components.HistoryData{
		Title:      "History",
		IsDev:      h.isDev,
		AllSession: r.URL.Query().Get("all") == "1",
	}
	if s, ok := common.SessionFrom(r.Context()); ok {
		data.SessionID = s.ID
	}

	if h.store == nil {
		data.Error = "History is disabled."
	} else if err := h.load(r, &data); err != nil {
		data.Error = err.Error()
	}

	if err := components.History(data).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handlers) load(r *http.Request, data *components.HistoryData) error {
	ctx := r.Context()
	sessionID := data.SessionID
	if data.AllSession {
		sessionID = ""
	}

	builds, err := h.store.ListBuilds(ctx, sessionID, pageLimit)
	if err != nil {
		return err
	}
	execs, err := h.store.ListExecutions(ctx, sessionID, pageLimit)
	if err != nil {
		return err
	}
	stats, err := h.store.Stats(ctx)
	if err != nil {
		return err
	}

	data.Builds, data.Executions, data.Stats = builds, execs, stats
	return nil
}
