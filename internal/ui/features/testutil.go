// Package features provides shared test utilities for UI feature tests.
package features

import (
	"net/http"
	"path/filepath"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/zsplay/internal/compiler/compilertest"
	"github.com/leapstack-labs/zsplay/internal/highlight"
	"github.com/leapstack-labs/zsplay/internal/session"
	"github.com/leapstack-labs/zsplay/internal/state"
	"github.com/leapstack-labs/zsplay/internal/testutil"
	"github.com/leapstack-labs/zsplay/internal/ui/features/common"
	"github.com/leapstack-labs/zsplay/internal/ui/notifier"
)

// TestSchema is the default schema of fixture sessions.
const TestSchema = "package demo.types;\n\nstruct Point { int32 x; int32 y; };\n"

// TestFixture holds all dependencies needed for UI handler tests.
type TestFixture struct {
	Compiler     *compilertest.Fake
	Store        *state.SQLiteStore
	Manager      *session.Manager
	Notifier     *notifier.Notifier
	SessionStore *sessions.CookieStore
	Highlighter  *highlight.Highlighter
	SamplesDir   string
}

// SetupTestFixture creates a session manager backed by a fake compiler and
// an in-memory history store.
func SetupTestFixture(t *testing.T) *TestFixture {
	t.Helper()

	logger := testutil.NewTestLogger(t)
	tmpDir := t.TempDir()

	store := state.NewSQLiteStore(logger)
	require.NoError(t, store.Open(":memory:"))

	fake := &compilertest.Fake{}
	manager, err := session.NewManager(session.Config{
		Root:          filepath.Join(tmpDir, "sessions"),
		Compiler:      fake,
		Store:         store,
		Logger:        logger,
		DefaultSchema: TestSchema,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = manager.Close()
		_ = store.Close()
	})

	return &TestFixture{
		Compiler:     fake,
		Store:        store,
		Manager:      manager,
		Notifier:     notifier.New(),
		SessionStore: NewTestSessionStore(),
		Highlighter:  highlight.New(""),
		SamplesDir:   filepath.Join(tmpDir, "samples"),
	}
}

// NewSession creates a fresh session in the fixture's manager.
func (f *TestFixture) NewSession(t *testing.T) *session.Session {
	t.Helper()
	s, err := f.Manager.Get(session.NewID())
	require.NoError(t, err)
	return s
}

// RequestWithSession attaches s to the request the way the session
// middleware does.
func RequestWithSession(r *http.Request, s *session.Session) *http.Request {
	return r.WithContext(common.WithSession(r.Context(), s))
}

// NewTestSessionStore creates a session store for testing.
func NewTestSessionStore() *sessions.CookieStore {
	return sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!"))
}
