package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/zsplay/internal/compiler/compilertest"
	"github.com/leapstack-labs/zsplay/internal/session"
	"github.com/leapstack-labs/zsplay/internal/testutil"
	"github.com/leapstack-labs/zsplay/internal/ui/notifier"
)

func newTestServer(t *testing.T, samplesDir string) *Server {
	t.Helper()
	logger := testutil.NewTestLogger(t)
	manager, err := session.NewManager(session.Config{
		Root:     filepath.Join(t.TempDir(), "sessions"),
		Compiler: &compilertest.Fake{},
		Logger:   logger,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })

	return NewServer(Config{
		Manager:       manager,
		Watch:         true,
		SessionSecret: "0123456789abcdef0123456789abcdef",
		SamplesDir:    samplesDir,
		Logger:        logger,
	})
}

func TestServer_Handler(t *testing.T) {
	srv := newTestServer(t, "")
	h, err := srv.Handler()
	require.NoError(t, err)

	ts := httptest.NewServer(h)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Cookies())
}

func TestServer_WatchSamples(t *testing.T) {
	dir := t.TempDir()
	srv := newTestServer(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := srv.Notifier().Subscribe()
	defer srv.Notifier().Unsubscribe(updates)

	done := make(chan error, 1)
	go func() { done <- srv.watchSamples(ctx) }()

	// Give the watcher time to register before writing.
	time.Sleep(50 * time.Millisecond)
	testutil.WriteFile(t, dir, "notes.txt", "ignored")
	path := testutil.WriteFile(t, dir, "added.zs", "package added;")

	select {
	case ev := <-updates:
		assert.Equal(t, notifier.SamplesChanged, ev.Kind)
		assert.Equal(t, path, ev.Path)
	case <-time.After(2 * time.Second):
		t.Fatal("no samples event")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestServer_WatchMissingDirectory(t *testing.T) {
	srv := newTestServer(t, filepath.Join(t.TempDir(), "missing"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.NoError(t, srv.watchSamples(ctx))
}
