// Package ui provides the web playground of zsplay.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/zsplay/internal/highlight"
	"github.com/leapstack-labs/zsplay/internal/samples"
	"github.com/leapstack-labs/zsplay/internal/session"
	"github.com/leapstack-labs/zsplay/internal/state"
	"github.com/leapstack-labs/zsplay/internal/ui/notifier"
	"github.com/leapstack-labs/zsplay/internal/ui/resources"
	"github.com/leapstack-labs/zsplay/internal/ui/router"
)

const watchDebounce = 100 * time.Millisecond

// Server is the main UI server.
type Server struct {
	manager      *session.Manager
	store        state.Store
	sessionStore *sessions.CookieStore
	highlighter  *highlight.Highlighter
	port         int
	watch        bool
	samplesDir   string
	logger       *slog.Logger
	notifier     *notifier.Notifier
}

// Config holds configuration for the UI server.
type Config struct {
	Manager *session.Manager
	// Store is optional; nil disables the history page.
	Store          state.Store
	Port           int
	Watch          bool
	SessionSecret  string
	SamplesDir     string
	HighlightStyle string
	Logger         *slog.Logger
}

// NewServer creates a new UI server instance.
func NewServer(cfg Config) *Server {
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.MaxAge(86400) // sessions live in memory, a day is plenty
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Server{
		manager:      cfg.Manager,
		store:        cfg.Store,
		sessionStore: sessionStore,
		highlighter:  highlight.New(cfg.HighlightStyle),
		port:         cfg.Port,
		watch:        cfg.Watch,
		samplesDir:   cfg.SamplesDir,
		logger:       logger,
		notifier:     notifier.New(),
	}
}

// Handler builds the HTTP handler of the UI.
func (s *Server) Handler() (http.Handler, error) {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	deps := router.Deps{
		Manager:      s.manager,
		Store:        s.store,
		SessionStore: s.sessionStore,
		Notifier:     s.notifier,
		Highlighter:  s.highlighter,
		SamplesDir:   s.samplesDir,
		Logger:       s.logger,
	}
	if err := router.SetupRoutes(r, deps, s.IsDev()); err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}
	return r, nil
}

// Serve starts the UI server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting UI server", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	handler, err := s.Handler()
	if err != nil {
		return err
	}

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch && s.samplesDir != "" {
		eg.Go(func() error {
			return s.watchSamples(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down UI server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// IsDev returns true when assets are served from the source tree.
func (s *Server) IsDev() bool {
	return resources.Dev
}

// Notifier returns the server's notifier for SSE updates.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}

// watchSamples broadcasts SamplesChanged whenever a schema file in the
// samples directory is created, written, renamed or removed.
func (s *Server) watchSamples(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(s.samplesDir); err != nil {
		s.logger.Error("failed to watch samples directory", "dir", s.samplesDir, "error", err)
		// Serving works without the watcher.
		<-ctx.Done()
		return nil
	}

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !samples.IsSchemaFile(event.Name) {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(watchDebounce, func() {
				s.logger.Debug("samples changed", "file", event.Name, "op", event.Op.String())
				s.notifier.Broadcast(notifier.Event{Kind: notifier.SamplesChanged, Path: event.Name})
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}
