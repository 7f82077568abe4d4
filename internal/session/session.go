// Package session keeps the per-browser-session context of the playground:
// the schema being edited, the generated workspace and the script sandbox.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/leapstack-labs/zsplay/internal/build"
	"github.com/leapstack-labs/zsplay/internal/sandbox"
	"github.com/leapstack-labs/zsplay/internal/state"
	"github.com/leapstack-labs/zsplay/internal/workspace"
)

// Session is the context of one user. Callers must hold the session lock
// (see Do) while reading or changing any field.
type Session struct {
	ID        string
	Workspace *workspace.Workspace
	Sandbox   *sandbox.Sandbox

	// Editor state.
	Schema    string
	ExtraArgs string
	Languages []string
	// Last script run, shown again when the page reloads.
	Engine     string
	Script     string
	ScriptLang string

	Created  time.Time
	LastUsed time.Time

	mu     sync.Mutex
	store  state.Store
	logger *slog.Logger
}

// Do runs fn with the session locked. Operations of one session never
// overlap, requests of different sessions run concurrently.
func (s *Session) Do(fn func(*Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastUsed = time.Now().UTC()
	return fn(s)
}

// Request returns the build request for the current editor state.
func (s *Session) Request() build.BuildRequest {
	return build.BuildRequest{
		Schema:    s.Schema,
		Languages: append([]string(nil), s.Languages...),
		ExtraArgs: build.ParseExtraArgs(s.ExtraArgs),
	}
}

// Compile builds the current editor state.
func (s *Session) Compile(ctx context.Context) (*workspace.BuildResult, error) {
	return s.Workspace.Build(ctx, s.Request())
}

// Execute runs code with engine against the generated sources of lang. An
// empty lang runs against the root of the generated tree.
func (s *Session) Execute(ctx context.Context, engine, code, lang string) (string, error) {
	importPath := s.Workspace.GenDir()
	if lang != "" {
		importPath = s.Workspace.GeneratedDir(lang)
	}

	started := time.Now().UTC()
	out, err := s.Sandbox.Execute(ctx, engine, code, importPath)
	if errors.Is(err, sandbox.ErrUnknownEngine) {
		return out, err
	}
	s.Engine, s.Script, s.ScriptLang = engine, code, lang

	s.record(ctx, &state.Execution{
		SessionID:  s.ID,
		Engine:     engine,
		Language:   lang,
		Status:     executionStatus(err),
		Error:      errorText(err),
		OutputSize: len(out),
		Duration:   time.Since(started),
		StartedAt:  started,
	})
	return out, err
}

func (s *Session) record(ctx context.Context, exec *state.Execution) {
	if s.store == nil {
		return
	}
	if err := s.store.RecordExecution(ctx, exec); err != nil {
		s.logger.Warn("failed to record execution", slog.Any("error", err))
	}
}

func executionStatus(err error) state.BuildStatus {
	if err != nil {
		return state.BuildStatusFailed
	}
	return state.BuildStatusSuccess
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return strings.TrimSpace(err.Error())
}
