package session

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/zsplay/internal/compiler"
	"github.com/leapstack-labs/zsplay/internal/sandbox"
	"github.com/leapstack-labs/zsplay/internal/state"
	"github.com/leapstack-labs/zsplay/internal/workspace"
)

// Config configures a Manager.
type Config struct {
	// Root holds one directory per session.
	Root     string
	Compiler compiler.Compiler
	// Store is optional; nil disables history.
	Store  state.Store
	Logger *slog.Logger
	// DefaultSchema is the editor content of a new session.
	DefaultSchema string
	// Python is the interpreter of the python engine.
	Python string
}

// Manager creates and tracks sessions.
type Manager struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

// NewManager creates a session manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("session root is required")
	}
	if cfg.Compiler == nil {
		return nil, fmt.Errorf("session manager requires a compiler")
	}
	if err := os.MkdirAll(cfg.Root, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create session root: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		cfg:      cfg,
		logger:   logger,
		sessions: make(map[string]*Session),
	}, nil
}

// NewID returns a fresh session identifier.
func NewID() string {
	return uuid.NewString()
}

// Get returns the session with id, creating it on first use.
func (m *Manager) Get(id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid session id %q: %w", id, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, errors.New("session manager is closed")
	}
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}

	logger := m.logger.With(slog.String("session", id))
	ws, err := workspace.New(workspace.Config{
		SessionID: id,
		Root:      filepath.Join(m.cfg.Root, id),
		Compiler:  m.cfg.Compiler,
		Store:     m.cfg.Store,
		Logger:    m.logger,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	s := &Session{
		ID:        id,
		Workspace: ws,
		Sandbox:   NewSandbox(logger, m.cfg.Python),
		Schema:    m.cfg.DefaultSchema,
		Engine:    "starlark",
		Created:   now,
		LastUsed:  now,
		store:     m.cfg.Store,
		logger:    logger,
	}
	m.sessions[id] = s
	logger.Debug("session created")
	return s, nil
}

// NewSandbox returns a sandbox with every engine registered.
func NewSandbox(logger *slog.Logger, python string) *sandbox.Sandbox {
	return sandbox.New(logger,
		sandbox.NewStarlarkEngine(),
		sandbox.NewPythonEngine(python),
		sandbox.NewGoEngine(),
	)
}

// IDs returns the identifiers of all live sessions, sorted.
func (m *Manager) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close removes every session directory. Get fails afterwards.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	var errs []error
	for id, s := range m.sessions {
		s.mu.Lock()
		if err := s.Workspace.Remove(); err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", id, err))
		}
		s.mu.Unlock()
		delete(m.sessions, id)
	}
	return errors.Join(errs...)
}
