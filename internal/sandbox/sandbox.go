// Package sandbox runs user scripts against freshly generated bindings.
//
// A Sandbox belongs to one session. It keeps a module search path and a
// registry of loaded modules; every module loaded by a run is evicted when
// the run ends, so the next run always loads the current generated files.
// Nothing else is isolated: scripts may touch the filesystem or network and
// may loop forever.
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
)

// ErrUnknownEngine is returned for an engine name that is not registered.
var ErrUnknownEngine = errors.New("unknown sandbox engine")

// Run is the input of one engine invocation.
type Run struct {
	Code       string
	ImportPath string
	// SearchPath is the session's module search path, importPath included.
	SearchPath []string
	Registry   *Registry
	Stdout     io.Writer
}

// Engine executes code of one scripting language.
type Engine interface {
	Name() string
	Run(ctx context.Context, run *Run) error
}

// Fault describes an error raised by the executed code.
type Fault struct {
	// Message is the display text of the fault.
	Message string
	// Backtrace is the engine's full error report, if it has one.
	Backtrace string
}

func (f *Fault) Error() string {
	return f.Message
}

// Sandbox executes scripts for one session.
type Sandbox struct {
	engines    map[string]Engine
	searchPath []string
	registry   *Registry
	logger     *slog.Logger
}

// New creates a sandbox with the given engines.
func New(logger *slog.Logger, engines ...Engine) *Sandbox {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Sandbox{
		engines:  make(map[string]Engine, len(engines)),
		registry: NewRegistry(),
		logger:   logger,
	}
	for _, e := range engines {
		s.engines[e.Name()] = e
	}
	return s
}

// Engines returns the registered engine names, sorted.
func (s *Sandbox) Engines() []string {
	names := make([]string, 0, len(s.engines))
	for name := range s.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SearchPath returns a copy of the module search path.
func (s *Sandbox) SearchPath() []string {
	return append([]string(nil), s.searchPath...)
}

// Registry returns the session's module registry.
func (s *Sandbox) Registry() *Registry {
	return s.registry
}

// registerPath appends dir to the search path unless it already is the last
// entry, so repeated runs against the same tree do not grow the path.
func (s *Sandbox) registerPath(dir string) {
	if dir == "" {
		return
	}
	if n := len(s.searchPath); n > 0 && s.searchPath[n-1] == dir {
		return
	}
	s.searchPath = append(s.searchPath, dir)
}

// Execute runs code with the named engine against importPath.
//
// The returned output holds everything the code printed, also when it
// faulted. Faults raised by the code are returned as *Fault.
func (s *Sandbox) Execute(ctx context.Context, engine, code, importPath string) (string, error) {
	eng, ok := s.engines[engine]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownEngine, engine)
	}

	s.registerPath(importPath)

	before := s.registry.Snapshot()
	defer func() {
		if evicted := s.registry.EvictExcept(before); len(evicted) > 0 {
			s.logger.Debug("evicted sandbox modules", slog.Any("modules", evicted))
		}
	}()

	var stdout bytes.Buffer
	err := runSafely(ctx, eng, &Run{
		Code:       code,
		ImportPath: importPath,
		SearchPath: s.SearchPath(),
		Registry:   s.registry,
		Stdout:     &stdout,
	})
	if err != nil {
		var fault *Fault
		if !errors.As(err, &fault) {
			fault = &Fault{Message: err.Error()}
		}
		s.logger.Debug("sandbox run faulted", slog.String("engine", engine), slog.String("fault", fault.Message))
		return stdout.String(), fault
	}
	return stdout.String(), nil
}

// runSafely turns a panic inside an engine into a fault.
func runSafely(ctx context.Context, eng Engine, run *Run) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &Fault{Message: fmt.Sprintf("panic: %v", r)}
		}
	}()
	return eng.Run(ctx, run)
}
