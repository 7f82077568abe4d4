package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.starlark.net/starlark"

	zstar "github.com/leapstack-labs/zsplay/internal/starlark"
)

// StarlarkEngine runs Starlark scripts in-process.
//
// load() statements are resolved against the search path, first match wins.
// Loaded modules are kept in the session registry for the duration of a run.
type StarlarkEngine struct{}

// NewStarlarkEngine creates the starlark engine.
func NewStarlarkEngine() *StarlarkEngine {
	return &StarlarkEngine{}
}

// Name implements Engine.
func (e *StarlarkEngine) Name() string { return "starlark" }

// Run implements Engine.
func (e *StarlarkEngine) Run(ctx context.Context, run *Run) error {
	predeclared := zstar.Predeclared(run.ImportPath)
	loader := &starlarkLoader{ctx: ctx, run: run, predeclared: predeclared}

	thread := zstar.NewThread("main", run.Stdout, loader.load)
	stop := zstar.CancelOnDone(ctx, thread)
	defer stop()

	_, err := starlark.ExecFileOptions(zstar.FileOptions, thread, "<script>", run.Code, predeclared)
	return starlarkFault(err)
}

type starlarkLoader struct {
	ctx         context.Context
	run         *Run
	predeclared starlark.StringDict
}

func (l *starlarkLoader) load(_ *starlark.Thread, module string) (starlark.StringDict, error) {
	path, err := l.resolve(module)
	if err != nil {
		return nil, err
	}

	if m, ok := l.run.Registry.Get(path); ok {
		if m.loading {
			return nil, fmt.Errorf("cycle in load graph at %s", module)
		}
		globals, _ := m.Value.(starlark.StringDict)
		return globals, m.Err
	}

	src, err := os.ReadFile(path) //nolint:gosec // G304: scripts may load any module on the search path
	if err != nil {
		return nil, fmt.Errorf("failed to read module %s: %w", module, err)
	}

	m := &Module{ID: path, Path: path, loading: true}
	l.run.Registry.Put(m)

	child := zstar.NewThread(module, l.run.Stdout, l.load)
	stop := zstar.CancelOnDone(l.ctx, child)
	globals, err := starlark.ExecFileOptions(zstar.FileOptions, child, path, src, l.predeclared)
	stop()
	m.Value, m.Err, m.loading = globals, err, false
	return globals, err
}

// resolve finds module on the search path.
func (l *starlarkLoader) resolve(module string) (string, error) {
	if filepath.IsAbs(module) {
		return module, nil
	}
	for _, dir := range l.run.SearchPath {
		candidate := filepath.Join(dir, filepath.FromSlash(module))
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("module %s not found on search path", module)
}

func starlarkFault(err error) error {
	if err == nil {
		return nil
	}
	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		return &Fault{Message: evalErr.Msg, Backtrace: evalErr.Backtrace()}
	}
	return &Fault{Message: err.Error()}
}
