package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/leapstack-labs/zsplay/internal/procgroup"
)

// DefaultPython is the interpreter used when none is configured.
const DefaultPython = "python3"

// PythonEngine runs Python code in a fresh interpreter process per run.
// The generated python bindings are importable through PYTHONPATH.
type PythonEngine struct {
	interpreter string
}

// NewPythonEngine creates a python engine for the given interpreter.
func NewPythonEngine(interpreter string) *PythonEngine {
	if interpreter == "" {
		interpreter = DefaultPython
	}
	return &PythonEngine{interpreter: interpreter}
}

// Name implements Engine.
func (e *PythonEngine) Name() string { return "python" }

// Interpreter returns the interpreter command.
func (e *PythonEngine) Interpreter() string { return e.interpreter }

// Run implements Engine.
func (e *PythonEngine) Run(ctx context.Context, run *Run) error {
	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, e.interpreter, "-u", "-c", run.Code) //nolint:gosec // G204: running user code is the point
	cmd.Env = append(os.Environ(), "PYTHONPATH="+strings.Join(run.SearchPath, string(os.PathListSeparator)))
	cmd.Stdout = run.Stdout
	cmd.Stderr = &stderr
	procgroup.Bind(cmd)

	err := cmd.Run()
	if err == nil || (errors.Is(err, exec.ErrWaitDelay) && ctx.Err() == nil) {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &Fault{
			Message:   lastLine(stderr.String(), fmt.Sprintf("python exited with status %d", exitErr.ExitCode())),
			Backtrace: stderr.String(),
		}
	}
	if ctx.Err() != nil {
		return &Fault{Message: fmt.Sprintf("python stopped: %v", ctx.Err())}
	}
	return fmt.Errorf("failed to start %s: %w", e.interpreter, err)
}

// lastLine returns the last non-blank line of text, or fallback.
func lastLine(text, fallback string) string {
	lines := strings.Split(strings.TrimRight(text, "\r\n\t "), "\n")
	if last := strings.TrimSpace(lines[len(lines)-1]); last != "" {
		return last
	}
	return fallback
}
