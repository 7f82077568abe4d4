// Package compilertest provides a stand-in for the schema compiler.
package compilertest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/leapstack-labs/zsplay/internal/compiler"
)

// Fake writes api.<lang> into the directory of every "-<lang> <dir>" pair,
// or fails with Stderr when it is set. Like a real subprocess it is stopped
// by a done context.
type Fake struct {
	// Stderr makes every call exit with status 1 and this diagnostic.
	Stderr string

	mu    sync.Mutex
	calls [][]string
}

var _ compiler.Compiler = (*Fake)(nil)

// Compile implements compiler.Compiler.
func (f *Fake) Compile(ctx context.Context, args []string) (*compiler.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), args...))
	stderr := f.Stderr
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return &compiler.Result{ExitCode: -1, Stderr: "compiler stopped: " + err.Error()}, nil
	}

	if stderr != "" {
		return &compiler.Result{ExitCode: 1, Stderr: stderr}, nil
	}

	for i := 0; i < len(args)-1; i++ {
		lang, ok := strings.CutPrefix(args[i], "-")
		if !ok || !compiler.IsLanguage(lang) {
			continue
		}
		if err := os.MkdirAll(args[i+1], 0o750); err != nil {
			return nil, err
		}
		name := filepath.Join(args[i+1], "api."+lang)
		if err := os.WriteFile(name, []byte("// generated "+lang+"\n"), 0o600); err != nil {
			return nil, err
		}
	}
	return &compiler.Result{Duration: time.Millisecond}, nil
}

// Calls returns the number of compiler invocations.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// LastArgs returns the arguments of the most recent invocation.
func (f *Fake) LastArgs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}

// SetStderr switches the fake between failing and succeeding.
func (f *Fake) SetStderr(stderr string) {
	f.mu.Lock()
	f.Stderr = stderr
	f.mu.Unlock()
}
