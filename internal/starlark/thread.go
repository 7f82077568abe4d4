package starlark

import (
	"context"
	"fmt"
	"io"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// FileOptions enables the dialect extensions scripts are allowed to use.
var FileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// LoadFunc resolves a load() statement.
type LoadFunc func(thread *starlark.Thread, module string) (starlark.StringDict, error)

// NewThread creates a thread whose print() writes one line per call to out.
func NewThread(name string, out io.Writer, load LoadFunc) *starlark.Thread {
	return &starlark.Thread{
		Name: name,
		Print: func(_ *starlark.Thread, msg string) {
			_, _ = fmt.Fprintln(out, msg)
		},
		Load: load,
	}
}

// CancelOnDone cancels thread when ctx ends. The returned stop function must
// be called once the thread has finished.
func CancelOnDone(ctx context.Context, thread *starlark.Thread) (stop func()) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			thread.Cancel(ctx.Err().Error())
		case <-done:
		}
	}()
	return func() { close(done) }
}
