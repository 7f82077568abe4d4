package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/leapstack-labs/zsplay/internal/gentree"
)

// GeneratedImport is the import path under which Go scripts reach the
// generated tree.
const GeneratedImport = "zsplay/generated"

// GoEngine interprets Go source with yaegi. Every run gets a new
// interpreter, so nothing survives between runs.
//
// zserio emits no Go bindings, so scripts cannot import generated code.
// They read the generated tree through the GeneratedImport package instead:
//
//	import "zsplay/generated"
//
//	files, err := generated.Files()
//	src, err := generated.Read("python/demo/api.py")
//	info, err := generated.Stat("cpp")
type GoEngine struct{}

// NewGoEngine creates the go engine.
func NewGoEngine() *GoEngine {
	return &GoEngine{}
}

// Name implements Engine.
func (e *GoEngine) Name() string { return "go" }

// Run implements Engine.
func (e *GoEngine) Run(ctx context.Context, run *Run) error {
	var stderr bytes.Buffer

	i := interp.New(interp.Options{
		Stdout: run.Stdout,
		Stderr: &stderr,
	})
	if err := i.Use(stdlib.Symbols); err != nil {
		return fmt.Errorf("failed to load stdlib: %w", err)
	}
	if err := i.Use(generatedSymbols(run.ImportPath)); err != nil {
		return fmt.Errorf("failed to load %s: %w", GeneratedImport, err)
	}

	_, err := i.EvalWithContext(ctx, run.Code)
	if err == nil {
		return nil
	}

	var p interp.Panic
	if errors.As(err, &p) {
		return &Fault{Message: fmt.Sprintf("panic: %v", p.Value), Backtrace: string(p.Stack)}
	}
	return &Fault{Message: err.Error(), Backtrace: stderr.String()}
}

// generatedSymbols binds the GeneratedImport package to the tree at root.
func generatedSymbols(root string) interp.Exports {
	tree := gentree.New(root)
	return interp.Exports{
		GeneratedImport + "/generated": {
			"Info":  reflect.ValueOf((*gentree.Info)(nil)),
			"Root":  reflect.ValueOf(func() string { return tree.Root }),
			"Files": reflect.ValueOf(tree.Files),
			"Read":  reflect.ValueOf(tree.Read),
			"Stat":  reflect.ValueOf(tree.Stat),
		},
	}
}
