// Package compiler drives the external zserio schema compiler.
//
// The compiler is an opaque collaborator: it receives an argument list with
// one "-<language> <dir>" pair per requested output and either writes files
// under those directories or exits non-zero with diagnostics on stderr.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Languages lists the supported output languages in display order.
var Languages = []string{"python", "cpp", "java", "xml", "doc"}

// ErrUnknownLanguage is returned for a language not in Languages.
var ErrUnknownLanguage = errors.New("unknown output language")

// Result is the outcome of one compiler process.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Success reports whether the compiler exited with status 0.
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// Compiler runs the schema compiler with the given arguments.
// A non-zero exit is reported through Result, not through the error, which
// is reserved for failures to run the process at all.
//
//go:generate mockgen -source=compiler.go -destination=mocks/mock_compiler.go -package=mocks
type Compiler interface {
	Compile(ctx context.Context, args []string) (*Result, error)
}

// Func adapts a function to the Compiler interface.
type Func func(ctx context.Context, args []string) (*Result, error)

// Compile calls f.
func (f Func) Compile(ctx context.Context, args []string) (*Result, error) {
	return f(ctx, args)
}

// CompileError carries the diagnostics of a failed compilation.
type CompileError struct {
	ExitCode int
	Stderr   string
}

func (e *CompileError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("compiler exited with status %d", e.ExitCode)
	}
	return msg
}

// IsLanguage reports whether lang is a supported output language.
func IsLanguage(lang string) bool {
	for _, l := range Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// NormalizeLanguages validates langs and returns them in display order
// without duplicates.
func NormalizeLanguages(langs []string) ([]string, error) {
	want := make(map[string]bool, len(langs))
	for _, lang := range langs {
		if !IsLanguage(lang) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, lang)
		}
		want[lang] = true
	}

	ordered := make([]string, 0, len(want))
	for _, lang := range Languages {
		if want[lang] {
			ordered = append(ordered, lang)
		}
	}
	return ordered, nil
}

// BuildArgs assembles the compiler argument list:
// extra args first, then the source root and schema file, then one
// "-<lang> <dir>" pair per language.
func BuildArgs(extraArgs []string, srcDir, schemaFile string, langs []string, outDir func(lang string) string) []string {
	args := make([]string, 0, len(extraArgs)+3+2*len(langs))
	args = append(args, extraArgs...)
	args = append(args, "-src", srcDir, schemaFile)
	for _, lang := range langs {
		args = append(args, "-"+lang, outDir(lang))
	}
	return args
}
