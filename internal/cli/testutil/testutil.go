// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/leapstack-labs/zsplay/internal/cli/config"
	"github.com/leapstack-labs/zsplay/internal/cli/output"
	"github.com/leapstack-labs/zsplay/internal/testutil"
)

// TestSchema is a small valid schema.
const TestSchema = "package demo.types;\n\nstruct Point\n{\n    int32 x;\n    int32 y;\n};\n"

// SetupTestProject creates a temporary project holding demo.zs and returns
// the project directory and the schema path.
func SetupTestProject(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	schema := testutil.WriteFile(t, dir, "demo.zs", TestSchema)
	return dir, schema
}

// TestConfig returns a configuration rooted in dir.
func TestConfig(dir string) *config.Config {
	return &config.Config{
		WorkspaceDir: filepath.Join(dir, "workspace"),
		StatePath:    filepath.Join(dir, "state.db"),
		OutputFormat: string(output.ModeMarkdown),
		Compiler:     config.CompilerConfig{Command: config.DefaultCompiler},
		Sandbox: config.SandboxConfig{
			DefaultEngine: config.DefaultEngine,
			Python:        config.DefaultPython,
		},
		UI: config.UIConfig{Port: config.DefaultPort, HighlightStyle: config.DefaultHighlightStyle},
	}
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.Mode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, mode, isTTY),
		Out:      out,
		ErrOut:   errOut,
	}
}

// NewTestRendererMarkdown creates a new test renderer in markdown mode.
func NewTestRendererMarkdown() *TestRenderer {
	return NewTestRenderer(output.ModeMarkdown, false)
}

// NewTestRendererJSON creates a new test renderer in JSON mode.
func NewTestRendererJSON() *TestRenderer {
	return NewTestRenderer(output.ModeJSON, false)
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}
