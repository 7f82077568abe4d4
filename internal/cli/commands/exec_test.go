package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"

	clitest "github.com/leapstack-labs/zsplay/internal/cli/testutil"
	"github.com/leapstack-labs/zsplay/internal/compiler/compilertest"
	"github.com/leapstack-labs/zsplay/internal/state"
	"github.com/leapstack-labs/zsplay/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecSchema_InlineCode(t *testing.T) {
	h := newHarness(t, clitest.NewTestRendererMarkdown())
	fake := &compilertest.Fake{}

	opts := &ExecOptions{Lang: "python", Code: `print(generated.files())`}
	require.NoError(t, execSchema(h.Cmd, h.Ctx, fake, nil, []string{h.Schema}, opts))

	assert.Equal(t, "[\"api.python\"]\n", h.Renderer.Output())
	assert.Contains(t, fake.LastArgs(), "-python")
}

func TestExecSchema_GeneratedRoot(t *testing.T) {
	h := newHarness(t, clitest.NewTestRendererMarkdown())

	opts := &ExecOptions{Code: `print(generated.read("zs/demo/types.zs").startswith("package demo.types;"))`}
	require.NoError(t, execSchema(h.Cmd, h.Ctx, &compilertest.Fake{}, nil, []string{h.Schema}, opts))

	assert.Equal(t, "True\n", h.Renderer.Output())
}

func TestExecSchema_ScriptFile(t *testing.T) {
	h := newHarness(t, clitest.NewTestRendererMarkdown())
	script := testutil.WriteFile(t, h.Dir, "check.star", "n = len(generated.files())\nprint(\"files:\", n)\n")

	opts := &ExecOptions{Engine: "starlark", Lang: "cpp"}
	require.NoError(t, execSchema(h.Cmd, h.Ctx, &compilertest.Fake{}, nil, []string{h.Schema, script}, opts))

	assert.Equal(t, "files: 1\n", h.Renderer.Output())
}

func TestExecSchema_Stdin(t *testing.T) {
	h := newHarness(t, clitest.NewTestRendererMarkdown())
	h.Cmd.SetIn(strings.NewReader(`print("from stdin")`))

	require.NoError(t, execSchema(h.Cmd, h.Ctx, &compilertest.Fake{}, nil, []string{h.Schema, "-"}, &ExecOptions{}))

	assert.Equal(t, "from stdin\n", h.Renderer.Output())
}

func TestExecSchema_GoEngine(t *testing.T) {
	h := newHarness(t, clitest.NewTestRendererMarkdown())

	code := "package main\n\nimport \"fmt\"\n\nfunc main() { fmt.Println(6 * 7) }\n"
	require.NoError(t, execSchema(h.Cmd, h.Ctx, &compilertest.Fake{}, nil, []string{h.Schema}, &ExecOptions{Engine: "go", Code: code}))

	assert.Equal(t, "42\n", h.Renderer.Output())
}

func TestExecSchema_Fault(t *testing.T) {
	h := newHarness(t, clitest.NewTestRendererMarkdown())
	store := newMemoryStore(t)

	opts := &ExecOptions{Code: "print(\"before\")\nfail(\"boom\")\n"}
	err := execSchema(h.Cmd, h.Ctx, &compilertest.Fake{}, store, []string{h.Schema}, opts)
	require.ErrorIs(t, err, errScriptFailed)

	assert.Equal(t, "before\n", h.Renderer.Output(), "output up to the fault is kept")
	assert.Contains(t, h.Renderer.ErrorOutput(), "boom")

	execs, err := store.ListExecutions(context.Background(), "", 10)
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.Equal(t, state.BuildStatusFailed, execs[0].Status)
	assert.Equal(t, "starlark", execs[0].Engine)
}

func TestExecSchema_CompileFailure(t *testing.T) {
	h := newHarness(t, clitest.NewTestRendererMarkdown())
	fake := &compilertest.Fake{Stderr: "demo.zs:1:1: syntax error"}

	err := execSchema(h.Cmd, h.Ctx, fake, nil, []string{h.Schema}, &ExecOptions{Code: `print(1)`})
	require.Error(t, err)
	assert.Equal(t, "compilation failed", err.Error())
	assert.Contains(t, h.Stderr.String(), "syntax error")
	assert.Empty(t, h.Renderer.Output())
}

func TestExecSchema_UnknownInputs(t *testing.T) {
	h := newHarness(t, clitest.NewTestRendererMarkdown())

	err := execSchema(h.Cmd, h.Ctx, &compilertest.Fake{}, nil, []string{h.Schema}, &ExecOptions{Lang: "rust", Code: "print(1)"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output language")

	err = execSchema(h.Cmd, h.Ctx, &compilertest.Fake{}, nil, []string{h.Schema}, &ExecOptions{Engine: "lua", Code: "print(1)"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown sandbox engine")
}

func TestReplBlock(t *testing.T) {
	var b replBlock

	code, ready := b.Add(`print("one")`)
	assert.True(t, ready)
	assert.Equal(t, "print(\"one\")\n", code)

	_, ready = b.Add("def f():")
	assert.False(t, ready)
	assert.True(t, b.Open())
	_, ready = b.Add("    return 2")
	assert.False(t, ready)
	code, ready = b.Add("")
	assert.True(t, ready)
	assert.Equal(t, "def f():\n    return 2\n", code)
	assert.False(t, b.Open())

	_, _ = b.Add("for x in y:")
	b.Reset()
	assert.False(t, b.Open())
}

func TestHandleExecDotCommand(t *testing.T) {
	engine, lang := "starlark", ""
	engines := []string{"go", "python", "starlark"}
	var out bytes.Buffer

	assert.False(t, handleExecDotCommand(&out, ".engine go", &engine, &lang, engines))
	assert.Equal(t, "go", engine)

	assert.False(t, handleExecDotCommand(&out, ".lang cpp", &engine, &lang, engines))
	assert.Equal(t, "cpp", lang)

	out.Reset()
	assert.False(t, handleExecDotCommand(&out, ".lang cobol", &engine, &lang, engines))
	assert.Equal(t, "cpp", lang)
	assert.Contains(t, out.String(), "unknown language")

	out.Reset()
	assert.False(t, handleExecDotCommand(&out, ".engine", &engine, &lang, engines))
	assert.Contains(t, out.String(), "available: go, python, starlark")

	assert.True(t, handleExecDotCommand(&out, ".quit", &engine, &lang, engines))
	assert.True(t, handleExecDotCommand(&out, ".exit", &engine, &lang, engines))
}
