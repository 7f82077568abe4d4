package starlark

import (
	"bytes"
	"context"
	"testing"

	"github.com/leapstack-labs/zsplay/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"
)

func run(t *testing.T, root, src string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	thread := NewThread("test", &out, nil)
	_, err := starlark.ExecFileOptions(FileOptions, thread, "test.star", src, Predeclared(root))
	return out.String(), err
}

func TestGeneratedModule(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "python/demo/api.py", "x = 1\n")
	testutil.WriteFile(t, root, "cpp/demo/api.h", "#pragma once\n")

	out, err := run(t, root, `
print(generated.files())
print(generated.read("python/demo/api.py").strip())
st = generated.stat("cpp/demo/api.h")
print(st["size"], st["isdir"])
print(generated.stat("cpp")["isdir"])
`)
	require.NoError(t, err)
	assert.Equal(t, "[\"cpp/demo/api.h\", \"python/demo/api.py\"]\nx = 1\n13 False\nTrue\n", out)
}

func TestGeneratedModule_Confined(t *testing.T) {
	root := t.TempDir()

	for _, src := range []string{`generated.read("../secret")`, `generated.stat("/etc/passwd")`} {
		_, err := run(t, root, src)
		require.Error(t, err, src)
		assert.Contains(t, err.Error(), "outside the generated tree")
	}
}

func TestGeneratedModule_MissingRoot(t *testing.T) {
	out, err := run(t, t.TempDir()+"/missing", `print(generated.files())`)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestPredeclared_Libraries(t *testing.T) {
	out, err := run(t, t.TempDir(), `
print(json.encode({"a": [1, 2]}))
print(math.floor(2.7))
`)
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":[1,2]}\n2\n", out)
}

func TestGoToStarlark(t *testing.T) {
	v, err := GoToStarlark(map[string]any{"b": []string{"x"}, "a": int64(3), "c": nil, "d": true})
	require.NoError(t, err)
	assert.Equal(t, `{"a": 3, "b": ["x"], "c": None, "d": True}`, v.String())

	_, err = GoToStarlark(3.5)
	assert.Error(t, err)
}

func TestCancelOnDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var out bytes.Buffer
	thread := NewThread("loop", &out, nil)
	stop := CancelOnDone(ctx, thread)
	defer stop()

	cancel()
	_, err := starlark.ExecFileOptions(FileOptions, thread, "loop.star", "while True:\n    pass\n", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context canceled")
}
