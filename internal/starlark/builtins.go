package starlark

import (
	"fmt"

	"go.starlark.net/lib/json"
	"go.starlark.net/lib/math"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/leapstack-labs/zsplay/internal/gentree"
)

// Predeclared returns the globals every sandbox script and module sees:
// json, math and a "generated" module over root.
func Predeclared(root string) starlark.StringDict {
	return starlark.StringDict{
		"json":      json.Module,
		"math":      math.Module,
		"generated": GeneratedModule(root),
	}
}

// GeneratedModule exposes the generated tree below root to scripts:
//
//	generated.root        the directory path
//	generated.files()     sorted relative paths of all regular files
//	generated.read(path)  contents of one file
//	generated.stat(path)  {"path": ..., "size": ...} of one file
func GeneratedModule(root string) *starlarkstruct.Module {
	tree := gentree.New(root)
	return &starlarkstruct.Module{
		Name: "generated",
		Members: starlark.StringDict{
			"root":  starlark.String(root),
			"files": starlark.NewBuiltin("generated.files", filesBuiltin(tree)),
			"read":  starlark.NewBuiltin("generated.read", readBuiltin(tree)),
			"stat":  starlark.NewBuiltin("generated.stat", statBuiltin(tree)),
		},
	}
}

type builtinFn = func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error)

func filesBuiltin(tree gentree.Tree) builtinFn {
	return func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
			return nil, err
		}
		files, err := tree.Files()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name(), err)
		}
		return GoToStarlark(files)
	}
}

func readBuiltin(tree gentree.Tree) builtinFn {
	return func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var rel string
		if err := starlark.UnpackArgs(b.Name(), args, kwargs, "path", &rel); err != nil {
			return nil, err
		}
		data, err := tree.Read(rel)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name(), err)
		}
		return starlark.String(data), nil
	}
}

func statBuiltin(tree gentree.Tree) builtinFn {
	return func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var rel string
		if err := starlark.UnpackArgs(b.Name(), args, kwargs, "path", &rel); err != nil {
			return nil, err
		}
		info, err := tree.Stat(rel)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name(), err)
		}
		return GoToStarlark(map[string]any{
			"path":  info.Path,
			"size":  info.Size,
			"isdir": info.IsDir,
		})
	}
}
