//go:build dev

package resources

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
)

// Dev reports whether assets are served from the source tree.
const Dev = true

// Edits to the source tree show up on the next reload.
const cacheControl = "no-cache"

func staticFiles() fs.FS {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return os.DirFS(StaticDirectoryPath)
	}
	return os.DirFS(filepath.Join(filepath.Dir(filename), "static"))
}
