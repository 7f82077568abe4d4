//go:build !dev

package resources

import (
	"embed"
	"io/fs"
)

// Dev reports whether assets are served from the source tree.
const Dev = false

const cacheControl = "public, max-age=86400"

//go:embed static/*
var staticFS embed.FS

func staticFiles() fs.FS {
	fsys, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return fsys
}
