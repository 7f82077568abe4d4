// Package build decides when a schema has to be recompiled.
//
// A BuildRequest is the full input of one compiler run: schema text, the
// requested output languages and the extra compiler arguments. The Guard
// remembers the last request a session attempted and reports whether a new
// request differs from it.
package build

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// DefaultPackage is used when a schema declares no package.
const DefaultPackage = "default"

// SchemaExt is the file extension of zserio schema sources.
const SchemaExt = "zs"

var packageRe = regexp.MustCompile(`package (.*);`)

// BuildRequest is the input tuple of one compilation.
type BuildRequest struct {
	Schema    string
	Languages []string
	ExtraArgs []string
}

// Equal reports whether two requests are structurally identical.
func (r BuildRequest) Equal(other BuildRequest) bool {
	return r.Schema == other.Schema &&
		slices.Equal(r.Languages, other.Languages) &&
		slices.Equal(r.ExtraArgs, other.ExtraArgs)
}

// Clone returns a deep copy so the caller can keep mutating its slices.
func (r BuildRequest) Clone() BuildRequest {
	return BuildRequest{
		Schema:    r.Schema,
		Languages: slices.Clone(r.Languages),
		ExtraArgs: slices.Clone(r.ExtraArgs),
	}
}

// Digest returns a short content hash of the request.
// It names builds in logs and history; equality checks never rely on it.
func (r BuildRequest) Digest() string {
	hasher := xxhash.New()

	_, _ = hasher.WriteString(r.Schema)
	_, _ = hasher.Write([]byte{0})

	for _, lang := range r.Languages {
		_, _ = hasher.WriteString(lang)
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0}) // Section separator

	for _, arg := range r.ExtraArgs {
		_, _ = hasher.WriteString(arg)
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0})

	return fmt.Sprintf("%016x", hasher.Sum64())
}

// PackageNames returns the dotted package of a schema split into segments.
// The first "package x.y;" occurrence wins; without one the schema lives in
// the single-segment package "default".
func PackageNames(schema string) []string {
	m := packageRe.FindStringSubmatch(schema)
	if m == nil {
		return []string{DefaultPackage}
	}
	return strings.Split(m[1], ".")
}

// SchemaPath turns package segments into a relative source path:
// ["foo", "bar"] with ext "zs" becomes "foo/bar.zs".
func SchemaPath(names []string, ext string) string {
	if len(names) == 0 {
		names = []string{DefaultPackage}
	}
	dirs := names[:len(names)-1]
	file := names[len(names)-1] + "." + ext
	return strings.Join(append(slices.Clone(dirs), file), "/")
}

// ParseExtraArgs splits the free-form argument text on whitespace.
func ParseExtraArgs(text string) []string {
	return strings.Fields(text)
}
