// Package samples provides the bundled default schema and lists schema
// files from an optional samples directory.
package samples

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leapstack-labs/zsplay/internal/build"
)

//go:embed sample.zs
var defaultSchema string

// Default returns the schema shown to a new session.
func Default() string {
	return defaultSchema
}

// Sample is one schema file in the samples directory.
type Sample struct {
	// Name is the file name without directory.
	Name string
	Path string
}

// List returns the schema files directly inside dir, sorted by name. An
// empty dir yields no samples.
func List(dir string) ([]Sample, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read samples directory: %w", err)
	}

	var out []Sample
	for _, e := range entries {
		if !e.Type().IsRegular() || !IsSchemaFile(e.Name()) {
			continue
		}
		out = append(out, Sample{Name: e.Name(), Path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Load reads the sample called name from dir.
func Load(dir, name string) (string, error) {
	if name != filepath.Base(name) || !IsSchemaFile(name) {
		return "", fmt.Errorf("invalid sample name %q", name)
	}
	data, err := os.ReadFile(filepath.Join(dir, name)) //nolint:gosec // G304: name is a plain file name
	if err != nil {
		return "", fmt.Errorf("failed to read sample: %w", err)
	}
	return string(data), nil
}

// IsSchemaFile reports whether name has the schema extension.
func IsSchemaFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), "."+build.SchemaExt)
}
