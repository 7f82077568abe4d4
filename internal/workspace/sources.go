package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// SourceFile is one generated file.
type SourceFile struct {
	// Path is relative to the workspace root, slash separated ("gen/python/foo/bar.py").
	Path     string
	Language string
	Content  string
}

// Sources returns every regular file generated for lang, sorted by path.
// A language that produced no output yields an empty slice.
func (w *Workspace) Sources(lang string) ([]SourceFile, error) {
	dir := w.GeneratedDir(lang)
	var files []SourceFile

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		content, err := os.ReadFile(path) //nolint:gosec // G304: path is inside the workspace
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			return err
		}
		files = append(files, SourceFile{
			Path:     filepath.ToSlash(rel),
			Language: lang,
			Content:  string(content),
		})
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return []SourceFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s sources: %w", lang, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// countFiles counts regular files below dir.
func countFiles(dir string) (int, error) {
	n := 0
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			n++
		}
		return nil
	})
	return n, err
}
