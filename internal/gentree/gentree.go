// Package gentree gives sandbox scripts read-only access to a generated
// source tree. Every path is relative to the tree root and may not leave it.
package gentree

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrOutsideTree is returned for paths that escape the root.
var ErrOutsideTree = errors.New("outside the generated tree")

// Info describes one entry of the tree.
type Info struct {
	Path  string
	Size  int64
	IsDir bool
}

// Tree is a generated tree rooted at Root.
type Tree struct {
	Root string
}

// New returns the tree below root.
func New(root string) Tree {
	return Tree{Root: root}
}

// Files returns the sorted slash-separated paths of all regular files. A
// missing or empty root has no files.
func (t Tree) Files() ([]string, error) {
	if t.Root == "" {
		return nil, nil
	}
	var files []string
	err := filepath.WalkDir(t.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			rel, err := filepath.Rel(t.Root, path)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Read returns the contents of the file at rel.
func (t Tree) Read(rel string) (string, error) {
	path, err := t.Resolve(rel)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: confined to root
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Stat describes the entry at rel.
func (t Tree) Stat(rel string) (Info, error) {
	path, err := t.Resolve(rel)
	if err != nil {
		return Info{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return Info{}, err
	}
	return Info{Path: rel, Size: info.Size(), IsDir: info.IsDir()}, nil
}

// Resolve maps rel to a filesystem path below the root.
func (t Tree) Resolve(rel string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is %w", rel, ErrOutsideTree)
	}
	return filepath.Join(t.Root, clean), nil
}
