package common

import (
	"path"
	"sort"

	"github.com/leapstack-labs/zsplay/internal/ui/features/common/components"
	"github.com/leapstack-labs/zsplay/internal/workspace"
)

// BuildSourceTree groups generated files into folders by directory.
// Folders and the files inside them are sorted by name.
// e.g., "gen/python/foo/api.py" -> folder "gen/python/foo", file "api.py"
func BuildSourceTree(files []workspace.SourceFile, render func(workspace.SourceFile) components.SourceHTML) []components.TreeNode {
	folders := make(map[string]*components.TreeNode)

	for _, f := range files {
		folder := path.Dir(f.Path)

		if _, ok := folders[folder]; !ok {
			folders[folder] = &components.TreeNode{
				Name: folder,
				Path: folder,
				Type: "folder",
			}
		}

		node := components.TreeNode{
			Name: path.Base(f.Path),
			Path: f.Path,
			Type: "file",
		}
		if render != nil {
			node.Source = render(f)
		}
		folders[folder].Children = append(folders[folder].Children, node)
	}

	result := make([]components.TreeNode, 0, len(folders))
	for _, node := range folders {
		sort.Slice(node.Children, func(i, j int) bool {
			return node.Children[i].Name < node.Children[j].Name
		})
		result = append(result, *node)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result
}

// CountFiles returns the number of file nodes below nodes.
func CountFiles(nodes []components.TreeNode) int {
	n := 0
	for _, node := range nodes {
		if node.Type == "file" {
			n++
		}
		n += CountFiles(node.Children)
	}
	return n
}
