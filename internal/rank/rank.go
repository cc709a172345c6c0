// Package rank implements the global show-predicate forms that need the whole
// tree before any decision can be made: top-N selection by attribute and
// duplicate grouping by content hash. Both resolve into a concrete path set
// that rendering consumes exactly as it would a per-node predicate result.
package rank

import (
	"sort"

	"github.com/aafulei/atree/internal/types"
)

// RankedFile pairs a file path with the attribute value it was ranked by.
type RankedFile struct {
	Path  string
	Value int64
}

// ResolveTopN returns the count largest file nodes by the named attribute in
// rank order, plus the match set of their paths. Files without the attribute
// are excluded; fewer than count qualifying files is not an error. Equal
// values tie-break by ascending path so output is deterministic.
func ResolveTopN(root *types.Node, attributeName string, count int) ([]RankedFile, types.MatchSet) {
	var rankedFiles []RankedFile
	collectFiles(root, func(fileNode *types.Node) {
		attributeValue, available := fileNode.AttributeValue(attributeName)
		if !available {
			return
		}
		rankedFiles = append(rankedFiles, RankedFile{Path: fileNode.Path, Value: attributeValue})
	})

	sort.Slice(rankedFiles, func(left, right int) bool {
		if rankedFiles[left].Value != rankedFiles[right].Value {
			return rankedFiles[left].Value > rankedFiles[right].Value
		}
		return rankedFiles[left].Path < rankedFiles[right].Path
	})
	if count < len(rankedFiles) {
		rankedFiles = rankedFiles[:count]
	}

	matches := make(types.MatchSet, len(rankedFiles))
	for _, rankedFile := range rankedFiles {
		matches[rankedFile.Path] = struct{}{}
	}
	return rankedFiles, matches
}

// ResolveDuplicates groups file nodes by content hash and keeps every group
// with at least two members. Files with an unavailable hash never group, and
// empty files are left out unless includeEmpty is set. Groups are ordered by
// hash and member paths ascending; the match set is the union of all groups.
func ResolveDuplicates(root *types.Node, includeEmpty bool) ([]types.DuplicateGroup, types.MatchSet) {
	pathsByHash := make(map[string][]string)
	collectFiles(root, func(fileNode *types.Node) {
		if !fileNode.HasContentHash {
			return
		}
		if !includeEmpty && fileNode.SizeBytes == 0 {
			return
		}
		pathsByHash[fileNode.ContentHash] = append(pathsByHash[fileNode.ContentHash], fileNode.Path)
	})

	var groups []types.DuplicateGroup
	for contentHash, memberPaths := range pathsByHash {
		if len(memberPaths) < 2 {
			continue
		}
		sort.Strings(memberPaths)
		groups = append(groups, types.DuplicateGroup{Hash: contentHash, Paths: memberPaths})
	}
	sort.Slice(groups, func(left, right int) bool {
		return groups[left].Hash < groups[right].Hash
	})

	matches := make(types.MatchSet)
	for _, group := range groups {
		for _, memberPath := range group.Paths {
			matches[memberPath] = struct{}{}
		}
	}
	return groups, matches
}

// collectFiles invokes visit for every file node in traversal order.
func collectFiles(node *types.Node, visit func(fileNode *types.Node)) {
	if node == nil {
		return
	}
	if node.IsFile() {
		visit(node)
		return
	}
	for _, childNode := range node.Children {
		collectFiles(childNode, visit)
	}
}
