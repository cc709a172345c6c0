// Package types defines every cross-package data structure used by the atree CLI.
package types

import "time"

const (
	NodeKindFile      = "file"
	NodeKindDirectory = "directory"

	AttributeSize    = "size"
	AttributeLines   = "lines"
	AttributeModTime = "mtime"
)

// Node represents a single filesystem entry discovered by the walker. The
// walker exclusively owns the tree; downstream components treat it as
// read-only except for the lazy attribute fields populated by the extractor.
type Node struct {
	Path           string
	Name           string
	Kind           string
	SizeBytes      int64
	ModTime        time.Time
	LineCount      int64
	HasLineCount   bool
	ContentHash    string
	HasContentHash bool
	Unreadable     bool
	Children       []*Node
}

// IsDirectory reports whether the node represents a directory.
func (node *Node) IsDirectory() bool {
	return node.Kind == NodeKindDirectory
}

// IsFile reports whether the node represents a regular file.
func (node *Node) IsFile() bool {
	return node.Kind == NodeKindFile
}

// AttributeValue returns the numeric value of the named attribute and whether
// it is available on this node. Sizes are byte lengths, line counts are
// terminator counts, and modification times are Unix nanoseconds. Directories
// expose only mtime; every attribute of an unreadable node is unavailable.
func (node *Node) AttributeValue(attributeName string) (int64, bool) {
	if node.Unreadable {
		return 0, false
	}
	switch attributeName {
	case AttributeSize:
		if !node.IsFile() {
			return 0, false
		}
		return node.SizeBytes, true
	case AttributeLines:
		if !node.HasLineCount {
			return 0, false
		}
		return node.LineCount, true
	case AttributeModTime:
		return node.ModTime.UnixNano(), true
	default:
		return 0, false
	}
}

// IsKnownAttribute reports whether the name identifies a filterable attribute.
func IsKnownAttribute(attributeName string) bool {
	switch attributeName {
	case AttributeSize, AttributeLines, AttributeModTime:
		return true
	default:
		return false
	}
}

// DuplicateGroup is a maximal set of at least two file paths sharing one
// content hash. Groups live for a single invocation and are never persisted.
type DuplicateGroup struct {
	Hash  string
	Paths []string
}

// MatchSet is the resolved set of file paths selected by the show-predicate.
type MatchSet map[string]struct{}

// Contains reports whether the path belongs to the match set.
func (matches MatchSet) Contains(path string) bool {
	_, present := matches[path]
	return present
}
