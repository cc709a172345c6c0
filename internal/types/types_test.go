package types_test

import (
	"testing"
	"time"

	"github.com/aafulei/atree/internal/types"
)

// TestAttributeValueAvailability verifies which attributes are available on
// files, directories, and unreadable nodes.
func TestAttributeValueAvailability(testingHandle *testing.T) {
	modificationTime := time.Date(2024, time.March, 1, 10, 30, 0, 0, time.UTC)

	fileNode := &types.Node{
		Kind:         types.NodeKindFile,
		SizeBytes:    1024,
		ModTime:      modificationTime,
		LineCount:    42,
		HasLineCount: true,
	}
	if value, available := fileNode.AttributeValue(types.AttributeSize); !available || value != 1024 {
		testingHandle.Errorf("file size: got %d/%v", value, available)
	}
	if value, available := fileNode.AttributeValue(types.AttributeLines); !available || value != 42 {
		testingHandle.Errorf("file lines: got %d/%v", value, available)
	}
	if value, available := fileNode.AttributeValue(types.AttributeModTime); !available || value != modificationTime.UnixNano() {
		testingHandle.Errorf("file mtime: got %d/%v", value, available)
	}

	directoryNode := &types.Node{Kind: types.NodeKindDirectory, ModTime: modificationTime}
	if _, available := directoryNode.AttributeValue(types.AttributeSize); available {
		testingHandle.Error("directories must not expose a size")
	}
	if _, available := directoryNode.AttributeValue(types.AttributeLines); available {
		testingHandle.Error("directories must not expose a line count")
	}
	if _, available := directoryNode.AttributeValue(types.AttributeModTime); !available {
		testingHandle.Error("directories must expose a modification time")
	}

	unreadableNode := &types.Node{Kind: types.NodeKindFile, SizeBytes: 10, Unreadable: true}
	if _, available := unreadableNode.AttributeValue(types.AttributeSize); available {
		testingHandle.Error("unreadable nodes must expose no attributes")
	}

	uncountedNode := &types.Node{Kind: types.NodeKindFile}
	if _, available := uncountedNode.AttributeValue(types.AttributeLines); available {
		testingHandle.Error("a line count must be unavailable until populated")
	}
}

// TestIsKnownAttribute verifies the attribute name registry.
func TestIsKnownAttribute(testingHandle *testing.T) {
	for _, knownName := range []string{types.AttributeSize, types.AttributeLines, types.AttributeModTime} {
		if !types.IsKnownAttribute(knownName) {
			testingHandle.Errorf("%q must be a known attribute", knownName)
		}
	}
	for _, unknownName := range []string{"", "depth", "ctime", "SIZE"} {
		if types.IsKnownAttribute(unknownName) {
			testingHandle.Errorf("%q must not be a known attribute", unknownName)
		}
	}
}

// TestMatchSetContains verifies membership checks on the match set.
func TestMatchSetContains(testingHandle *testing.T) {
	matches := types.MatchSet{"/tree/a.py": {}}
	if !matches.Contains("/tree/a.py") {
		testingHandle.Error("present path must be contained")
	}
	if matches.Contains("/tree/b.py") {
		testingHandle.Error("absent path must not be contained")
	}
	var emptyMatches types.MatchSet
	if emptyMatches.Contains("/tree/a.py") {
		testingHandle.Error("nil match set must contain nothing")
	}
}
