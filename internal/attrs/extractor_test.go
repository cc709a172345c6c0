package attrs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aafulei/atree/internal/attrs"
	"github.com/aafulei/atree/internal/types"
	"github.com/aafulei/atree/internal/walker"
)

// buildAnnotatedTree writes the files and walks the resulting directory.
func buildAnnotatedTree(testingHandle *testing.T, files map[string][]byte) *types.Node {
	testingHandle.Helper()
	rootDirectory := testingHandle.TempDir()
	for relativePath, content := range files {
		fullPath := filepath.Join(rootDirectory, relativePath)
		if directoryError := os.MkdirAll(filepath.Dir(fullPath), 0o755); directoryError != nil {
			testingHandle.Fatalf("creating directory for %s: %v", relativePath, directoryError)
		}
		if writeError := os.WriteFile(fullPath, content, 0o644); writeError != nil {
			testingHandle.Fatalf("writing %s: %v", relativePath, writeError)
		}
	}
	rootNode, walkError := walker.Walk(context.Background(), walker.Options{Root: rootDirectory})
	if walkError != nil {
		testingHandle.Fatalf("Walk failed: %v", walkError)
	}
	return rootNode
}

// fileByName returns the named file node anywhere under root.
func fileByName(testingHandle *testing.T, node *types.Node, name string) *types.Node {
	testingHandle.Helper()
	var found *types.Node
	var search func(candidate *types.Node)
	search = func(candidate *types.Node) {
		if candidate.IsFile() && candidate.Name == name {
			found = candidate
		}
		for _, childNode := range candidate.Children {
			search(childNode)
		}
	}
	search(node)
	if found == nil {
		testingHandle.Fatalf("file %q not found", name)
	}
	return found
}

// TestPopulateLineCounts verifies terminator counting for text files.
func TestPopulateLineCounts(testingHandle *testing.T) {
	rootNode := buildAnnotatedTree(testingHandle, map[string][]byte{
		"three.txt":      []byte("one\ntwo\nthree\n"),
		"unterminated":   []byte("no trailing newline"),
		"empty.txt":      {},
		"sub/nested.txt": []byte("a\nb\n"),
	})

	populateError := attrs.Populate(context.Background(), rootNode, attrs.Request{Lines: true}, 0, nil)
	if populateError != nil {
		testingHandle.Fatalf("Populate failed: %v", populateError)
	}

	expectedCounts := map[string]int64{
		"three.txt":    3,
		"unterminated": 0,
		"empty.txt":    0,
		"nested.txt":   2,
	}
	for fileName, expectedCount := range expectedCounts {
		node := fileByName(testingHandle, rootNode, fileName)
		if !node.HasLineCount {
			testingHandle.Errorf("%s: line count must be available", fileName)
			continue
		}
		if node.LineCount != expectedCount {
			testingHandle.Errorf("%s: line count got %d want %d", fileName, node.LineCount, expectedCount)
		}
	}
}

// TestPopulateSkipsBinaryLineCounts verifies that binary content gets a hash
// but no line count.
func TestPopulateSkipsBinaryLineCounts(testingHandle *testing.T) {
	binaryContent := []byte{0x7f, 'E', 'L', 'F', 0x00, 0x01, 0x02, '\n', 0x00}
	rootNode := buildAnnotatedTree(testingHandle, map[string][]byte{
		"program.bin": binaryContent,
		"notes.txt":   []byte("text\n"),
	})

	populateError := attrs.Populate(context.Background(), rootNode, attrs.Request{Lines: true, Hash: true}, 0, nil)
	if populateError != nil {
		testingHandle.Fatalf("Populate failed: %v", populateError)
	}

	binaryNode := fileByName(testingHandle, rootNode, "program.bin")
	if binaryNode.HasLineCount {
		testingHandle.Error("binary file must not carry a line count")
	}
	if !binaryNode.HasContentHash {
		testingHandle.Error("binary file must still be hashed")
	}
	textNode := fileByName(testingHandle, rootNode, "notes.txt")
	if !textNode.HasLineCount || textNode.LineCount != 1 {
		testingHandle.Errorf("text file line count: %+v", textNode)
	}
}

// TestPopulateHashesEqualContent verifies that identical bytes hash alike and
// different bytes do not.
func TestPopulateHashesEqualContent(testingHandle *testing.T) {
	rootNode := buildAnnotatedTree(testingHandle, map[string][]byte{
		"copy-one.txt": []byte("same payload\n"),
		"copy-two.txt": []byte("same payload\n"),
		"other.txt":    []byte("different payload\n"),
	})

	populateError := attrs.Populate(context.Background(), rootNode, attrs.Request{Hash: true}, 2, nil)
	if populateError != nil {
		testingHandle.Fatalf("Populate failed: %v", populateError)
	}

	firstCopy := fileByName(testingHandle, rootNode, "copy-one.txt")
	secondCopy := fileByName(testingHandle, rootNode, "copy-two.txt")
	otherNode := fileByName(testingHandle, rootNode, "other.txt")
	if !firstCopy.HasContentHash || !secondCopy.HasContentHash || !otherNode.HasContentHash {
		testingHandle.Fatal("every readable file must be hashed")
	}
	if firstCopy.ContentHash != secondCopy.ContentHash {
		testingHandle.Error("identical content must produce identical hashes")
	}
	if firstCopy.ContentHash == otherNode.ContentHash {
		testingHandle.Error("different content must produce different hashes")
	}
	if firstCopy.HasLineCount {
		testingHandle.Error("line counts must not be computed when only hashes were requested")
	}
}

// TestPopulateEmptyRequest verifies that an empty request reads nothing.
func TestPopulateEmptyRequest(testingHandle *testing.T) {
	rootNode := buildAnnotatedTree(testingHandle, map[string][]byte{
		"a.txt": []byte("content\n"),
	})

	populateError := attrs.Populate(context.Background(), rootNode, attrs.Request{}, 0, nil)
	if populateError != nil {
		testingHandle.Fatalf("Populate failed: %v", populateError)
	}
	node := fileByName(testingHandle, rootNode, "a.txt")
	if node.HasLineCount || node.HasContentHash {
		testingHandle.Fatalf("attributes computed without a request: %+v", node)
	}
}

// TestPopulateMissingFileWarns verifies that a file vanishing between walk
// and read degrades to a warning with unavailable attributes.
func TestPopulateMissingFileWarns(testingHandle *testing.T) {
	rootNode := buildAnnotatedTree(testingHandle, map[string][]byte{
		"vanishing.txt": []byte("short lived\n"),
	})
	vanishingNode := fileByName(testingHandle, rootNode, "vanishing.txt")
	if removeError := os.Remove(vanishingNode.Path); removeError != nil {
		testingHandle.Fatalf("removing fixture: %v", removeError)
	}

	var warnings []string
	populateError := attrs.Populate(context.Background(), rootNode, attrs.Request{Hash: true}, 0, func(message string) {
		warnings = append(warnings, message)
	})
	if populateError != nil {
		testingHandle.Fatalf("Populate must not fail for a vanished file: %v", populateError)
	}
	if vanishingNode.HasContentHash {
		testingHandle.Error("vanished file must not carry a hash")
	}
	if len(warnings) == 0 {
		testingHandle.Error("vanished file must produce a warning")
	}
}
