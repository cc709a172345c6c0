// Package attrs computes the content-dependent node attributes, line counts
// and content hashes, that require reading files in full. Attributes are
// computed only when the active query references them, which bounds I/O to
// what the invocation actually needs.
package attrs

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/aafulei/atree/internal/types"
	"github.com/aafulei/atree/internal/utils"
)

const (
	// DefaultWorkerCount bounds the attribute worker pool when the caller
	// does not choose a limit.
	DefaultWorkerCount = 8

	readBufferSize = 32 * 1024

	warningOpenFileFormat = "unable to open %s: %v"
	warningReadFileFormat = "unable to read %s: %v"
	lineTerminator        = '\n'
)

// Request names the lazy attributes an invocation needs.
type Request struct {
	Lines bool
	Hash  bool
}

// Empty reports whether no lazy attribute was requested.
func (request Request) Empty() bool {
	return !request.Lines && !request.Hash
}

// Populate fills the requested attributes on every readable file node under
// root. File reads run on a bounded worker pool; each worker owns exactly one
// node, so attribute writes are write-once and race-free. A file that cannot
// be read is reported through warn and left with unavailable attributes. The
// only returned error is context cancellation.
func Populate(ctx context.Context, root *types.Node, request Request, workerCount int, warn func(message string)) error {
	if request.Empty() || root == nil {
		return nil
	}
	if workerCount <= 0 {
		workerCount = DefaultWorkerCount
	}
	if warn == nil {
		warn = func(string) {}
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workerCount)

	var schedule func(node *types.Node)
	schedule = func(node *types.Node) {
		if node.IsFile() && !node.Unreadable {
			fileNode := node
			group.Go(func() error {
				if contextError := groupCtx.Err(); contextError != nil {
					return contextError
				}
				extract(fileNode, request, warn)
				return nil
			})
		}
		for _, childNode := range node.Children {
			schedule(childNode)
		}
	}
	schedule(root)

	return group.Wait()
}

// extract computes the requested attributes for a single file node. Both the
// line count and the hash come from one sequential read of the file.
func extract(fileNode *types.Node, request Request, warn func(message string)) {
	countLines := request.Lines && !utils.IsFileBinary(fileNode.Path)
	if !countLines && !request.Hash {
		return
	}

	file, openError := os.Open(fileNode.Path)
	if openError != nil {
		warn(fmt.Sprintf(warningOpenFileFormat, fileNode.Path, openError))
		return
	}
	defer file.Close()

	var terminatorCount int64
	digest := xxhash.New()
	buffer := make([]byte, readBufferSize)
	for {
		readCount, readError := file.Read(buffer)
		if readCount > 0 {
			chunk := buffer[:readCount]
			if countLines {
				terminatorCount += int64(bytes.Count(chunk, []byte{lineTerminator}))
			}
			if request.Hash {
				_, _ = digest.Write(chunk)
			}
		}
		if readError == io.EOF {
			break
		}
		if readError != nil {
			warn(fmt.Sprintf(warningReadFileFormat, fileNode.Path, readError))
			return
		}
	}

	if countLines {
		fileNode.LineCount = terminatorCount
		fileNode.HasLineCount = true
	}
	if request.Hash {
		fileNode.ContentHash = hex.EncodeToString(digest.Sum(nil))
		fileNode.HasContentHash = true
	}
}
