// Package walker builds the in-memory directory tree that every downstream
// component consumes. Traversal is depth-first and sequential so that child
// ordering is deterministic across runs on an unchanged filesystem.
package walker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aafulei/atree/internal/types"
)

const (
	errorRootMissingFormat   = "root path %s does not exist"
	errorRootNotDirFormat    = "root path %s is not a directory"
	errorRootStatFormat      = "stat failed for root %s: %w"
	errorAbsolutePathFormat  = "getting absolute path for %s: %w"
	errorInvalidGlobFormat   = "invalid glob pattern %q: %w"
	warningReadDirFormat     = "skipping unreadable directory %s: %v"
	warningStatEntryFormat   = "unable to stat %s: %v"
	warningSymlinkCycle      = "symlink cycle detected at %s, skipping subtree"
	warningResolveLinkFormat = "unable to resolve %s: %v"

	hiddenNamePrefix = "."
)

// Options controls a single traversal.
type Options struct {
	// Root is the directory the tree is built from.
	Root string
	// IncludePatterns are glob patterns matched against file names. Empty
	// means every file participates. Directories are always traversed since
	// a matching file may live arbitrarily deep.
	IncludePatterns []string
	// IgnorePatterns are glob patterns excluding matching file names.
	IgnorePatterns []string
	// IncludeHidden admits dot-prefixed entries into the tree.
	IncludeHidden bool
	// MaxDepth limits how many directory levels below the root are entered.
	// Zero means unlimited.
	MaxDepth int
	// Warn receives soft per-node failure messages. Never nil after Walk starts.
	Warn func(message string)
}

type traversal struct {
	options Options
	// visitedRealPaths holds the resolved paths of every directory on the
	// current descent stack, so a symlink re-entering an ancestor is caught.
	visitedRealPaths map[string]struct{}
}

// Walk traverses the subtree rooted at options.Root and returns its annotated
// tree. An invalid root or malformed glob pattern is a fatal error; unreadable
// entries and symlink cycles are reported through options.Warn and skipped.
func Walk(ctx context.Context, options Options) (*types.Node, error) {
	if options.Warn == nil {
		options.Warn = func(string) {}
	}
	if patternError := validatePatterns(options.IncludePatterns); patternError != nil {
		return nil, patternError
	}
	if patternError := validatePatterns(options.IgnorePatterns); patternError != nil {
		return nil, patternError
	}

	absoluteRootPath, absolutePathError := filepath.Abs(options.Root)
	if absolutePathError != nil {
		return nil, fmt.Errorf(errorAbsolutePathFormat, options.Root, absolutePathError)
	}
	rootInfo, rootStatError := os.Stat(absoluteRootPath)
	if rootStatError != nil {
		if os.IsNotExist(rootStatError) {
			return nil, fmt.Errorf(errorRootMissingFormat, options.Root)
		}
		return nil, fmt.Errorf(errorRootStatFormat, options.Root, rootStatError)
	}
	if !rootInfo.IsDir() {
		return nil, fmt.Errorf(errorRootNotDirFormat, options.Root)
	}

	rootNode := &types.Node{
		Path:    absoluteRootPath,
		Name:    filepath.Base(absoluteRootPath),
		Kind:    types.NodeKindDirectory,
		ModTime: rootInfo.ModTime(),
	}

	walk := &traversal{
		options:          options,
		visitedRealPaths: make(map[string]struct{}),
	}
	if rootRealPath, resolveError := filepath.EvalSymlinks(absoluteRootPath); resolveError == nil {
		walk.visitedRealPaths[rootRealPath] = struct{}{}
	}

	if walkError := walk.descend(ctx, rootNode, 1); walkError != nil {
		return nil, walkError
	}
	return rootNode, nil
}

// descend enumerates one directory and recurses into its subdirectories.
// Returned errors are reserved for context cancellation; filesystem failures
// degrade to warnings.
func (walk *traversal) descend(ctx context.Context, directoryNode *types.Node, depth int) error {
	directoryEntries, readDirectoryError := os.ReadDir(directoryNode.Path)
	if readDirectoryError != nil {
		walk.options.Warn(fmt.Sprintf(warningReadDirFormat, directoryNode.Path, readDirectoryError))
		directoryNode.Unreadable = true
		return nil
	}

	for _, directoryEntry := range directoryEntries {
		if contextError := ctx.Err(); contextError != nil {
			return contextError
		}

		entryName := directoryEntry.Name()
		if !walk.options.IncludeHidden && strings.HasPrefix(entryName, hiddenNamePrefix) {
			continue
		}
		childPath := filepath.Join(directoryNode.Path, entryName)

		childInfo, childStatError := os.Stat(childPath)
		if childStatError != nil {
			// Broken symlink or vanished entry: keep it as an unreadable
			// file node when the structural filter admits its name.
			if !walk.fileNameSelected(entryName) {
				continue
			}
			walk.options.Warn(fmt.Sprintf(warningStatEntryFormat, childPath, childStatError))
			directoryNode.Children = append(directoryNode.Children, &types.Node{
				Path:       childPath,
				Name:       entryName,
				Kind:       types.NodeKindFile,
				Unreadable: true,
			})
			continue
		}

		if childInfo.IsDir() {
			childNode := &types.Node{
				Path:    childPath,
				Name:    entryName,
				Kind:    types.NodeKindDirectory,
				ModTime: childInfo.ModTime(),
			}
			if walk.options.MaxDepth > 0 && depth >= walk.options.MaxDepth {
				directoryNode.Children = append(directoryNode.Children, childNode)
				continue
			}
			entered, enterError := walk.enter(childPath)
			if enterError != nil {
				walk.options.Warn(fmt.Sprintf(warningResolveLinkFormat, childPath, enterError))
				continue
			}
			if !entered {
				walk.options.Warn(fmt.Sprintf(warningSymlinkCycle, childPath))
				continue
			}
			descendError := walk.descend(ctx, childNode, depth+1)
			walk.leave(childPath)
			if descendError != nil {
				return descendError
			}
			directoryNode.Children = append(directoryNode.Children, childNode)
			continue
		}

		if !walk.fileNameSelected(entryName) {
			continue
		}
		directoryNode.Children = append(directoryNode.Children, &types.Node{
			Path:      childPath,
			Name:      entryName,
			Kind:      types.NodeKindFile,
			SizeBytes: childInfo.Size(),
			ModTime:   childInfo.ModTime(),
		})
	}

	return nil
}

// enter records the directory's resolved path on the descent stack. It
// reports false when the resolved path is already an ancestor, which means a
// symlink loops back into the current descent.
func (walk *traversal) enter(directoryPath string) (bool, error) {
	realPath, resolveError := filepath.EvalSymlinks(directoryPath)
	if resolveError != nil {
		return false, resolveError
	}
	if _, alreadyVisited := walk.visitedRealPaths[realPath]; alreadyVisited {
		return false, nil
	}
	walk.visitedRealPaths[realPath] = struct{}{}
	return true, nil
}

// leave removes the directory's resolved path from the descent stack.
func (walk *traversal) leave(directoryPath string) {
	realPath, resolveError := filepath.EvalSymlinks(directoryPath)
	if resolveError != nil {
		return
	}
	delete(walk.visitedRealPaths, realPath)
}

// fileNameSelected applies the structural include and ignore patterns to a
// file name. Directories never reach this check.
func (walk *traversal) fileNameSelected(fileName string) bool {
	for _, ignorePattern := range walk.options.IgnorePatterns {
		if matched, _ := filepath.Match(ignorePattern, fileName); matched {
			return false
		}
	}
	if len(walk.options.IncludePatterns) == 0 {
		return true
	}
	for _, includePattern := range walk.options.IncludePatterns {
		if matched, _ := filepath.Match(includePattern, fileName); matched {
			return true
		}
	}
	return false
}

// validatePatterns rejects malformed glob patterns before traversal starts.
func validatePatterns(patterns []string) error {
	for _, patternValue := range patterns {
		if _, matchError := filepath.Match(patternValue, ""); matchError != nil {
			return fmt.Errorf(errorInvalidGlobFormat, patternValue, matchError)
		}
	}
	return nil
}
