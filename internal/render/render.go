// Package render turns an annotated tree plus a resolved match set into the
// final display lines. Rendering is two explicit passes: a post-order pass
// marks every directory that contains a match anywhere in its subtree, then a
// pre-order pass emits lines using connectors computed against printed
// children only. Interleaving the passes would draw continuation bars for
// entries that are ultimately invisible.
package render

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/aafulei/atree/internal/rank"
	"github.com/aafulei/atree/internal/types"
	"github.com/aafulei/atree/internal/utils"
)

const (
	treeBranchConnector = "├── "
	treeLastConnector   = "└── "
	treeBranchPadding   = "│   "
	treeLastPadding     = "    "

	summaryLineFormat = "%d directories, %d files"

	duplicateMemberIndent = "    "
	duplicateReportFormat = "%d distinct contents, %d duplicate copies"
	topReportLineFormat   = "%*d  %12s  %s"
	topReportRankHeader   = "#"
)

// duplicateHuePalette rotates over the groups so adjacent groups read apart.
var duplicateHuePalette = []color.Attribute{
	color.FgRed,
	color.FgGreen,
	color.FgYellow,
	color.FgBlue,
	color.FgMagenta,
	color.FgCyan,
}

// Options adjusts presentation; it never changes which nodes print.
type Options struct {
	// Colorize enables ANSI color for directory names and duplicate groups.
	Colorize bool
	// Verbose appends a detail report after the tree: a rank table for top-N
	// queries, group listings for duplicate queries.
	Verbose bool
	// DuplicateGroups, when non-nil, drives per-group hues and the verbose
	// group listing.
	DuplicateGroups []types.DuplicateGroup
	// TopRanking, when non-nil, drives the verbose rank table.
	TopRanking []rank.RankedFile
	// TopAttribute names the attribute TopRanking was ranked by, so the rank
	// table can format byte values human-readably.
	TopAttribute string
}

// Result is the renderable outcome of one invocation. Lines are ready to
// print verbatim; the counts reflect printed entries only, with the root
// excluded from the directory count.
type Result struct {
	Lines          []string
	DirectoryCount int
	FileCount      int
}

// Render prunes the tree against the match set and produces display lines
// ending in the summary. With zero matches the body is empty and the summary
// reports zero counts.
func Render(root *types.Node, matches types.MatchSet, options Options) Result {
	renderer := &treeRenderer{
		matches:  matches,
		relevant: make(map[*types.Node]bool),
		options:  options,
		hues:     assignDuplicateHues(options),
	}
	renderer.markRelevance(root)

	if renderer.relevant[root] {
		renderer.lines = append(renderer.lines, renderer.directoryLabel(root))
		renderer.emitChildren(root, "")
	}

	result := Result{
		DirectoryCount: renderer.directoryCount,
		FileCount:      renderer.fileCount,
	}
	if len(renderer.lines) > 0 {
		result.Lines = append(result.Lines, renderer.lines...)
		result.Lines = append(result.Lines, "")
	}
	if options.Verbose {
		result.Lines = append(result.Lines, renderer.verboseReport()...)
	}
	result.Lines = append(result.Lines, fmt.Sprintf(summaryLineFormat, result.DirectoryCount, result.FileCount))
	return result
}

type treeRenderer struct {
	matches        types.MatchSet
	relevant       map[*types.Node]bool
	options        Options
	hues           map[string]*color.Color
	lines          []string
	directoryCount int
	fileCount      int
}

// markRelevance is the post-order pass: a file is relevant when matched, a
// directory when any node in its subtree is.
func (renderer *treeRenderer) markRelevance(node *types.Node) bool {
	if node == nil {
		return false
	}
	if node.IsFile() {
		matched := renderer.matches.Contains(node.Path)
		renderer.relevant[node] = matched
		return matched
	}
	anyDescendantRelevant := false
	for _, childNode := range node.Children {
		if renderer.markRelevance(childNode) {
			anyDescendantRelevant = true
		}
	}
	renderer.relevant[node] = anyDescendantRelevant
	return anyDescendantRelevant
}

// printedChildren filters a directory's children down to the ones that will
// actually appear, which is what connector selection must be based on.
func (renderer *treeRenderer) printedChildren(directoryNode *types.Node) []*types.Node {
	var printed []*types.Node
	for _, childNode := range directoryNode.Children {
		if renderer.relevant[childNode] {
			printed = append(printed, childNode)
		}
	}
	return printed
}

// emitChildren is the pre-order pass emitting one line per printed node.
func (renderer *treeRenderer) emitChildren(directoryNode *types.Node, prefix string) {
	printed := renderer.printedChildren(directoryNode)
	for childIndex, childNode := range printed {
		isLastPrinted := childIndex == len(printed)-1
		connector := treeBranchConnector
		childPrefix := prefix + treeBranchPadding
		if isLastPrinted {
			connector = treeLastConnector
			childPrefix = prefix + treeLastPadding
		}
		if childNode.IsDirectory() {
			renderer.directoryCount++
			renderer.lines = append(renderer.lines, prefix+connector+renderer.directoryLabel(childNode))
			renderer.emitChildren(childNode, childPrefix)
			continue
		}
		renderer.fileCount++
		renderer.lines = append(renderer.lines, prefix+connector+renderer.fileLabel(childNode))
	}
}

// directoryLabel renders a directory name, bold cyan when colorized.
func (renderer *treeRenderer) directoryLabel(directoryNode *types.Node) string {
	if !renderer.options.Colorize {
		return directoryNode.Name
	}
	return color.New(color.FgCyan, color.Bold).Sprint(directoryNode.Name)
}

// fileLabel renders a file name, tinted with its duplicate-group hue when one
// is assigned.
func (renderer *treeRenderer) fileLabel(fileNode *types.Node) string {
	if hue, hasHue := renderer.hues[fileNode.Path]; hasHue {
		return hue.Sprint(fileNode.Name)
	}
	return fileNode.Name
}

// verboseReport builds the post-tree detail block for global queries.
func (renderer *treeRenderer) verboseReport() []string {
	var reportLines []string
	if renderer.options.TopRanking != nil {
		rankWidth := len(fmt.Sprintf("%d", len(renderer.options.TopRanking)))
		if rankWidth < len(topReportRankHeader) {
			rankWidth = len(topReportRankHeader)
		}
		for rankIndex, rankedFile := range renderer.options.TopRanking {
			valueLabel := fmt.Sprintf("%d", rankedFile.Value)
			if renderer.options.TopAttribute == types.AttributeSize {
				valueLabel = utils.FormatFileSize(rankedFile.Value)
			}
			reportLines = append(reportLines, fmt.Sprintf(topReportLineFormat, rankWidth, rankIndex+1, valueLabel, rankedFile.Path))
		}
	}
	if renderer.options.DuplicateGroups != nil {
		copyCount := 0
		for _, group := range renderer.options.DuplicateGroups {
			hashLabel := group.Hash
			if hue, hasHue := renderer.hues[group.Paths[0]]; hasHue {
				hashLabel = hue.Sprint(group.Hash)
			}
			reportLines = append(reportLines, hashLabel)
			for _, memberPath := range group.Paths {
				reportLines = append(reportLines, duplicateMemberIndent+memberPath)
			}
			copyCount += len(group.Paths)
		}
		reportLines = append(reportLines, fmt.Sprintf(duplicateReportFormat, len(renderer.options.DuplicateGroups), copyCount))
	}
	if len(reportLines) > 0 {
		reportLines = append(reportLines, "")
	}
	return reportLines
}

// assignDuplicateHues gives every member of a duplicate group the same color,
// rotating the palette across groups.
func assignDuplicateHues(options Options) map[string]*color.Color {
	hues := make(map[string]*color.Color)
	if !options.Colorize {
		return hues
	}
	for groupIndex, group := range options.DuplicateGroups {
		groupHue := color.New(duplicateHuePalette[groupIndex%len(duplicateHuePalette)])
		for _, memberPath := range group.Paths {
			hues[memberPath] = groupHue
		}
	}
	return hues
}
