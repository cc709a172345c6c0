// Package engine performs one walk-evaluate-render pass. It owns the
// sequencing the components rely on: the tree is fully built before lazy
// attributes are populated, attributes are populated before global queries
// resolve, and the match set is final before the first line is rendered.
package engine

import (
	"context"
	"time"

	"github.com/aafulei/atree/internal/attrs"
	"github.com/aafulei/atree/internal/query"
	"github.com/aafulei/atree/internal/rank"
	"github.com/aafulei/atree/internal/render"
	"github.com/aafulei/atree/internal/types"
	"github.com/aafulei/atree/internal/walker"
)

// Config is the resolved configuration handed over by the CLI layer.
type Config struct {
	// Root is the directory to inspect.
	Root string
	// IncludePatterns restricts which files exist in the tree at all.
	IncludePatterns []string
	// IgnorePatterns excludes matching file names from the tree.
	IgnorePatterns []string
	// Show is the show-predicate source text; empty selects every file.
	Show string
	// IncludeHidden admits dot-prefixed entries.
	IncludeHidden bool
	// MaxDepth limits traversal depth; zero is unlimited.
	MaxDepth int
	// WorkerCount bounds the attribute worker pool; zero uses the default.
	WorkerCount int
	// Colorize enables ANSI color in the rendered lines.
	Colorize bool
	// Verbose appends the detail report for global queries.
	Verbose bool
	// Now anchors relative-time literals; the zero value means wall clock.
	// It is resolved exactly once so every comparison in the run agrees.
	Now time.Time
	// Warn receives soft per-node failure messages.
	Warn func(message string)
}

// Result is the renderable outcome: lines ready to print verbatim plus the
// printed directory and file counts.
type Result struct {
	Lines          []string
	DirectoryCount int
	FileCount      int
}

// Run executes a single inspection pass. Configuration problems (bad root,
// malformed predicate, invalid glob) return an error with no partial output;
// per-node failures degrade to warnings and never abort the run.
func Run(ctx context.Context, config Config) (Result, error) {
	if config.Warn == nil {
		config.Warn = func(string) {}
	}
	compileInstant := config.Now
	if compileInstant.IsZero() {
		compileInstant = time.Now()
	}

	var compiledQuery *query.Query
	if config.Show != "" {
		compiled, compileError := query.Compile(config.Show, compileInstant)
		if compileError != nil {
			return Result{}, compileError
		}
		compiledQuery = compiled
	}

	rootNode, walkError := walker.Walk(ctx, walker.Options{
		Root:            config.Root,
		IncludePatterns: config.IncludePatterns,
		IgnorePatterns:  config.IgnorePatterns,
		IncludeHidden:   config.IncludeHidden,
		MaxDepth:        config.MaxDepth,
		Warn:            config.Warn,
	})
	if walkError != nil {
		return Result{}, walkError
	}

	request := attrs.Request{
		Lines: compiledQuery.NeedsLineCounts(),
		Hash:  compiledQuery.NeedsContentHashes(),
	}
	if populateError := attrs.Populate(ctx, rootNode, request, config.WorkerCount, config.Warn); populateError != nil {
		return Result{}, populateError
	}

	matches, renderOptions := resolveMatches(rootNode, compiledQuery, config)
	rendered := render.Render(rootNode, matches, renderOptions)
	return Result{
		Lines:          rendered.Lines,
		DirectoryCount: rendered.DirectoryCount,
		FileCount:      rendered.FileCount,
	}, nil
}

// resolveMatches turns the compiled query into the concrete path set the
// renderer consumes. All three predicate forms end up in the same shape.
func resolveMatches(rootNode *types.Node, compiledQuery *query.Query, config Config) (types.MatchSet, render.Options) {
	renderOptions := render.Options{
		Colorize: config.Colorize,
		Verbose:  config.Verbose,
	}

	if compiledQuery == nil {
		matches := make(types.MatchSet)
		forEachFile(rootNode, func(fileNode *types.Node) {
			matches[fileNode.Path] = struct{}{}
		})
		return matches, renderOptions
	}

	switch compiledQuery.Kind {
	case query.KindTopN:
		ranking, matches := rank.ResolveTopN(rootNode, compiledQuery.TopN.Attribute, compiledQuery.TopN.Count)
		renderOptions.TopRanking = ranking
		renderOptions.TopAttribute = compiledQuery.TopN.Attribute
		return matches, renderOptions
	case query.KindDuplicates:
		groups, matches := rank.ResolveDuplicates(rootNode, compiledQuery.IncludeEmpty)
		renderOptions.DuplicateGroups = groups
		return matches, renderOptions
	default:
		matches := make(types.MatchSet)
		forEachFile(rootNode, func(fileNode *types.Node) {
			if query.Evaluate(compiledQuery.Comparison, fileNode) {
				matches[fileNode.Path] = struct{}{}
			}
		})
		return matches, renderOptions
	}
}

// forEachFile visits every file node in traversal order.
func forEachFile(node *types.Node, visit func(fileNode *types.Node)) {
	if node == nil {
		return
	}
	if node.IsFile() {
		visit(node)
		return
	}
	for _, childNode := range node.Children {
		forEachFile(childNode, visit)
	}
}
