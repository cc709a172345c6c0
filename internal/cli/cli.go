// Package cli provides the command line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/atotto/clipboard"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aafulei/atree/internal/config"
	"github.com/aafulei/atree/internal/engine"
	"github.com/aafulei/atree/internal/utils"
)

const (
	patternFlagName  = "pattern"
	ignoreFlagName   = "ignore"
	showFlagName     = "show"
	maxDepthFlagName = "max-depth"
	hiddenFlagName   = "hidden"
	noColorFlagName  = "no-color"
	verboseFlagName  = "verbose"
	workersFlagName  = "workers"
	copyFlagName     = "copy"
	configFlagName   = "config"
	versionFlagName  = "version"

	patternFlagDescription  = "include only files matching the glob pattern (repeatable)"
	ignoreFlagDescription   = "exclude files matching the glob pattern (repeatable)"
	showFlagDescription     = `show-predicate, e.g. "lines>=5000", "mtime>=now-1week", "lines@top10", "duplicates"`
	maxDepthFlagDescription = "descend at most this many directory levels (0 = unlimited)"
	hiddenFlagDescription   = "include hidden files and directories"
	noColorFlagDescription  = "disable colored output"
	verboseFlagDescription  = "print a detail report for top-N and duplicate queries"
	workersFlagDescription  = "attribute worker pool size"
	copyFlagDescription     = "copy the rendered tree to the clipboard"
	configFlagDescription   = "configuration file path"
	versionFlagDescription  = "display application version"

	versionTemplate = "atree version: %s\n"
	defaultPath     = "."

	rootUse              = "atree [path]"
	rootShortDescription = "augmented directory tree"
	rootLongDescription  = `atree walks a directory subtree, evaluates a predicate against per-file
attributes (size, lines, mtime, content hash), and renders the matches as a
tree that keeps every ancestor directory visible for context.
Use --pattern to restrict which files participate and --show to select which
files are displayed.`
	rootUsageExample = `  # Python files with at least 5000 lines
  atree -P '*.py' --show 'lines>=5000' .

  # Ten largest files by line count
  atree --show 'lines@top10' src

  # Files with identical content
  atree --show duplicates --verbose .`

	warningPrefix            = "Warning: "
	errorClipboardCopyFormat = "copying output to clipboard: %w"
	errorLoadConfigFormat    = "loading configuration: %w"
)

// Execute runs the atree application with the provided logger for warnings.
func Execute(logger *zap.Logger) error {
	rootCommand := createRootCommand(logger)
	return rootCommand.Execute()
}

// commandOptions stores the flag values of one invocation.
type commandOptions struct {
	patterns        []string
	ignorePatterns  []string
	show            string
	maxDepth        int
	includeHidden   bool
	noColor         bool
	verbose         bool
	workerCount     int
	copyToClipboard bool
	configFilePath  string
	showVersion     bool
}

// createRootCommand builds the root Cobra command.
func createRootCommand(logger *zap.Logger) *cobra.Command {
	var options commandOptions

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		Example:      rootUsageExample,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			if options.showVersion {
				fmt.Printf(versionTemplate, utils.GetApplicationVersion())
				return nil
			}
			rootPath := defaultPath
			if len(arguments) == 1 {
				rootPath = arguments[0]
			}
			return runInspection(command, rootPath, options, logger)
		},
	}

	rootCommand.Flags().StringArrayVarP(&options.patterns, patternFlagName, "P", nil, patternFlagDescription)
	rootCommand.Flags().StringArrayVarP(&options.ignorePatterns, ignoreFlagName, "I", nil, ignoreFlagDescription)
	rootCommand.Flags().StringVar(&options.show, showFlagName, "", showFlagDescription)
	rootCommand.Flags().IntVarP(&options.maxDepth, maxDepthFlagName, "L", 0, maxDepthFlagDescription)
	rootCommand.Flags().BoolVarP(&options.includeHidden, hiddenFlagName, "H", false, hiddenFlagDescription)
	rootCommand.Flags().BoolVar(&options.noColor, noColorFlagName, false, noColorFlagDescription)
	rootCommand.Flags().BoolVarP(&options.verbose, verboseFlagName, "v", false, verboseFlagDescription)
	rootCommand.Flags().IntVar(&options.workerCount, workersFlagName, 0, workersFlagDescription)
	rootCommand.Flags().BoolVar(&options.copyToClipboard, copyFlagName, false, copyFlagDescription)
	rootCommand.Flags().StringVar(&options.configFilePath, configFlagName, "", configFlagDescription)
	rootCommand.Flags().BoolVar(&options.showVersion, versionFlagName, false, versionFlagDescription)
	return rootCommand
}

// runInspection merges configuration-file defaults under the flags, runs the
// engine once, and prints the rendered lines.
func runInspection(command *cobra.Command, rootPath string, options commandOptions, logger *zap.Logger) error {
	applicationConfiguration, loadError := config.LoadApplicationConfiguration(config.LoadOptions{
		ExplicitFilePath: options.configFilePath,
	})
	if loadError != nil {
		return fmt.Errorf(errorLoadConfigFormat, loadError)
	}
	resolved := applyConfigurationDefaults(command, options, applicationConfiguration)

	interruptCtx, stopNotify := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopNotify()

	warn := func(message string) {
		logger.Warn(warningPrefix + message)
	}

	result, runError := engine.Run(interruptCtx, engine.Config{
		Root:            rootPath,
		IncludePatterns: resolved.patterns,
		IgnorePatterns:  resolved.ignorePatterns,
		Show:            resolved.show,
		IncludeHidden:   resolved.includeHidden,
		MaxDepth:        resolved.maxDepth,
		WorkerCount:     resolved.workerCount,
		Colorize:        colorizeEnabled(resolved),
		Verbose:         resolved.verbose,
		Warn:            warn,
	})
	if runError != nil {
		return runError
	}

	renderedOutput := strings.Join(result.Lines, "\n")
	fmt.Println(renderedOutput)

	if resolved.copyToClipboard {
		if clipboardError := clipboard.WriteAll(renderedOutput); clipboardError != nil {
			return fmt.Errorf(errorClipboardCopyFormat, clipboardError)
		}
	}
	return nil
}

// applyConfigurationDefaults fills every flag the user did not set from the
// configuration file.
func applyConfigurationDefaults(command *cobra.Command, options commandOptions, configuration config.ApplicationConfiguration) commandOptions {
	resolved := options
	if !command.Flags().Changed(patternFlagName) && len(configuration.Pattern) > 0 {
		resolved.patterns = configuration.Pattern
	}
	if !command.Flags().Changed(ignoreFlagName) && len(configuration.Ignore) > 0 {
		resolved.ignorePatterns = configuration.Ignore
	}
	if !command.Flags().Changed(hiddenFlagName) && configuration.Hidden != nil {
		resolved.includeHidden = *configuration.Hidden
	}
	if !command.Flags().Changed(maxDepthFlagName) && configuration.MaxDepth != nil {
		resolved.maxDepth = *configuration.MaxDepth
	}
	if !command.Flags().Changed(workersFlagName) && configuration.Workers != nil {
		resolved.workerCount = *configuration.Workers
	}
	if !command.Flags().Changed(noColorFlagName) && configuration.Color != nil {
		resolved.noColor = !*configuration.Color
	}
	if !command.Flags().Changed(verboseFlagName) && configuration.Verbose != nil {
		resolved.verbose = *configuration.Verbose
	}
	return resolved
}

// colorizeEnabled reports whether the rendered lines should carry ANSI color:
// never when --no-color is set, otherwise only when stdout is a terminal.
func colorizeEnabled(options commandOptions) bool {
	if options.noColor {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}
