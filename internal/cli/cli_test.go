package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/aafulei/atree/internal/config"
)

// applicationConfigurationFixture builds a configuration with a competing
// pattern plus hidden and worker defaults.
func applicationConfigurationFixture(hidden bool, workers int) config.ApplicationConfiguration {
	return config.ApplicationConfiguration{
		Pattern: []string{"*.txt"},
		Hidden:  &hidden,
		Workers: &workers,
	}
}

// writeFixtureFile creates a file with content under the fixture root.
func writeFixtureFile(testingHandle *testing.T, rootDirectory, relativePath, content string) {
	testingHandle.Helper()
	fullPath := filepath.Join(rootDirectory, relativePath)
	if directoryError := os.MkdirAll(filepath.Dir(fullPath), 0o755); directoryError != nil {
		testingHandle.Fatalf("creating directory for %s: %v", relativePath, directoryError)
	}
	if writeError := os.WriteFile(fullPath, []byte(content), 0o644); writeError != nil {
		testingHandle.Fatalf("writing %s: %v", relativePath, writeError)
	}
}

// captureStandardOutput runs execute with os.Stdout redirected to a pipe and
// returns everything it printed.
func captureStandardOutput(testingHandle *testing.T, execute func() error) (string, error) {
	testingHandle.Helper()
	originalStdout := os.Stdout
	pipeReader, pipeWriter, pipeError := os.Pipe()
	if pipeError != nil {
		testingHandle.Fatalf("creating pipe: %v", pipeError)
	}
	os.Stdout = pipeWriter
	executeError := execute()
	os.Stdout = originalStdout
	pipeWriter.Close()
	capturedBytes, readError := io.ReadAll(pipeReader)
	if readError != nil {
		testingHandle.Fatalf("reading captured output: %v", readError)
	}
	return string(capturedBytes), executeError
}

// TestRootCommandRendersTree verifies the full command path from arguments to
// printed tree.
func TestRootCommandRendersTree(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeFixtureFile(testingHandle, rootDirectory, "a/long.py", strings.Repeat("line\n", 20))
	writeFixtureFile(testingHandle, rootDirectory, "a/short.py", "line\n")
	writeFixtureFile(testingHandle, rootDirectory, "b/other.txt", "line\n")

	rootCommand := createRootCommand(zap.NewNop())
	rootCommand.SetArgs([]string{
		"--pattern", "*.py",
		"--show", "lines>=10",
		"--no-color",
		rootDirectory,
	})

	capturedOutput, executeError := captureStandardOutput(testingHandle, rootCommand.Execute)
	if executeError != nil {
		testingHandle.Fatalf("Execute failed: %v", executeError)
	}
	if !strings.Contains(capturedOutput, "long.py") {
		testingHandle.Errorf("matching file missing from output:\n%s", capturedOutput)
	}
	if strings.Contains(capturedOutput, "short.py") || strings.Contains(capturedOutput, "other.txt") {
		testingHandle.Errorf("pruned files must not print:\n%s", capturedOutput)
	}
	if !strings.Contains(capturedOutput, "1 directories, 1 files") {
		testingHandle.Errorf("summary line missing:\n%s", capturedOutput)
	}
}

// TestRootCommandRejectsBadPredicate verifies that a malformed predicate
// surfaces as a command error.
func TestRootCommandRejectsBadPredicate(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()

	rootCommand := createRootCommand(zap.NewNop())
	rootCommand.SetArgs([]string{"--show", "bogus>>1", rootDirectory})
	rootCommand.SetOut(io.Discard)
	rootCommand.SetErr(io.Discard)

	_, executeError := captureStandardOutput(testingHandle, rootCommand.Execute)
	if executeError == nil {
		testingHandle.Fatal("a malformed predicate must fail the command")
	}
	if !strings.Contains(executeError.Error(), "syntax error") {
		testingHandle.Fatalf("unexpected error: %v", executeError)
	}
}

// TestRootCommandVersionFlag verifies the version short circuit.
func TestRootCommandVersionFlag(testingHandle *testing.T) {
	rootCommand := createRootCommand(zap.NewNop())
	rootCommand.SetArgs([]string{"--version"})

	capturedOutput, executeError := captureStandardOutput(testingHandle, rootCommand.Execute)
	if executeError != nil {
		testingHandle.Fatalf("Execute failed: %v", executeError)
	}
	if !strings.Contains(capturedOutput, "atree version:") {
		testingHandle.Fatalf("version banner missing:\n%s", capturedOutput)
	}
}

// TestApplyConfigurationDefaults verifies that configuration values fill only
// the flags the user did not set.
func TestApplyConfigurationDefaults(testingHandle *testing.T) {
	rootCommand := createRootCommand(zap.NewNop())
	if parseError := rootCommand.ParseFlags([]string{"--pattern", "*.go"}); parseError != nil {
		testingHandle.Fatalf("parsing flags: %v", parseError)
	}

	configuredHidden := true
	configuredWorkers := 4
	resolved := applyConfigurationDefaults(rootCommand, commandOptions{patterns: []string{"*.go"}}, applicationConfigurationFixture(configuredHidden, configuredWorkers))

	if len(resolved.patterns) != 1 || resolved.patterns[0] != "*.go" {
		testingHandle.Errorf("explicit flag must win over configuration: %v", resolved.patterns)
	}
	if !resolved.includeHidden {
		testingHandle.Error("hidden default must come from configuration")
	}
	if resolved.workerCount != configuredWorkers {
		testingHandle.Errorf("workers default: got %d want %d", resolved.workerCount, configuredWorkers)
	}
}
