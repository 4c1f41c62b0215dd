package adapter

import (
	"context"
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"github.com/randalmurphal/forge/git"
)

// GoTest is the Go adapter. Tests live next to their source files as
// <stem>_test.go regardless of the configured test directory.
type GoTest struct {
	runner git.CommandRunner
}

// NewGoTest creates the Go adapter using the given command runner.
func NewGoTest(runner git.CommandRunner) *GoTest {
	if runner == nil {
		runner = &git.ExecRunner{}
	}
	return &GoTest{runner: runner}
}

func (g *GoTest) Name() string { return "gotest" }

// Detect reports whether the repository root carries a go.mod.
func (g *GoTest) Detect(root string) bool {
	_, err := os.Stat(filepath.Join(root, "go.mod"))
	return err == nil
}

func (g *GoTest) IsSourceFile(path string) bool {
	if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "vendor" || part == "testdata" || part == ".git" {
			return false
		}
	}
	return true
}

// TestFilePath maps pkg/calc.go to pkg/calc_test.go. Go tests belong in
// the package directory, so testDir is ignored.
func (g *GoTest) TestFilePath(source, _ string) string {
	stem := strings.TrimSuffix(source, ".go")
	return stem + "_test.go"
}

func (g *GoTest) HasTest(root, testDir, source string) bool {
	_, err := os.Stat(filepath.Join(root, g.TestFilePath(source, testDir)))
	return err == nil
}

// Validate parses the content as a Go source file.
func (g *GoTest) Validate(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("generated test content is empty")
	}
	if strings.HasPrefix(strings.TrimSpace(content), "```") {
		return fmt.Errorf("generated content still contains markdown fences")
	}
	fset := token.NewFileSet()
	if _, err := parser.ParseFile(fset, "generated_test.go", content, parser.AllErrors); err != nil {
		return fmt.Errorf("go syntax check failed: %w", err)
	}
	return nil
}

// Run executes go test across the module. Package result lines are
// counted; testDir is ignored because Go tests live with their packages.
func (g *GoTest) Run(ctx context.Context, root, _ string) (RunResult, error) {
	if err := ctx.Err(); err != nil {
		return RunResult{}, err
	}

	output, runErr := g.runner.Run(root, "sh", "-c", "go test ./... -count=1")

	result := RunResult{Output: output}
	var failures []string
	parsed := false
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "ok "):
			result.Passed++
			parsed = true
		case strings.HasPrefix(line, "FAIL\t") && strings.Contains(line, "[build failed]"):
			result.Errored++
			parsed = true
		case strings.HasPrefix(line, "FAIL\t"):
			result.Failed++
			parsed = true
		case line == "FAIL":
			// Bare terminal line; package results were already counted.
			parsed = true
		case strings.HasPrefix(line, "--- FAIL:"):
			parts := strings.Fields(line)
			if len(parts) >= 3 {
				failures = append(failures, parts[2])
			}
		}
	}

	switch {
	case runErr != nil && isMissingBinary(output, runErr):
		return RunResult{}, fmt.Errorf("%w: go", ErrRunnerNotFound)
	case runErr != nil && !parsed:
		return RunResult{}, fmt.Errorf("%w: %s", ErrRunnerCrashed, firstNonEmptyLine(output, runErr))
	}

	result.Summary = fmt.Sprintf("%d packages passed, %d failed, %d errored",
		result.Passed, result.Failed, result.Errored)
	if len(failures) > 0 {
		result.Summary += " (" + strings.Join(failures, ", ") + ")"
	}
	return result, nil
}
