package adapter

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/randalmurphal/forge/git"
)

// pytestSkipDirs are never treated as source trees.
var pytestSkipDirs = map[string]bool{
	".git":         true,
	"venv":         true,
	".venv":        true,
	"node_modules": true,
	"__pycache__":  true,
}

// Pytest is the Python adapter. Tests live under a test directory as
// test_<stem>.py, preserving the source file's directory structure.
type Pytest struct {
	runner git.CommandRunner
}

// NewPytest creates the Python adapter using the given command runner.
func NewPytest(runner git.CommandRunner) *Pytest {
	if runner == nil {
		runner = &git.ExecRunner{}
	}
	return &Pytest{runner: runner}
}

func (p *Pytest) Name() string { return "pytest" }

// Detect reports whether the repository contains any Python source.
func (p *Pytest) Detect(root string) bool {
	found := false
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if pytestSkipDirs[d.Name()] {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), ".py") {
			found = true
			return fs.SkipAll
		}
		return nil
	})
	return found
}

// IsSourceFile reports whether path is a Python file tests should be
// generated for.
func (p *Pytest) IsSourceFile(path string) bool {
	if !strings.HasSuffix(path, ".py") {
		return false
	}
	base := filepath.Base(path)
	if strings.HasPrefix(base, "test_") || strings.HasSuffix(base, "_test.py") {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if pytestSkipDirs[part] || part == "tests" || part == "test" {
			return false
		}
	}
	return true
}

// TestFilePath maps pkg/calc.py to <testDir>/pkg/test_calc.py.
func (p *Pytest) TestFilePath(source, testDir string) string {
	stem := strings.TrimSuffix(filepath.Base(source), ".py")
	dir := filepath.Dir(source)
	if dir == "." {
		return filepath.Join(testDir, "test_"+stem+".py")
	}
	return filepath.Join(testDir, dir, "test_"+stem+".py")
}

func (p *Pytest) HasTest(root, testDir, source string) bool {
	_, err := os.Stat(filepath.Join(root, p.TestFilePath(source, testDir)))
	return err == nil
}

// Validate byte-compiles the content with python3. When python3 is not
// installed only a structural check is performed.
func (p *Pytest) Validate(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("generated test content is empty")
	}
	if strings.HasPrefix(strings.TrimSpace(content), "```") {
		return fmt.Errorf("generated content still contains markdown fences")
	}

	dir, err := os.MkdirTemp("", "forge-validate-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "generated.py")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	output, err := p.runner.Run(dir, "python3", "-m", "py_compile", path)
	if err != nil {
		if isMissingBinary(output, err) {
			return nil
		}
		return fmt.Errorf("python syntax check failed: %s", firstNonEmptyLine(output, err))
	}
	return nil
}

// pytestCounts matches the counts in a pytest summary line, e.g.
// "== 3 passed, 1 failed, 2 errors in 0.12s ==".
var pytestCounts = regexp.MustCompile(`(\d+)\s+(passed|failed|error)`)

// Run executes pytest over testDir with the repository root on
// PYTHONPATH so generated imports resolve.
func (p *Pytest) Run(ctx context.Context, root, testDir string) (RunResult, error) {
	if err := ctx.Err(); err != nil {
		return RunResult{}, err
	}

	cmd := fmt.Sprintf("PYTHONPATH=%q pytest %q -v --tb=short", root, testDir)
	output, runErr := p.runner.Run(root, "sh", "-c", cmd)

	result := RunResult{Output: output}
	parsed := false
	for _, m := range pytestCounts.FindAllStringSubmatch(output, -1) {
		n, _ := strconv.Atoi(m[1])
		parsed = true
		switch m[2] {
		case "passed":
			result.Passed = n
		case "failed":
			result.Failed = n
		case "error":
			result.Errored = n
		}
	}

	switch {
	case runErr != nil && isMissingBinary(output, runErr):
		return RunResult{}, fmt.Errorf("%w: pytest (install with: pip install pytest)", ErrRunnerNotFound)
	case strings.Contains(output, "no tests ran"):
		result.Summary = "no tests ran"
		return result, nil
	case runErr != nil && !parsed:
		return RunResult{}, fmt.Errorf("%w: %s", ErrRunnerCrashed, firstNonEmptyLine(output, runErr))
	}

	result.Summary = fmt.Sprintf("%d passed, %d failed, %d errored",
		result.Passed, result.Failed, result.Errored)
	return result, nil
}

// isMissingBinary reports whether the failure looks like a missing
// executable rather than a failing command.
func isMissingBinary(output string, err error) bool {
	for _, s := range []string{output, err.Error()} {
		lower := strings.ToLower(s)
		if strings.Contains(lower, "not found") ||
			strings.Contains(lower, "no such file or directory") {
			return true
		}
	}
	return false
}

func firstNonEmptyLine(output string, err error) string {
	for _, line := range strings.Split(output, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			return s
		}
	}
	return err.Error()
}
