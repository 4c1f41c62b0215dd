package adapter

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/randalmurphal/forge/git"
)

// Adapter errors.
var (
	// ErrRunnerNotFound indicates the test runner binary is not installed.
	ErrRunnerNotFound = errors.New("test runner not found")

	// ErrRunnerCrashed indicates the runner exited without producing a
	// parseable result.
	ErrRunnerCrashed = errors.New("test runner crashed")

	// ErrUnknownAdapter indicates no adapter is registered for a language.
	ErrUnknownAdapter = errors.New("no adapter for language")
)

// RunResult summarizes one test suite execution.
type RunResult struct {
	Passed  int    // Tests that passed
	Failed  int    // Tests that failed
	Errored int    // Tests that errored before asserting
	Summary string // One-line human summary
	Output  string // Full runner output
}

// OK reports whether the suite ran with no failures or errors.
func (r RunResult) OK() bool {
	return r.Failed == 0 && r.Errored == 0
}

// Adapter is the language binding for test generation and execution.
type Adapter interface {
	// Name identifies the adapter, e.g. "pytest".
	Name() string

	// Detect reports whether the repository at root looks like a project
	// this adapter can serve.
	Detect(root string) bool

	// IsSourceFile reports whether path is a source file tests should be
	// generated for. Test files and vendored trees are excluded.
	IsSourceFile(path string) bool

	// TestFilePath returns the conventional test file location for a
	// source file, relative to the repository root.
	TestFilePath(source, testDir string) string

	// HasTest reports whether a test file already exists for source.
	HasTest(root, testDir, source string) bool

	// Validate checks that generated content is syntactically plausible
	// source for this language.
	Validate(content string) error

	// Run executes the test suite rooted at testDir.
	Run(ctx context.Context, root, testDir string) (RunResult, error)
}

// Factory builds an adapter with the given command runner.
type Factory func(runner git.CommandRunner) Adapter

var factories = map[string]Factory{
	"python": func(r git.CommandRunner) Adapter { return NewPytest(r) },
	"go":     func(r git.CommandRunner) Adapter { return NewGoTest(r) },
}

// Register adds or replaces the adapter factory for a language.
func Register(language string, factory Factory) {
	factories[language] = factory
}

// Languages returns the registered language keys in sorted order.
func Languages() []string {
	langs := make([]string, 0, len(factories))
	for lang := range factories {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// ForLanguage returns the adapter registered for a language.
func ForLanguage(language string, runner git.CommandRunner) (Adapter, error) {
	factory, ok := factories[language]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAdapter, language)
	}
	return factory(runner), nil
}

// Detect returns the first registered adapter whose Detect accepts the
// repository, trying languages in sorted order for determinism.
func Detect(root string, runner git.CommandRunner) (Adapter, error) {
	for _, lang := range Languages() {
		a := factories[lang](runner)
		if a.Detect(root) {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: could not detect project language at %s", ErrUnknownAdapter, root)
}
