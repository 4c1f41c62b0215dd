package testgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/randalmurphal/forge/adapter"
	"github.com/randalmurphal/forge/ai"
	"github.com/randalmurphal/forge/diff"
	"github.com/randalmurphal/forge/prompt"
)

// DefaultWorkers bounds concurrent provider calls.
const DefaultWorkers = 4

// Status classifies a generation result.
type Status string

// Result statuses.
const (
	StatusGenerated Status = "generated"
	StatusUpdated   Status = "updated"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Result is the outcome for one changed file.
type Result struct {
	SourcePath string
	TestPath   string
	Status     Status
	Reason     string // Set for skips
	Err        error  // Set for failures
}

// Config carries the repository-level settings the service needs.
type Config struct {
	Root      string // Repository root
	TestDir   string // Test directory relative to root
	Language  string // e.g. "python"
	Framework string // e.g. "pytest"
	Workers   int    // Concurrent provider calls; 0 means DefaultWorkers
}

// Service generates tests for changed source files.
type Service struct {
	provider ai.Provider
	adapter  adapter.Adapter
	prompts  *prompt.Loader
	cfg      Config
	logger   *slog.Logger
}

// New creates a generation service.
func New(provider ai.Provider, adp adapter.Adapter, prompts *prompt.Loader, cfg Config) *Service {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	return &Service{
		provider: provider,
		adapter:  adp,
		prompts:  prompts,
		cfg:      cfg,
		logger:   slog.Default(),
	}
}

// Generate produces test files for every eligible file in the change
// set. Results come back in change-set order. The returned error is the
// first fatal provider error, if any; per-file failures live in the
// results.
func (s *Service) Generate(ctx context.Context, changes *diff.ChangeSet, update bool) ([]Result, error) {
	results := make([]Result, len(changes.Files))

	// Guards fatalErr; concurrent failures may race to set it and only
	// the first one wins.
	var mu sync.Mutex
	var fatalErr error

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)

	for i, delta := range changes.Files {
		if skip, reason := s.ineligible(delta, update); skip {
			results[i] = Result{SourcePath: delta.Path, Status: StatusSkipped, Reason: reason}
			continue
		}
		mu.Lock()
		halted := fatalErr != nil
		mu.Unlock()
		if halted {
			results[i] = Result{SourcePath: delta.Path, Status: StatusSkipped, Reason: "generation halted"}
			continue
		}

		i, delta := i, delta
		g.Go(func() error {
			result := s.generateOne(gctx, delta, update)
			results[i] = result

			if result.Err != nil && isFatal(result.Err) {
				mu.Lock()
				if fatalErr == nil {
					fatalErr = result.Err
				}
				mu.Unlock()
			}
			// Per-file failures are results, not group errors; a group
			// error would cancel in-flight generations.
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, fatalErr
}

// ineligible reports whether a delta should be skipped and why.
func (s *Service) ineligible(delta diff.FileDelta, update bool) (bool, string) {
	switch delta.Kind {
	case diff.Deleted:
		return true, "file deleted"
	case diff.Renamed:
		// Only added and modified content is a candidate; a renamed
		// file keeps whatever tests it already had.
		return true, "file renamed"
	case diff.Added, diff.Modified:
	default:
		return true, fmt.Sprintf("unsupported change kind %q", delta.Kind)
	}
	if !s.adapter.IsSourceFile(delta.Path) {
		return true, "not a source file"
	}
	if s.adapter.HasTest(s.cfg.Root, s.cfg.TestDir, delta.Path) && !update {
		return true, "test already exists"
	}
	return false, ""
}

func (s *Service) generateOne(ctx context.Context, delta diff.FileDelta, update bool) Result {
	testPath := s.adapter.TestFilePath(delta.Path, s.cfg.TestDir)
	result := Result{SourcePath: delta.Path, TestPath: testPath}

	code, err := os.ReadFile(filepath.Join(s.cfg.Root, delta.Path))
	if err != nil {
		result.Status = StatusFailed
		result.Err = fmt.Errorf("read source: %w", err)
		return result
	}

	updating := update && s.adapter.HasTest(s.cfg.Root, s.cfg.TestDir, delta.Path)

	vars := map[string]any{
		"SourcePath": delta.Path,
		"Language":   s.cfg.Language,
		"Framework":  s.cfg.Framework,
		"TestPath":   testPath,
		"Code":       string(code),
		"Changes":    formatHunks(delta.Hunks),
	}

	template := "create_tests"
	req := ai.Request{SourcePath: delta.Path, ChangeKind: string(delta.Kind)}
	if updating {
		existing, readErr := os.ReadFile(filepath.Join(s.cfg.Root, testPath))
		if readErr != nil {
			result.Status = StatusFailed
			result.Err = fmt.Errorf("read existing tests: %w", readErr)
			return result
		}
		template = "update_tests"
		vars["ExistingTests"] = string(existing)
		req.ExistingTestPath = testPath
	}

	text, err := s.prompts.Render(template, vars)
	if err != nil {
		result.Status = StatusFailed
		result.Err = err
		return result
	}
	req.Prompt = text

	s.logger.Debug("generating tests", "source", delta.Path, "template", template)
	generated, err := s.provider.Generate(ctx, req)
	if err != nil {
		result.Status = StatusFailed
		result.Err = err
		return result
	}

	content := StripMarkdownFences(generated)
	if err := s.adapter.Validate(content); err != nil {
		result.Status = StatusFailed
		result.Err = fmt.Errorf("%w: %v", ai.ErrInvalidOutput, err)
		return result
	}

	target := filepath.Join(s.cfg.Root, testPath)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		result.Status = StatusFailed
		result.Err = fmt.Errorf("create test directory: %w", err)
		return result
	}
	if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
		result.Status = StatusFailed
		result.Err = fmt.Errorf("write test file: %w", err)
		return result
	}

	if updating {
		result.Status = StatusUpdated
	} else {
		result.Status = StatusGenerated
	}
	return result
}

// isFatal reports whether a provider error should halt further dispatch.
func isFatal(err error) bool {
	return errors.Is(err, ai.ErrAuth) || errors.Is(err, ai.ErrInvalidRequest)
}

// formatHunks renders hunks in unified-diff shape for the prompt.
func formatHunks(hunks []diff.Hunk) string {
	if len(hunks) == 0 {
		return ""
	}
	var b strings.Builder
	for _, h := range hunks {
		fmt.Fprintf(&b, "@@ -%d,%d +%d,%d @@\n", h.OldStart, h.OldLines, h.NewStart, h.NewLines)
		for _, line := range h.Removed {
			b.WriteString("- " + line + "\n")
		}
		for _, line := range h.Added {
			b.WriteString("+ " + line + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
