package testgen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/randalmurphal/forge/adapter"
	"github.com/randalmurphal/forge/ai"
	"github.com/randalmurphal/forge/diff"
	"github.com/randalmurphal/forge/prompt"
)

// stubProvider returns canned content, or per-path errors.
type stubProvider struct {
	mu       sync.Mutex
	content  string
	failWith map[string]error // keyed by SourcePath
	prompts  []ai.Request
}

func (p *stubProvider) Generate(ctx context.Context, req ai.Request) (string, error) {
	p.mu.Lock()
	p.prompts = append(p.prompts, req)
	p.mu.Unlock()

	if err, ok := p.failWith[req.SourcePath]; ok {
		return "", err
	}
	return p.content, nil
}

// pytestLikeAdapter mimics the python conventions without shelling out.
type pytestLikeAdapter struct{}

func (pytestLikeAdapter) Name() string            { return "pytest" }
func (pytestLikeAdapter) Detect(root string) bool { return true }

func (pytestLikeAdapter) IsSourceFile(path string) bool {
	return strings.HasSuffix(path, ".py") && !strings.HasPrefix(filepath.Base(path), "test_")
}

func (pytestLikeAdapter) TestFilePath(source, testDir string) string {
	stem := strings.TrimSuffix(filepath.Base(source), ".py")
	dir := filepath.Dir(source)
	if dir == "." {
		return filepath.Join(testDir, "test_"+stem+".py")
	}
	return filepath.Join(testDir, dir, "test_"+stem+".py")
}

func (a pytestLikeAdapter) HasTest(root, testDir, source string) bool {
	_, err := os.Stat(filepath.Join(root, a.TestFilePath(source, testDir)))
	return err == nil
}

func (pytestLikeAdapter) Validate(content string) error {
	if strings.Contains(content, "```") {
		return errors.New("fences left in content")
	}
	if strings.TrimSpace(content) == "" {
		return errors.New("empty content")
	}
	return nil
}

func (pytestLikeAdapter) Run(ctx context.Context, root, testDir string) (adapter.RunResult, error) {
	return adapter.RunResult{}, nil
}

func newTestService(t *testing.T, provider ai.Provider, workers int) (*Service, string) {
	t.Helper()
	root := t.TempDir()
	svc := New(provider, pytestLikeAdapter{}, prompt.NewLoader(root), Config{
		Root:      root,
		TestDir:   "tests",
		Language:  "python",
		Framework: "pytest",
		Workers:   workers,
	})
	return svc, root
}

func writeSource(t *testing.T, root, path, content string) {
	t.Helper()
	full := filepath.Join(root, path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func changeSetOf(deltas ...diff.FileDelta) *diff.ChangeSet {
	return &diff.ChangeSet{Base: "main", Head: "fg/feature", Files: deltas}
}

func TestGenerateWritesTestFile(t *testing.T) {
	provider := &stubProvider{content: "```python\ndef test_add():\n    assert True\n```"}
	svc, root := newTestService(t, provider, 1)
	writeSource(t, root, "calc.py", "def add(a, b):\n    return a + b\n")

	results, err := svc.Generate(context.Background(),
		changeSetOf(diff.FileDelta{Path: "calc.py", Kind: diff.Added}), false)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(results) != 1 || results[0].Status != StatusGenerated {
		t.Fatalf("results = %+v", results)
	}

	data, err := os.ReadFile(filepath.Join(root, "tests", "test_calc.py"))
	if err != nil {
		t.Fatalf("test file not written: %v", err)
	}
	if strings.Contains(string(data), "```") {
		t.Error("fences were not stripped before writing")
	}

	if len(provider.prompts) != 1 {
		t.Fatalf("provider called %d times, want 1", len(provider.prompts))
	}
	if !strings.Contains(provider.prompts[0].Prompt, "def add(a, b)") {
		t.Error("prompt missing source code")
	}
}

func TestGenerateSkipsExistingUnlessUpdate(t *testing.T) {
	provider := &stubProvider{content: "def test_calc():\n    assert True\n"}
	svc, root := newTestService(t, provider, 1)
	writeSource(t, root, "calc.py", "def add(a, b): ...\n")
	writeSource(t, root, "tests/test_calc.py", "def test_old():\n    assert True\n")

	delta := diff.FileDelta{Path: "calc.py", Kind: diff.Modified}

	results, err := svc.Generate(context.Background(), changeSetOf(delta), false)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if results[0].Status != StatusSkipped || results[0].Reason != "test already exists" {
		t.Errorf("result = %+v, want skip", results[0])
	}
	if len(provider.prompts) != 0 {
		t.Error("provider called for a skipped file")
	}

	// With update the existing tests go into the prompt.
	results, err = svc.Generate(context.Background(), changeSetOf(delta), true)
	if err != nil {
		t.Fatalf("Generate(update): %v", err)
	}
	if results[0].Status != StatusUpdated {
		t.Errorf("result = %+v, want updated", results[0])
	}
	if got := provider.prompts[0]; got.ExistingTestPath == "" ||
		!strings.Contains(got.Prompt, "def test_old()") {
		t.Errorf("update prompt missing existing tests: %+v", got)
	}
}

func TestGenerateIneligibleFiles(t *testing.T) {
	provider := &stubProvider{content: "def test(): ...\n"}
	svc, root := newTestService(t, provider, 1)
	writeSource(t, root, "calc.py", "x = 1\n")

	results, err := svc.Generate(context.Background(), changeSetOf(
		diff.FileDelta{Path: "gone.py", Kind: diff.Deleted},
		diff.FileDelta{Path: "README.md", Kind: diff.Modified},
		diff.FileDelta{Path: "moved.py", Kind: diff.Renamed},
		diff.FileDelta{Path: "calc.py", Kind: diff.Added},
	), false)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if results[0].Status != StatusSkipped || results[0].Reason != "file deleted" {
		t.Errorf("deleted file result = %+v", results[0])
	}
	if results[1].Status != StatusSkipped || results[1].Reason != "not a source file" {
		t.Errorf("non-source result = %+v", results[1])
	}
	if results[2].Status != StatusSkipped || results[2].Reason != "file renamed" {
		t.Errorf("renamed file result = %+v", results[2])
	}
	if results[3].Status != StatusGenerated {
		t.Errorf("eligible result = %+v", results[3])
	}
	if len(provider.prompts) != 1 {
		t.Errorf("provider called %d times, want 1", len(provider.prompts))
	}
}

func TestGenerateValidationFailureWritesNothing(t *testing.T) {
	provider := &stubProvider{content: "   \n"}
	svc, root := newTestService(t, provider, 1)
	writeSource(t, root, "calc.py", "x = 1\n")

	results, err := svc.Generate(context.Background(),
		changeSetOf(diff.FileDelta{Path: "calc.py", Kind: diff.Added}), false)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if results[0].Status != StatusFailed || !errors.Is(results[0].Err, ai.ErrInvalidOutput) {
		t.Errorf("result = %+v", results[0])
	}
	if _, statErr := os.Stat(filepath.Join(root, "tests", "test_calc.py")); statErr == nil {
		t.Error("invalid content was written to disk")
	}
}

func TestGenerateFatalErrorHaltsDispatch(t *testing.T) {
	provider := &stubProvider{
		content:  "def test(): ...\n",
		failWith: map[string]error{"a.py": ai.ErrAuth},
	}
	svc, root := newTestService(t, provider, 1)
	for _, f := range []string{"a.py", "b.py", "c.py"} {
		writeSource(t, root, f, "x = 1\n")
	}

	results, err := svc.Generate(context.Background(), changeSetOf(
		diff.FileDelta{Path: "a.py", Kind: diff.Added},
		diff.FileDelta{Path: "b.py", Kind: diff.Added},
		diff.FileDelta{Path: "c.py", Kind: diff.Added},
	), false)
	if !errors.Is(err, ai.ErrAuth) {
		t.Fatalf("err = %v, want ErrAuth", err)
	}
	if results[0].Status != StatusFailed {
		t.Errorf("first result = %+v", results[0])
	}
	// With one worker nothing after the fatal failure is dispatched.
	halted := 0
	for _, r := range results[1:] {
		if r.Status == StatusSkipped && r.Reason == "generation halted" {
			halted++
		}
	}
	if halted == 0 {
		t.Errorf("no candidates were halted: %+v", results)
	}
}

// gatedFailProvider holds every call until all expected calls are in
// flight, then fails each with its configured error.
type gatedFailProvider struct {
	gate *sync.WaitGroup
	errs map[string]error
}

func (p *gatedFailProvider) Generate(ctx context.Context, req ai.Request) (string, error) {
	p.gate.Done()
	p.gate.Wait()
	return "", p.errs[req.SourcePath]
}

func TestGenerateConcurrentFatalFailures(t *testing.T) {
	var gate sync.WaitGroup
	gate.Add(2)
	provider := &gatedFailProvider{
		gate: &gate,
		errs: map[string]error{
			"a.py": ai.ErrAuth,
			"b.py": fmt.Errorf("provider: %w", ai.ErrInvalidRequest),
		},
	}
	svc, root := newTestService(t, provider, 2)
	writeSource(t, root, "a.py", "x = 1\n")
	writeSource(t, root, "b.py", "y = 2\n")

	// Both candidates fail fatally while in flight together; the step
	// must come back failed, not crash.
	results, err := svc.Generate(context.Background(), changeSetOf(
		diff.FileDelta{Path: "a.py", Kind: diff.Added},
		diff.FileDelta{Path: "b.py", Kind: diff.Added},
	), false)
	if err == nil {
		t.Fatal("Generate returned nil error after fatal failures")
	}
	if !errors.Is(err, ai.ErrAuth) && !errors.Is(err, ai.ErrInvalidRequest) {
		t.Fatalf("err = %v, want one of the fatal provider errors", err)
	}
	for i, r := range results {
		if r.Status != StatusFailed {
			t.Errorf("results[%d] = %+v, want failed", i, r)
		}
	}
}

func TestGenerateTransientFailureDoesNotHalt(t *testing.T) {
	provider := &stubProvider{
		content:  "def test(): ...\n",
		failWith: map[string]error{"a.py": ai.ErrRateLimited},
	}
	svc, root := newTestService(t, provider, 1)
	writeSource(t, root, "a.py", "x = 1\n")
	writeSource(t, root, "b.py", "y = 2\n")

	results, err := svc.Generate(context.Background(), changeSetOf(
		diff.FileDelta{Path: "a.py", Kind: diff.Added},
		diff.FileDelta{Path: "b.py", Kind: diff.Added},
	), false)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if results[0].Status != StatusFailed {
		t.Errorf("first result = %+v", results[0])
	}
	if results[1].Status != StatusGenerated {
		t.Errorf("second result = %+v, transient errors must not halt dispatch", results[1])
	}
}
