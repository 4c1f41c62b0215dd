package adapter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/randalmurphal/forge/git"
)

func TestGoTestDetect(t *testing.T) {
	root := t.TempDir()
	g := NewGoTest(nil)

	if g.Detect(root) {
		t.Error("Detect() = true without go.mod")
	}
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !g.Detect(root) {
		t.Error("Detect() = false with go.mod present")
	}
}

func TestGoTestIsSourceFile(t *testing.T) {
	g := NewGoTest(nil)
	tests := []struct {
		path string
		want bool
	}{
		{"calc.go", true},
		{"pkg/deep/io.go", true},
		{"calc_test.go", false},
		{"vendor/dep/dep.go", false},
		{"pkg/testdata/fixture.go", false},
		{"calc.py", false},
	}
	for _, tt := range tests {
		if got := g.IsSourceFile(tt.path); got != tt.want {
			t.Errorf("IsSourceFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestGoTestTestFilePath(t *testing.T) {
	g := NewGoTest(nil)
	if got := g.TestFilePath("pkg/calc.go", "tests"); got != "pkg/calc_test.go" {
		t.Errorf("TestFilePath = %q, want pkg/calc_test.go", got)
	}
}

func TestGoTestValidate(t *testing.T) {
	g := NewGoTest(nil)

	valid := "package calc\n\nimport \"testing\"\n\nfunc TestAdd(t *testing.T) {}\n"
	if err := g.Validate(valid); err != nil {
		t.Errorf("Validate rejected valid source: %v", err)
	}

	if err := g.Validate("package calc\n\nfunc broken( {\n"); err == nil {
		t.Error("Validate accepted invalid source")
	}
	if err := g.Validate("```go\npackage calc\n```"); err == nil {
		t.Error("Validate accepted fenced content")
	}
}

func TestGoTestRunParsesPackageLines(t *testing.T) {
	output := strings.Join([]string{
		"ok  \texample.com/x/pkg\t0.01s",
		"--- FAIL: TestAdd (0.00s)",
		"FAIL\texample.com/x/calc\t0.02s",
		"ok  \texample.com/x/io\t0.01s",
	}, "\n")

	runner := git.NewSequentialMockRunner()
	runner.AddOutput(output, errors.New("exit status 1"))
	g := NewGoTest(runner)

	result, err := g.Run(context.Background(), "/repo", "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Passed != 2 || result.Failed != 1 {
		t.Errorf("counts = %d/%d, want 2 passed 1 failed", result.Passed, result.Failed)
	}
	if !strings.Contains(result.Summary, "TestAdd") {
		t.Errorf("summary %q missing failing test name", result.Summary)
	}
	if result.OK() {
		t.Error("OK() = true with a failing package")
	}
}

func TestGoTestRunIgnoresTerminalFailLine(t *testing.T) {
	output := strings.Join([]string{
		"--- FAIL: TestAdd (0.00s)",
		"FAIL\texample.com/x/calc\t0.02s",
		"FAIL",
	}, "\n")

	runner := git.NewSequentialMockRunner()
	runner.AddOutput(output, errors.New("exit status 1"))
	g := NewGoTest(runner)

	result, err := g.Run(context.Background(), "/repo", "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Failed != 1 || result.Errored != 0 {
		t.Errorf("counts = failed %d errored %d, want 1/0", result.Failed, result.Errored)
	}
}

func TestGoTestRunBuildFailure(t *testing.T) {
	runner := git.NewSequentialMockRunner()
	runner.AddOutput("FAIL\texample.com/x/calc [build failed]", errors.New("exit status 1"))
	g := NewGoTest(runner)

	result, err := g.Run(context.Background(), "/repo", "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Errored != 1 || result.Failed != 0 {
		t.Errorf("counts = failed %d errored %d, want 0/1", result.Failed, result.Errored)
	}
}

func TestGoTestRunMissingRunner(t *testing.T) {
	runner := git.NewSequentialMockRunner()
	runner.AddOutput("sh: 1: go: not found", errors.New("exit status 127"))
	g := NewGoTest(runner)

	_, err := g.Run(context.Background(), "/repo", "")
	if !errors.Is(err, ErrRunnerNotFound) {
		t.Fatalf("err = %v, want ErrRunnerNotFound", err)
	}
}

func TestAdapterRegistry(t *testing.T) {
	a, err := ForLanguage("python", nil)
	if err != nil {
		t.Fatalf("ForLanguage(python): %v", err)
	}
	if a.Name() != "pytest" {
		t.Errorf("python adapter = %q, want pytest", a.Name())
	}

	if _, err := ForLanguage("fortran", nil); !errors.Is(err, ErrUnknownAdapter) {
		t.Errorf("err = %v, want ErrUnknownAdapter", err)
	}

	langs := Languages()
	if len(langs) < 2 || langs[0] != "go" || langs[1] != "python" {
		t.Errorf("Languages() = %v", langs)
	}
}

func TestDetectPrefersMatchingAdapter(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "app.py"), []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	a, err := Detect(root, nil)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if a.Name() != "pytest" {
		t.Errorf("Detect = %q, want pytest", a.Name())
	}

	empty := t.TempDir()
	if _, err := Detect(empty, nil); !errors.Is(err, ErrUnknownAdapter) {
		t.Errorf("err = %v, want ErrUnknownAdapter for empty repo", err)
	}
}
