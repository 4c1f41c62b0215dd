package diff

import (
	"errors"
	"testing"

	"github.com/randalmurphal/forge/git"
)

// newMockGit builds a git context whose commands are scripted.
// The first response satisfies NewContext's repo-root discovery.
func newMockGit(t *testing.T, runner *git.SequentialMockRunner) *git.Context {
	t.Helper()
	g, err := git.NewContext("/tmp/repo", git.WithRunner(runner), git.WithBaseBranch("main"))
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	return g
}

func TestCompute(t *testing.T) {
	runner := git.NewSequentialMockRunner()
	runner.AddOutput("/tmp/repo", nil) // rev-parse --show-toplevel
	runner.AddOutput("mb0001", nil)    // merge-base
	runner.AddOutput("M\tsrc/zeta.py\nA\tsrc/alpha.py", nil)
	runner.AddOutput(`diff --git a/src/zeta.py b/src/zeta.py
--- a/src/zeta.py
+++ b/src/zeta.py
@@ -1,2 +1,3 @@
 def f():
+    return 1
diff --git a/src/alpha.py b/src/alpha.py
--- /dev/null
+++ b/src/alpha.py
@@ -0,0 +1,2 @@
+def g():
+    return 2`, nil)

	g := newMockGit(t, runner)

	cs, err := Compute(g, "main", "HEAD", Options{Extensions: []string{".py"}})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if cs.MergeBase != "mb0001" {
		t.Errorf("MergeBase = %q, want mb0001", cs.MergeBase)
	}
	if len(cs.Files) != 2 {
		t.Fatalf("got %d files, want 2", len(cs.Files))
	}

	// Sorted by path regardless of git's listing order.
	if cs.Files[0].Path != "src/alpha.py" || cs.Files[1].Path != "src/zeta.py" {
		t.Errorf("order = [%s, %s], want [src/alpha.py, src/zeta.py]",
			cs.Files[0].Path, cs.Files[1].Path)
	}
	if cs.Files[0].Kind != Added {
		t.Errorf("alpha kind = %q, want added", cs.Files[0].Kind)
	}
	if len(cs.Files[1].Hunks) != 1 || len(cs.Files[1].Hunks[0].Added) != 1 {
		t.Errorf("zeta hunks = %+v, want one hunk with one added line", cs.Files[1].Hunks)
	}

	// Diff was computed against the merge-base, not the base tip.
	if !runner.CalledWith("git", "merge-base", "main", "HEAD") {
		t.Error("expected merge-base resolution")
	}
	if !runner.CalledWith("git", "diff", "--name-status", "-M", "mb0001", "HEAD") {
		t.Error("expected name-status diff against merge-base")
	}
}

func TestCompute_NoMergeBase(t *testing.T) {
	runner := git.NewSequentialMockRunner()
	runner.AddOutput("/tmp/repo", nil)
	runner.AddOutput("", errors.New("exit status 1"))

	g := newMockGit(t, runner)

	_, err := Compute(g, "main", "HEAD", Options{})
	if !errors.Is(err, git.ErrNoMergeBase) {
		t.Errorf("err = %v, want ErrNoMergeBase", err)
	}
}

func TestCompute_EmptyDiff(t *testing.T) {
	runner := git.NewSequentialMockRunner()
	runner.AddOutput("/tmp/repo", nil)
	runner.AddOutput("mb0001", nil)
	runner.AddOutput("", nil)

	g := newMockGit(t, runner)

	cs, err := Compute(g, "main", "HEAD", Options{})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !cs.Empty() {
		t.Errorf("change set should be empty, got %+v", cs.Files)
	}
}

func TestCompute_DeletedFilesSkipContentDiff(t *testing.T) {
	runner := git.NewSequentialMockRunner()
	runner.AddOutput("/tmp/repo", nil)
	runner.AddOutput("mb0001", nil)
	runner.AddOutput("D\tsrc/gone.py", nil)
	// No unified diff call expected: nothing diffable remains.

	g := newMockGit(t, runner)

	cs, err := Compute(g, "main", "HEAD", Options{})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(cs.Files) != 1 || cs.Files[0].Kind != Deleted {
		t.Fatalf("files = %+v, want single deleted delta", cs.Files)
	}
	if runner.CalledWith("git", "diff", "--unified=3") {
		t.Error("no content diff should be requested for deletions only")
	}
}
