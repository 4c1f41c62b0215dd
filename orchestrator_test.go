package forge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/forge/adapter"
	"github.com/randalmurphal/forge/ai"
	"github.com/randalmurphal/forge/config"
	"github.com/randalmurphal/forge/git"
	"github.com/randalmurphal/forge/history"
	"github.com/randalmurphal/forge/notify"
	"github.com/randalmurphal/forge/prompt"
	"github.com/randalmurphal/forge/testgen"
	"github.com/randalmurphal/forge/testutil"
)

const generatedTest = "def test_add():\n    assert add(1, 2) == 3\n"

// stubProvider returns canned content, or a fixed error.
type stubProvider struct {
	content string
	err     error
	calls   int
}

func (p *stubProvider) Generate(ctx context.Context, req ai.Request) (string, error) {
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	return p.content, nil
}

// stubAdapter behaves like the pytest adapter for layout decisions and
// returns a canned suite result.
type stubAdapter struct {
	result adapter.RunResult
	runErr error
	ran    int
}

func (a *stubAdapter) Name() string            { return "pytest" }
func (a *stubAdapter) Detect(root string) bool { return true }

func (a *stubAdapter) IsSourceFile(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(path, ".py") && !strings.HasPrefix(base, "test_")
}

func (a *stubAdapter) TestFilePath(source, testDir string) string {
	dir := filepath.Dir(source)
	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if dir == "." {
		return filepath.Join(testDir, "test_"+stem+".py")
	}
	return filepath.Join(testDir, dir, "test_"+stem+".py")
}

func (a *stubAdapter) HasTest(root, testDir, source string) bool {
	_, err := os.Stat(filepath.Join(root, a.TestFilePath(source, testDir)))
	return err == nil
}

func (a *stubAdapter) Validate(content string) error {
	if strings.TrimSpace(content) == "" {
		return errors.New("empty content")
	}
	return nil
}

func (a *stubAdapter) Run(ctx context.Context, root, testDir string) (adapter.RunResult, error) {
	a.ran++
	return a.result, a.runErr
}

// testHarness bundles an orchestrator over a real temporary repository.
type testHarness struct {
	repo     string
	orch     *Orchestrator
	provider *stubProvider
	adapter  *stubAdapter
	notifier *recordingNotifier
}

func newHarness(t *testing.T, provider *stubProvider, adp *stubAdapter) *testHarness {
	t.Helper()

	repo := testutil.SetupRepoWithFiles(t, map[string]string{
		"lib/calc.py": "def add(a, b):\n    return a + b\n",
	})

	g, err := git.NewContext(repo, git.WithBaseBranch("main"))
	require.NoError(t, err)

	cfg := config.Default()
	gen := testgen.New(provider, adp, prompt.NewLoader(repo), testgen.Config{
		Root:      repo,
		TestDir:   cfg.TestDir,
		Language:  cfg.Language,
		Framework: cfg.TestFramework,
		Workers:   1,
	})

	notifier := &recordingNotifier{}
	orch, err := NewOrchestrator(OrchestratorConfig{
		Git:      g,
		Adapter:  adp,
		Gen:      gen,
		Notifier: notifier,
		Config:   cfg,
	})
	require.NoError(t, err)

	return &testHarness{repo: repo, orch: orch, provider: provider, adapter: adp, notifier: notifier}
}

// featureBranch creates a branch with one committed change to lib/calc.py.
func (h *testHarness) featureBranch(t *testing.T) {
	t.Helper()
	testutil.CreateBranch(t, h.repo, "fg/feature")
	testutil.CommitFile(t, h.repo, "lib/calc.py",
		"def add(a, b):\n    return a + b\n\ndef sub(a, b):\n    return a - b\n",
		"Add sub")
}

func TestSyncRefusesBaseBranch(t *testing.T) {
	h := newHarness(t, &stubProvider{}, &stubAdapter{})
	headBefore := testutil.HeadSHA(t, h.repo)

	_, err := h.orch.Sync(testutil.TestContext(t))
	require.Error(t, err, "syncing the base branch must be refused")

	assert.Equal(t, "main", testutil.CurrentBranch(t, h.repo), "base branch must be left untouched")
	assert.Equal(t, headBefore, testutil.HeadSHA(t, h.repo), "no mutation may target the base branch")
}

func TestSyncRebasesOntoBase(t *testing.T) {
	h := newHarness(t, &stubProvider{}, &stubAdapter{})
	h.featureBranch(t)

	// Base advances with an unrelated file; no conflict.
	testutil.SwitchBranch(t, h.repo, "main")
	testutil.CommitFile(t, h.repo, "docs.md", "notes\n", "Add docs")
	mainHead := testutil.HeadSHA(t, h.repo)
	testutil.SwitchBranch(t, h.repo, "fg/feature")

	result, err := h.orch.Sync(testutil.TestContext(t))
	require.NoError(t, err)
	require.Equal(t, RunDone, result.FinalStatus, "steps: %+v", result.Steps)

	base := testutil.GitOutput(t, h.repo, "merge-base", "main", "fg/feature")
	assert.Equal(t, mainHead, base, "feature should sit on top of main after the rebase")
}

func TestSyncConflictRestoresWorkingTree(t *testing.T) {
	h := newHarness(t, &stubProvider{}, &stubAdapter{})
	h.featureBranch(t)

	// Base edits the same region so the rebase conflicts.
	testutil.SwitchBranch(t, h.repo, "main")
	testutil.CommitFile(t, h.repo, "lib/calc.py",
		"def add(a, b):\n    return b + a\n", "Reorder add")
	testutil.SwitchBranch(t, h.repo, "fg/feature")

	headBefore := testutil.HeadSHA(t, h.repo)
	contentBefore := testutil.ReadFile(t, h.repo, "lib/calc.py")

	result, err := h.orch.Sync(testutil.TestContext(t))
	require.NoError(t, err, "a conflict is an outcome, not an error")
	require.Equal(t, RunFailed, result.FinalStatus)
	require.Equal(t, "sync", result.FailedStep)

	assert.Equal(t, headBefore, testutil.HeadSHA(t, h.repo),
		"HEAD must be restored after the aborted rebase")
	assert.Equal(t, contentBefore, testutil.ReadFile(t, h.repo, "lib/calc.py"),
		"working tree must be restored after the aborted rebase")
}

func TestCreateTestsWritesThenSkips(t *testing.T) {
	h := newHarness(t, &stubProvider{content: generatedTest}, &stubAdapter{})
	h.featureBranch(t)

	result, err := h.orch.CreateTests(testutil.TestContext(t), RunOptions{})
	require.NoError(t, err)
	require.Equal(t, RunDone, result.FinalStatus, "steps: %+v", result.Steps)
	require.Len(t, result.GenResults, 1)
	require.Equal(t, testgen.StatusGenerated, result.GenResults[0].Status)

	assert.Equal(t, generatedTest, testutil.ReadFile(t, h.repo, "tests/lib/test_calc.py"))

	// Second run with update=false: every previous candidate skips.
	again, err := h.orch.CreateTests(testutil.TestContext(t), RunOptions{})
	require.NoError(t, err)
	require.Equal(t, RunDone, again.FinalStatus)
	assert.Equal(t, testgen.StatusSkipped, again.GenResults[0].Status)
	assert.Equal(t, "test already exists", again.GenResults[0].Reason)
}

func TestCreateTestsUpdateRegenerates(t *testing.T) {
	h := newHarness(t, &stubProvider{content: generatedTest}, &stubAdapter{})
	h.featureBranch(t)
	testutil.WriteFile(t, h.repo, "tests/lib/test_calc.py", "def test_old():\n    pass\n")

	result, err := h.orch.CreateTests(testutil.TestContext(t), RunOptions{Update: true})
	require.NoError(t, err)
	require.Equal(t, testgen.StatusUpdated, result.GenResults[0].Status)
	assert.Equal(t, generatedTest, testutil.ReadFile(t, h.repo, "tests/lib/test_calc.py"),
		"existing test should have been rewritten")
}

func TestSubmitFullChain(t *testing.T) {
	h := newHarness(t, &stubProvider{content: generatedTest},
		&stubAdapter{result: adapter.RunResult{Passed: 1, Summary: "1 passed"}})
	testutil.SetupRemote(t, h.repo)
	h.featureBranch(t)

	result, err := h.orch.Submit(testutil.TestContext(t), RunOptions{})
	require.NoError(t, err)
	require.Equal(t, RunDone, result.FinalStatus, "steps: %+v", result.Steps)

	assert.True(t, result.Pushed, "expected a successful push")
	assert.Equal(t, 1, h.adapter.ran, "expected one suite run")
	assert.Equal(t, "fg: add generated tests", testutil.CommitMessage(t, h.repo))

	for _, name := range []string{"sync", "generate", "test", "commit", "push"} {
		step, ok := result.Step(name)
		require.True(t, ok, "missing %s step", name)
		assert.Equal(t, StepOK, step.Status, "%s: %s", name, step.Detail)
	}

	assert.Len(t, h.notifier.byType(notify.EventPushed), 1)
	assert.Len(t, h.notifier.byType(notify.EventRunCompleted), 1)
}

func TestSubmitNeverCommitsWhenTestsFail(t *testing.T) {
	h := newHarness(t, &stubProvider{content: generatedTest},
		&stubAdapter{result: adapter.RunResult{Failed: 2, Summary: "2 failed"}})
	testutil.SetupRemote(t, h.repo)
	h.featureBranch(t)
	headBefore := testutil.HeadSHA(t, h.repo)

	result, err := h.orch.Submit(testutil.TestContext(t), RunOptions{})
	require.NoError(t, err)
	require.Equal(t, RunFailed, result.FinalStatus)
	require.Equal(t, "test", result.FailedStep)

	assert.Equal(t, headBefore, testutil.HeadSHA(t, h.repo),
		"a failing suite must never produce a commit")
	assert.False(t, result.Pushed, "nothing should have been pushed")

	_, committed := result.Step("commit")
	assert.False(t, committed, "the commit step must never run after failing tests")
	assert.Len(t, h.notifier.byType(notify.EventTestsFailed), 1)
}

func TestSubmitAuthErrorFailsAtGenerating(t *testing.T) {
	h := newHarness(t, &stubProvider{err: ai.ErrAuth},
		&stubAdapter{result: adapter.RunResult{Passed: 1}})
	testutil.SetupRemote(t, h.repo)
	h.featureBranch(t)
	headBefore := testutil.HeadSHA(t, h.repo)

	result, err := h.orch.Submit(testutil.TestContext(t), RunOptions{})
	require.NoError(t, err)
	require.Equal(t, RunFailed, result.FinalStatus)
	require.Equal(t, "generate", result.FailedStep)

	assert.Equal(t, headBefore, testutil.HeadSHA(t, h.repo), "zero commits expected")
	assert.False(t, result.Pushed, "zero pushes expected")
	assert.Zero(t, h.adapter.ran, "the suite must not run after a failed generation step")
}

func TestSubmitSkipTestsSuppressesGenerationAndExecution(t *testing.T) {
	h := newHarness(t, &stubProvider{content: generatedTest},
		&stubAdapter{result: adapter.RunResult{Failed: 99}})
	testutil.SetupRemote(t, h.repo)
	h.featureBranch(t)

	result, err := h.orch.Submit(testutil.TestContext(t), RunOptions{SkipTests: true})
	require.NoError(t, err)
	require.Equal(t, RunDone, result.FinalStatus,
		"skipped optional steps must not fail the run: %+v", result.Steps)

	for _, name := range []string{"generate", "test"} {
		step, ok := result.Step(name)
		require.True(t, ok, "missing %s step", name)
		assert.Equal(t, StepSkipped, step.Status)
	}
	assert.Zero(t, h.provider.calls, "the provider must not be called under --skip-tests")
	assert.Zero(t, h.adapter.ran, "the suite must not run under --skip-tests")
	assert.True(t, result.Unchanged, "expected a no-op commit for the already-committed branch")
	assert.True(t, result.Pushed, "the push still proceeds after a no-op commit")
}

func TestBranchLifecycle(t *testing.T) {
	h := newHarness(t, &stubProvider{}, &stubAdapter{})

	state, err := h.orch.CreateBranch("Add User Auth")
	require.NoError(t, err)
	assert.Equal(t, "fg/add-user-auth", state.Branch)

	_, err = h.orch.Switch("main")
	require.NoError(t, err)

	current, branches, err := h.orch.Branches()
	require.NoError(t, err)
	assert.Equal(t, "main", current)
	assert.Contains(t, branches, "fg/add-user-auth")
}

func TestRunHistoryIsRecorded(t *testing.T) {
	h := newHarness(t, &stubProvider{}, &stubAdapter{})
	h.featureBranch(t)

	store, err := history.Open(filepath.Join(t.TempDir(), "forge.db"))
	require.NoError(t, err)
	defer store.Close()
	h.orch.store = store

	ctx := testutil.TestContext(t)
	_, err = h.orch.Sync(ctx)
	require.NoError(t, err)

	runs, err := store.RecentRuns(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "sync", runs[0].Command)
	assert.Equal(t, RunDone, runs[0].Status)
}
