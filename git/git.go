package git

import (
	"fmt"
	"path/filepath"
	"strings"
)

// RepositoryState is a snapshot of the repository read fresh from git.
// It is never cached across orchestrated commands.
type RepositoryState struct {
	Branch     string // Current branch name
	BaseBranch string // Configured base branch
	Head       string // HEAD commit SHA
	Clean      bool   // True if the working tree has no uncommitted changes
}

// RebaseOutcome is the result of RebaseOntoBase.
type RebaseOutcome int

const (
	// RebaseSuccess means the branch was replayed onto the base cleanly.
	RebaseSuccess RebaseOutcome = iota

	// RebaseConflictAborted means the rebase hit a conflict and was
	// aborted; the working tree is back in its pre-rebase state.
	RebaseConflictAborted
)

// CommitResult is the result of a Commit call.
type CommitResult struct {
	SHA       string // Commit SHA (empty when Unchanged)
	Unchanged bool   // True when there was nothing to commit
}

// PushOutcome is the result of a Push call.
type PushOutcome struct {
	Rejected bool   // True when the remote refused the push
	Reason   string // Remote's reason, when rejected
}

// DefaultBaseBranch is used when no base branch is configured.
const DefaultBaseBranch = "main"

// Context manages git operations for a single repository.
type Context struct {
	repoPath   string        // Repository root
	baseBranch string        // Protected base branch
	runner     CommandRunner // Command runner (defaults to ExecRunner)
}

// Option configures Context.
type Option func(*Context)

// WithBaseBranch sets the protected base branch. Default is "main".
func WithBaseBranch(name string) Option {
	return func(g *Context) {
		g.baseBranch = name
	}
}

// WithRunner sets a custom command runner for git operations.
// This is primarily used for testing to inject mock command execution.
func WithRunner(runner CommandRunner) Option {
	return func(g *Context) {
		g.runner = runner
	}
}

// NewContext creates a git context for the repository containing path.
// It fails with ErrNotGitRepo when no repository root is discoverable.
func NewContext(path string, opts ...Option) (*Context, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}

	g := &Context{
		repoPath:   absPath,
		baseBranch: DefaultBaseBranch,
		runner:     NewExecRunner(),
	}
	for _, opt := range opts {
		opt(g)
	}

	root, err := g.runGit("rev-parse", "--show-toplevel")
	if err != nil {
		return nil, ErrNotGitRepo
	}
	g.repoPath = root

	return g, nil
}

// Root returns the repository root path.
func (g *Context) Root() string {
	return g.repoPath
}

// BaseBranch returns the configured protected base branch.
func (g *Context) BaseBranch() string {
	return g.baseBranch
}

// CurrentState reads a fresh repository snapshot.
func (g *Context) CurrentState() (RepositoryState, error) {
	branch, err := g.CurrentBranch()
	if err != nil {
		return RepositoryState{}, err
	}
	head, err := g.HeadCommit()
	if err != nil {
		return RepositoryState{}, err
	}
	clean, err := g.IsClean()
	if err != nil {
		return RepositoryState{}, err
	}
	return RepositoryState{
		Branch:     branch,
		BaseBranch: g.baseBranch,
		Head:       head,
		Clean:      clean,
	}, nil
}

// CurrentBranch returns the current branch name.
func (g *Context) CurrentBranch() (string, error) {
	branch, err := g.runGit("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", &Error{Op: "get current branch", Err: err}
	}
	return branch, nil
}

// HeadCommit returns the current HEAD commit SHA.
func (g *Context) HeadCommit() (string, error) {
	sha, err := g.runGit("rev-parse", "HEAD")
	if err != nil {
		return "", &Error{Op: "get HEAD commit", Err: err}
	}
	return sha, nil
}

// IsClean returns true if the working tree has no uncommitted changes.
func (g *Context) IsClean() (bool, error) {
	status, err := g.runGit("status", "--porcelain")
	if err != nil {
		return false, &Error{Op: "status", Err: err}
	}
	return status == "", nil
}

// ListBranches returns local branch names in git's listing order.
func (g *Context) ListBranches() ([]string, error) {
	out, err := g.runGit("branch", "--format=%(refname:short)")
	if err != nil {
		return nil, &Error{Op: "list branches", Err: err}
	}
	var branches []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			branches = append(branches, line)
		}
	}
	return branches, nil
}

// BranchExists checks if a local branch exists.
func (g *Context) BranchExists(name string) bool {
	_, err := g.runGit("rev-parse", "--verify", "refs/heads/"+name)
	return err == nil
}

// CreateBranch creates a branch at HEAD and switches to it.
// Creation is refused on a dirty working tree to avoid leaking
// uncommitted state across branches.
func (g *Context) CreateBranch(name string) (RepositoryState, error) {
	if name == g.baseBranch {
		return RepositoryState{}, ErrProtectedBranch
	}
	clean, err := g.IsClean()
	if err != nil {
		return RepositoryState{}, err
	}
	if !clean {
		return RepositoryState{}, ErrDirtyWorkingTree
	}
	if g.BranchExists(name) {
		return RepositoryState{}, ErrBranchExists
	}
	if _, err := g.runGit("checkout", "-b", name); err != nil {
		return RepositoryState{}, &Error{Op: "create branch", Err: err}
	}
	return g.CurrentState()
}

// SwitchBranch switches to an existing branch.
func (g *Context) SwitchBranch(name string) (RepositoryState, error) {
	if !g.BranchExists(name) {
		return RepositoryState{}, ErrBranchNotFound
	}
	clean, err := g.IsClean()
	if err != nil {
		return RepositoryState{}, err
	}
	if !clean {
		return RepositoryState{}, ErrDirtyWorkingTree
	}
	if _, err := g.runGit("checkout", name); err != nil {
		return RepositoryState{}, &Error{Op: "switch branch", Err: err}
	}
	return g.CurrentState()
}

// RebaseOntoBase replays the current branch onto the base branch.
// On conflict the in-progress rebase is aborted before returning, so the
// working tree is restored to its pre-rebase state. A failed abort is
// fatal (ErrCorruptState) and requires manual intervention.
//
// The rebase targets origin/<base> when the remote-tracking ref exists
// (after a fetch), and the local base branch otherwise.
func (g *Context) RebaseOntoBase() (RebaseOutcome, error) {
	branch, err := g.CurrentBranch()
	if err != nil {
		return 0, err
	}
	if branch == g.baseBranch {
		return 0, ErrProtectedBranch
	}
	clean, err := g.IsClean()
	if err != nil {
		return 0, err
	}
	if !clean {
		return 0, ErrDirtyWorkingTree
	}

	// Best effort; offline repositories rebase onto the local base.
	g.runGit("fetch", "origin")

	baseRef := g.baseBranch
	if _, err := g.runGit("rev-parse", "--verify", "refs/remotes/origin/"+g.baseBranch); err == nil {
		baseRef = "origin/" + g.baseBranch
	}

	if _, rebaseErr := g.runGit("rebase", baseRef); rebaseErr != nil {
		if _, abortErr := g.runGit("rebase", "--abort"); abortErr != nil {
			return 0, fmt.Errorf("%w: rebase abort failed: %v", ErrCorruptState, abortErr)
		}
		return RebaseConflictAborted, nil
	}
	return RebaseSuccess, nil
}

// Stage adds files to the staging area.
func (g *Context) Stage(files ...string) error {
	if len(files) == 0 {
		return nil
	}
	args := append([]string{"add", "--"}, files...)
	if _, err := g.runGit(args...); err != nil {
		return &Error{Op: "stage files", Err: err}
	}
	return nil
}

// Commit creates a commit from staged changes. When there is nothing to
// commit the call is a no-op and the result reports Unchanged.
func (g *Context) Commit(message string) (CommitResult, error) {
	if branch, err := g.CurrentBranch(); err != nil {
		return CommitResult{}, err
	} else if branch == g.baseBranch {
		return CommitResult{}, ErrProtectedBranch
	}

	output, err := g.runGit("commit", "-m", message)
	if err != nil {
		if strings.Contains(output, "nothing to commit") ||
			strings.Contains(err.Error(), "nothing to commit") {
			return CommitResult{Unchanged: true}, nil
		}
		return CommitResult{}, &Error{Op: "commit", Output: output, Err: err}
	}

	sha, err := g.HeadCommit()
	if err != nil {
		return CommitResult{}, err
	}
	return CommitResult{SHA: sha}, nil
}

// Push pushes the current branch to origin, setting upstream tracking on
// the first push. A rejected push is surfaced, never retried; the gateway
// never issues a force-push.
func (g *Context) Push() (PushOutcome, error) {
	branch, err := g.CurrentBranch()
	if err != nil {
		return PushOutcome{}, err
	}
	if branch == g.baseBranch {
		return PushOutcome{}, ErrProtectedBranch
	}

	args := []string{"push"}
	if !g.isBranchPushed(branch) {
		args = append(args, "-u")
	}
	args = append(args, "origin", branch)

	output, err := g.runGit(args...)
	if err != nil {
		if strings.Contains(output, "rejected") ||
			strings.Contains(output, "non-fast-forward") ||
			strings.Contains(err.Error(), "rejected") {
			return PushOutcome{Rejected: true, Reason: firstLine(output)}, nil
		}
		return PushOutcome{}, &Error{Op: "push", Output: output, Err: err}
	}
	return PushOutcome{}, nil
}

// MergeBase returns the most recent common ancestor of two refs.
// Unrelated histories fail with ErrNoMergeBase.
func (g *Context) MergeBase(a, b string) (string, error) {
	sha, err := g.runGit("merge-base", a, b)
	if err != nil {
		return "", fmt.Errorf("%w: %s and %s", ErrNoMergeBase, a, b)
	}
	return sha, nil
}

// DiffNameStatus returns raw `git diff --name-status` output between two
// refs, with rename detection enabled.
func (g *Context) DiffNameStatus(from, to string) (string, error) {
	out, err := g.runGit("diff", "--name-status", "-M", from, to)
	if err != nil {
		return "", &Error{Op: "diff name-status", Err: err}
	}
	return out, nil
}

// DiffUnified returns the unified diff between two refs, optionally
// restricted to the given paths.
func (g *Context) DiffUnified(from, to string, paths ...string) (string, error) {
	args := []string{"diff", "-M", "--unified=3", from, to}
	if len(paths) > 0 {
		args = append(args, "--")
		args = append(args, paths...)
	}
	out, err := g.runGit(args...)
	if err != nil {
		return "", &Error{Op: "diff", Err: err}
	}
	return out, nil
}

// isBranchPushed checks if the branch exists on origin.
func (g *Context) isBranchPushed(branch string) bool {
	_, err := g.runGit("rev-parse", "--verify", "refs/remotes/origin/"+branch)
	return err == nil
}

// runGit executes a git command in the repository root.
func (g *Context) runGit(args ...string) (string, error) {
	return g.runner.Run(g.repoPath, "git", args...)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
