package git

import "errors"

// Gateway errors.
var (
	// ErrNotGitRepo indicates the path is not inside a git repository.
	ErrNotGitRepo = errors.New("not a git repository")

	// ErrBranchExists indicates the branch already exists.
	ErrBranchExists = errors.New("branch already exists")

	// ErrBranchNotFound indicates the branch does not exist.
	ErrBranchNotFound = errors.New("branch not found")

	// ErrDirtyWorkingTree indicates uncommitted changes block the operation.
	ErrDirtyWorkingTree = errors.New("working tree has uncommitted changes")

	// ErrProtectedBranch indicates the operation targeted the base branch.
	ErrProtectedBranch = errors.New("operation targets the protected base branch")

	// ErrNoMergeBase indicates the two refs share no common ancestor.
	ErrNoMergeBase = errors.New("no merge base between refs")

	// ErrCorruptState indicates a rebase abort failed and the repository
	// needs manual intervention. Nothing further should be attempted.
	ErrCorruptState = errors.New("repository left in unexpected state; manual intervention required")
)

// Error wraps a git command failure with operation context.
type Error struct {
	Op     string // Operation that failed (e.g., "rebase", "push")
	Output string // Combined command output
	Err    error  // Underlying error
}

func (e *Error) Error() string {
	if e.Output != "" {
		return e.Op + ": " + e.Output
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
