// Package git is the version-control gateway for forge.
//
// All git access in the module goes through Context; no other package
// shells out to git directly. The gateway enforces the safety rules the
// pipeline depends on:
//
//   - the configured base branch is never the target of a mutating call
//   - mutating operations require a clean working tree
//   - a conflicted rebase is always aborted before the call returns, so
//     the working tree is restored to its pre-rebase state
//
// Key types:
//
//   - Context: git operations bound to one repository
//   - CommandRunner: interface for executing git commands (with a
//     sequential mock for testing)
//   - RepositoryState: branch/HEAD/cleanliness snapshot
//
// Example:
//
//	gc, err := git.NewContext(".", git.WithBaseBranch("main"))
//	if err != nil {
//	    return err
//	}
//	state, err := gc.CurrentState()
package git
