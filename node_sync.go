package forge

import (
	"github.com/randalmurphal/flowgraph/pkg/flowgraph"

	"github.com/randalmurphal/forge/git"
)

// SyncNode rebases the current branch onto the base branch.
//
// A rebase conflict is a failed outcome, not an error: the gateway has
// already aborted the rebase and restored the working tree, so the node
// records the failure and lets the graph route to the end.
func SyncNode(ctx flowgraph.Context, state RunState) (RunState, error) {
	g := MustGitFromContext(ctx)

	if state.Repo.Branch == state.Repo.BaseBranch {
		state = state.withStep("sync", StepFailed, "cannot sync the base branch itself")
		return state, git.ErrProtectedBranch
	}

	outcome, err := g.RebaseOntoBase()
	if err != nil {
		return state.withStep("sync", StepFailed, err.Error()), err
	}
	if outcome == git.RebaseConflictAborted {
		return state.withStep("sync", StepFailed,
			"rebase conflict, aborted; working tree restored"), nil
	}

	// The rebase may have moved HEAD.
	repo, err := g.CurrentState()
	if err != nil {
		return state.withStep("sync", StepFailed, err.Error()), err
	}
	state.Repo = repo

	return state.withStep("sync", StepOK, "rebased onto "+repo.BaseBranch), nil
}
