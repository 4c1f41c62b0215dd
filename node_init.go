package forge

import (
	"github.com/randalmurphal/flowgraph/pkg/flowgraph"
)

// InitNode reads a fresh repository snapshot. Every command graph enters
// here; the snapshot is never cached across commands.
func InitNode(ctx flowgraph.Context, state RunState) (RunState, error) {
	g := MustGitFromContext(ctx)

	repo, err := g.CurrentState()
	if err != nil {
		return state.withStep("init", StepFailed, err.Error()), err
	}
	state.Repo = repo
	return state, nil
}
