package forge

import (
	"time"

	"github.com/randalmurphal/flowgraph/pkg/flowgraph"

	"github.com/randalmurphal/forge/notify"
)

// commitMessage is used for every generated-test commit.
const commitMessage = "fg: add generated tests"

// CommitNode stages and commits the working tree. A clean tree is a
// successful no-op so the pipeline can still push prior commits.
func CommitNode(ctx flowgraph.Context, state RunState) (RunState, error) {
	g := MustGitFromContext(ctx)

	clean, err := g.IsClean()
	if err != nil {
		return state.withStep("commit", StepFailed, err.Error()), err
	}
	if clean {
		state.Unchanged = true
		return state.withStep("commit", StepOK, "nothing to commit"), nil
	}

	if err := g.Stage("."); err != nil {
		return state.withStep("commit", StepFailed, err.Error()), err
	}
	result, err := g.Commit(commitMessage)
	if err != nil {
		return state.withStep("commit", StepFailed, err.Error()), err
	}
	state.CommitSHA = result.SHA
	state.Unchanged = result.Unchanged

	if result.Unchanged {
		return state.withStep("commit", StepOK, "nothing to commit"), nil
	}
	return state.withStep("commit", StepOK, "committed "+result.SHA), nil
}

// PushNode publishes the current branch. A rejected push is recorded as
// a failed step and never retried; forcing is out of the question since
// the remote moved for a reason.
func PushNode(ctx flowgraph.Context, state RunState) (RunState, error) {
	g := MustGitFromContext(ctx)

	outcome, err := g.Push()
	if err != nil {
		return state.withStep("push", StepFailed, err.Error()), err
	}
	if outcome.Rejected {
		detail := "push rejected"
		if outcome.Reason != "" {
			detail += ": " + outcome.Reason
		}
		return state.withStep("push", StepFailed, detail+" (pull or sync first)"), nil
	}
	state.Pushed = true

	notifyBestEffort(ctx, notify.Event{
		Type:      notify.EventPushed,
		RunID:     state.RunID,
		Command:   state.Command,
		Branch:    state.Repo.Branch,
		Step:      "push",
		Message:   "pushed " + state.Repo.Branch,
		Severity:  notify.SeverityInfo,
		Timestamp: time.Now(),
	})
	return state.withStep("push", StepOK, "pushed "+state.Repo.Branch), nil
}
