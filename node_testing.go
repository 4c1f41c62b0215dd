package forge

import (
	"time"

	"github.com/randalmurphal/flowgraph/pkg/flowgraph"

	"github.com/randalmurphal/forge/notify"
)

// TestingNode runs the project's test suite through the language
// adapter. Any failed or errored test blocks the pipeline.
func TestingNode(ctx flowgraph.Context, state RunState) (RunState, error) {
	if state.SkipTests {
		return state.withStep("test", StepSkipped, "test execution skipped"), nil
	}

	g := MustGitFromContext(ctx)
	adp := MustAdapterFromContext(ctx)
	cfg := ConfigFromContext(ctx)

	result, err := adp.Run(ctx, g.Root(), cfg.TestDir)
	if err != nil {
		return state.withStep("test", StepFailed, err.Error()), err
	}
	state.TestResult = result
	state.TestRan = true

	if !result.OK() {
		state = state.withStep("test", StepFailed, result.Summary)
		notifyBestEffort(ctx, notify.Event{
			Type:      notify.EventTestsFailed,
			RunID:     state.RunID,
			Command:   state.Command,
			Branch:    state.Repo.Branch,
			Step:      "test",
			Message:   result.Summary,
			Severity:  notify.SeverityError,
			Timestamp: time.Now(),
		})
		return state, nil
	}
	return state.withStep("test", StepOK, result.Summary), nil
}
