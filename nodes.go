package forge

import (
	"log/slog"
	"time"

	"github.com/randalmurphal/flowgraph/pkg/flowgraph"

	"github.com/randalmurphal/forge/notify"
)

// NodeFunc is a graph node over RunState.
type NodeFunc func(ctx flowgraph.Context, state RunState) (RunState, error)

// WithTiming wraps a node with debug timing.
func WithTiming(node NodeFunc) NodeFunc {
	return func(ctx flowgraph.Context, state RunState) (RunState, error) {
		start := time.Now()
		result, err := node(ctx, state)
		slog.Debug("node completed", "runId", state.RunID, "duration", time.Since(start))
		return result, err
	}
}

// notifyBestEffort delivers an event, logging rather than propagating
// delivery failures.
func notifyBestEffort(ctx flowgraph.Context, event notify.Event) {
	if err := NotifierFromContext(ctx).Notify(ctx, event); err != nil {
		slog.Warn("notification failed", "event", event.Type, "error", err)
	}
}

// WithNotify wraps a node so its step outcome is emitted to the
// configured notifier. Delivery failure never fails the node.
func WithNotify(node NodeFunc, stepName string) NodeFunc {
	return func(ctx flowgraph.Context, state RunState) (RunState, error) {
		result, err := node(ctx, state)

		notifier := NotifierFromContext(ctx)
		event := notify.Event{
			RunID:     result.RunID,
			Command:   result.Command,
			Branch:    result.Repo.Branch,
			Step:      stepName,
			Timestamp: time.Now(),
		}
		step, ok := result.Step(stepName)
		switch {
		case err != nil:
			event.Type = notify.EventStepFailed
			event.Severity = notify.SeverityError
			event.Message = err.Error()
		case ok && step.Status == StepFailed:
			event.Type = notify.EventStepFailed
			event.Severity = notify.SeverityError
			event.Message = step.Detail
		case ok && step.Status == StepSkipped:
			event.Type = notify.EventStepSkipped
			event.Severity = notify.SeverityInfo
			event.Message = step.Detail
		default:
			return result, err
		}

		if notifyErr := notifier.Notify(ctx, event); notifyErr != nil {
			slog.Warn("notification failed", "step", stepName, "error", notifyErr)
		}
		return result, err
	}
}
