package history

import (
	"context"
	"log/slog"

	"github.com/randalmurphal/forge/notify"
)

// Notifier adapts the store to the notify.Notifier interface so step
// events flow into history alongside the other sinks.
type Notifier struct {
	store  *Store
	logger *slog.Logger
}

// NewNotifier wraps a store as a notification sink.
func NewNotifier(store *Store, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{store: store, logger: logger}
}

// Notify records step events. Delivery is best effort; storage failures
// are logged and swallowed so the workflow is never blocked on history.
func (n *Notifier) Notify(ctx context.Context, event notify.Event) error {
	switch event.Type {
	case notify.EventStepSkipped, notify.EventStepFailed, notify.EventTestsFailed, notify.EventPushed:
	default:
		return nil
	}

	step := Step{
		RunID:      event.RunID,
		Name:       event.Step,
		Status:     string(event.Type),
		Detail:     event.Message,
		FinishedAt: event.Timestamp,
	}
	if err := n.store.RecordStep(ctx, step); err != nil {
		n.logger.Warn("history step not recorded", "run_id", event.RunID, "error", err)
	}
	return nil
}
