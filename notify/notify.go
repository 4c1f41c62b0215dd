package notify

import (
	"context"
	"time"
)

// EventType represents the type of workflow event.
type EventType string

// Event type constants.
const (
	EventRunStarted   EventType = "run_started"
	EventRunCompleted EventType = "run_completed"
	EventRunFailed    EventType = "run_failed"
	EventRunAborted   EventType = "run_aborted"
	EventStepStarted  EventType = "step_started"
	EventStepSkipped  EventType = "step_skipped"
	EventStepFailed   EventType = "step_failed"
	EventTestsFailed  EventType = "tests_failed"
	EventPushed       EventType = "pushed"
)

// Severity constants for events.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Event describes one workflow occurrence for notification.
type Event struct {
	Type      EventType      `json:"type"`
	RunID     string         `json:"run_id"`
	Command   string         `json:"command"`
	Branch    string         `json:"branch,omitempty"`
	Step      string         `json:"step,omitempty"`
	Message   string         `json:"message"`
	Severity  string         `json:"severity"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Notifier sends notifications about workflow events.
type Notifier interface {
	// Notify sends a notification. Implementations should return quickly
	// and treat delivery failure as reportable, not fatal.
	Notify(ctx context.Context, event Event) error
}
