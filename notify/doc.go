// Package notify delivers workflow run events to external sinks.
//
// Notification delivery is best effort: the orchestrator logs failed
// deliveries and keeps going. Built-in notifiers cover structured
// logging, generic JSON webhooks, and Slack; MultiNotifier fans out to
// several at once.
package notify
