// Package history records workflow runs in a local SQLite database.
//
// The store lives at ~/.forge/forge.db by default and tracks runs and
// their steps across repositories. Recording is best effort by contract:
// the orchestrator logs store failures and continues, so a broken or
// missing database never blocks a workflow.
package history
