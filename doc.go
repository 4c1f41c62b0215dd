// Package forge orchestrates a test-first git workflow: branch, sync,
// AI-assisted test generation, test execution, commit and push.
//
// Commands are modeled as flowgraph pipelines over a RunState value.
// Each node records a StepResult; a failed step routes the graph to the
// end, which is how the safety rules hold: a failing test suite can
// never reach the commit node, a rebase conflict is aborted before any
// generation happens, and a rejected push is reported, never forced.
//
// Services (git gateway, language adapter, test generator, notifier,
// configuration) are injected through the context so pipelines stay
// testable with fakes:
//
//	g, _ := git.NewContext(repoPath)
//	orch, _ := forge.NewOrchestrator(forge.OrchestratorConfig{Git: g})
//	result, err := orch.Sync(ctx)
package forge
