package forge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/randalmurphal/flowgraph/pkg/flowgraph"

	"github.com/randalmurphal/forge/adapter"
	"github.com/randalmurphal/forge/config"
	"github.com/randalmurphal/forge/git"
	"github.com/randalmurphal/forge/history"
	"github.com/randalmurphal/forge/notify"
	"github.com/randalmurphal/forge/testgen"
)

// RunOptions carry the per-command flags into a pipeline run.
type RunOptions struct {
	SkipTests bool
	Update    bool
}

// Orchestrator wires the gateway, generator, adapter and sinks into the
// command pipelines. One instance serves one repository; commands run
// strictly one at a time since the working tree is a shared resource.
type Orchestrator struct {
	git      *git.Context
	adapter  adapter.Adapter
	gen      *testgen.Service
	notifier notify.Notifier
	store    *history.Store
	cfg      config.Config
	logger   *slog.Logger
}

// OrchestratorConfig holds the collaborators for NewOrchestrator. Git is
// required; everything else has a working zero value.
type OrchestratorConfig struct {
	Git      *git.Context
	Adapter  adapter.Adapter
	Gen      *testgen.Service
	Notifier notify.Notifier
	Store    *history.Store
	Config   config.Config
	Logger   *slog.Logger
}

// NewOrchestrator builds an orchestrator from its collaborators.
func NewOrchestrator(oc OrchestratorConfig) (*Orchestrator, error) {
	if oc.Git == nil {
		return nil, fmt.Errorf("orchestrator requires a git context")
	}
	if oc.Notifier == nil {
		oc.Notifier = notify.NopNotifier{}
	}
	if oc.Logger == nil {
		oc.Logger = slog.Default()
	}
	return &Orchestrator{
		git:      oc.Git,
		adapter:  oc.Adapter,
		gen:      oc.Gen,
		notifier: oc.Notifier,
		store:    oc.Store,
		cfg:      oc.Config,
		logger:   oc.Logger,
	}, nil
}

// Branches lists local branches along with the current one.
func (o *Orchestrator) Branches() (current string, branches []string, err error) {
	current, err = o.git.CurrentBranch()
	if err != nil {
		return "", nil, err
	}
	branches, err = o.git.ListBranches()
	if err != nil {
		return "", nil, err
	}
	return current, branches, nil
}

// CreateBranch normalizes the requested name and creates the branch.
func (o *Orchestrator) CreateBranch(name string) (git.RepositoryState, error) {
	normalized, err := git.NormalizeBranchName(name)
	if err != nil {
		return git.RepositoryState{}, err
	}
	if !git.ValidateBranchName(normalized) {
		return git.RepositoryState{}, fmt.Errorf("invalid branch name: %q", name)
	}
	return o.git.CreateBranch(normalized)
}

// Switch checks out an existing branch.
func (o *Orchestrator) Switch(name string) (git.RepositoryState, error) {
	return o.git.SwitchBranch(name)
}

// step wraps a node with notification and converts it to the graph's
// node type.
func step(node NodeFunc, name string) flowgraph.NodeFunc[RunState] {
	return flowgraph.NodeFunc[RunState](WithNotify(node, name))
}

// Sync rebases the current branch onto the base branch.
func (o *Orchestrator) Sync(ctx context.Context) (RunState, error) {
	compiled, err := flowgraph.NewGraph[RunState]().
		AddNode("init", step(InitNode, "init")).
		AddNode("sync", step(SyncNode, "sync")).
		AddEdge("init", "sync").
		AddEdge("sync", flowgraph.END).
		SetEntry("init").
		Compile()
	if err != nil {
		return RunState{}, fmt.Errorf("compile sync pipeline: %w", err)
	}
	return o.run(ctx, "sync", RunOptions{}, compiled.Run)
}

// CreateTests generates tests for the change set against the base branch
// without touching the commit history.
func (o *Orchestrator) CreateTests(ctx context.Context, opts RunOptions) (RunState, error) {
	compiled, err := flowgraph.NewGraph[RunState]().
		AddNode("init", step(InitNode, "init")).
		AddNode("generate", step(GenerateNode, "generate")).
		AddEdge("init", "generate").
		AddEdge("generate", flowgraph.END).
		SetEntry("init").
		Compile()
	if err != nil {
		return RunState{}, fmt.Errorf("compile create-tests pipeline: %w", err)
	}
	return o.run(ctx, "create-tests", RunOptions{Update: opts.Update}, compiled.Run)
}

// Test runs the test suite by itself.
func (o *Orchestrator) Test(ctx context.Context) (RunState, error) {
	compiled, err := flowgraph.NewGraph[RunState]().
		AddNode("init", step(InitNode, "init")).
		AddNode("test", step(TestingNode, "test")).
		AddEdge("init", "test").
		AddEdge("test", flowgraph.END).
		SetEntry("init").
		Compile()
	if err != nil {
		return RunState{}, fmt.Errorf("compile test pipeline: %w", err)
	}
	return o.run(ctx, "test", RunOptions{}, compiled.Run)
}

// Submit runs the full pipeline: sync, generate, test, commit, push.
// Every stage gates the next; once a step fails the graph routes
// straight to the end, so a failing suite can never reach the commit.
//
// SkipTests suppresses both generation and execution, leaving commit
// and push for changes the caller prepared by hand.
func (o *Orchestrator) Submit(ctx context.Context, opts RunOptions) (RunState, error) {
	compiled, err := flowgraph.NewGraph[RunState]().
		AddNode("init", step(InitNode, "init")).
		AddNode("sync", step(SyncNode, "sync")).
		AddNode("generate", step(GenerateNode, "generate")).
		AddNode("test", step(TestingNode, "test")).
		AddNode("commit", step(CommitNode, "commit")).
		AddNode("push", step(PushNode, "push")).
		AddEdge("init", "sync").
		AddConditionalEdge("sync", routeUnlessFailed("generate")).
		AddConditionalEdge("generate", routeUnlessFailed("test")).
		AddConditionalEdge("test", routeUnlessFailed("commit")).
		AddConditionalEdge("commit", routeUnlessFailed("push")).
		AddEdge("push", flowgraph.END).
		SetEntry("init").
		Compile()
	if err != nil {
		return RunState{}, fmt.Errorf("compile submit pipeline: %w", err)
	}
	return o.run(ctx, "submit", opts, compiled.Run)
}

// routeUnlessFailed returns a router that continues to next while the
// run is still healthy.
func routeUnlessFailed(next string) func(ctx flowgraph.Context, state RunState) string {
	return func(ctx flowgraph.Context, state RunState) string {
		if state.Failed() {
			return flowgraph.END
		}
		return next
	}
}

// run executes a compiled pipeline with the run lifecycle around it:
// start/finish events, history records and final status resolution.
func (o *Orchestrator) run(ctx context.Context, command string, opts RunOptions,
	exec func(flowgraph.Context, RunState, ...flowgraph.RunOption) (RunState, error)) (RunState, error) {

	state := NewRunState(command)
	state.SkipTests = opts.SkipTests
	state.Update = opts.Update

	fgCtx := flowgraph.NewContext(o.serviceContext(ctx))

	o.recordStart(ctx, state)
	o.emit(fgCtx, notify.Event{
		Type:      notify.EventRunStarted,
		RunID:     state.RunID,
		Command:   command,
		Severity:  notify.SeverityInfo,
		Message:   command + " started",
		Timestamp: time.Now(),
	})

	result, runErr := exec(fgCtx, state)
	if result.RunID == "" {
		// Keep identification when the graph surfaced an error without
		// returning the partial state.
		result.RunID = state.RunID
		result.Command = state.Command
		result.StartedAt = state.StartedAt
	}

	switch {
	case runErr != nil:
		if result.FinalStatus == RunRunning || result.FinalStatus == "" {
			result.FinalStatus = RunAborted
		}
	case result.FinalStatus == RunRunning:
		result.FinalStatus = RunDone
	}

	o.recordFinish(ctx, result)
	o.emit(fgCtx, finalEvent(result, runErr))

	return result, runErr
}

// serviceContext injects the orchestrator's collaborators for the nodes.
func (o *Orchestrator) serviceContext(ctx context.Context) context.Context {
	ctx = WithGit(ctx, o.git)
	ctx = WithConfig(ctx, o.cfg)
	ctx = WithNotifier(ctx, o.notifier)
	if o.adapter != nil {
		ctx = WithAdapter(ctx, o.adapter)
	}
	if o.gen != nil {
		ctx = WithGenerator(ctx, o.gen)
	}
	return ctx
}

func (o *Orchestrator) recordStart(ctx context.Context, state RunState) {
	if o.store == nil {
		return
	}
	branch, err := o.git.CurrentBranch()
	if err != nil {
		branch = ""
	}
	run := history.Run{
		ID:         state.RunID,
		Command:    state.Command,
		RepoPath:   o.git.Root(),
		Branch:     branch,
		BaseBranch: o.git.BaseBranch(),
		Provider:   o.cfg.AI.Provider,
		Model:      o.cfg.AI.Model,
		StartedAt:  state.StartedAt,
	}
	if err := o.store.RecordStart(ctx, run); err != nil {
		o.logger.Warn("history record failed", "runId", state.RunID, "error", err)
	}
}

func (o *Orchestrator) recordFinish(ctx context.Context, state RunState) {
	if o.store == nil {
		return
	}
	detail := ""
	if state.FailedStep != "" {
		if step, ok := state.Step(state.FailedStep); ok {
			detail = step.Detail
		}
	}
	if err := o.store.RecordFinish(ctx, state.RunID, state.FinalStatus, detail, time.Now()); err != nil {
		o.logger.Warn("history record failed", "runId", state.RunID, "error", err)
	}
}

func (o *Orchestrator) emit(ctx context.Context, event notify.Event) {
	if err := o.notifier.Notify(ctx, event); err != nil {
		o.logger.Warn("notification failed", "event", event.Type, "error", err)
	}
}

// finalEvent maps a finished run to its terminal event.
func finalEvent(state RunState, runErr error) notify.Event {
	event := notify.Event{
		RunID:     state.RunID,
		Command:   state.Command,
		Branch:    state.Repo.Branch,
		Timestamp: time.Now(),
	}
	switch state.FinalStatus {
	case RunDone:
		event.Type = notify.EventRunCompleted
		event.Severity = notify.SeverityInfo
		event.Message = state.Command + " completed"
	case RunAborted:
		event.Type = notify.EventRunAborted
		event.Severity = notify.SeverityError
		event.Message = state.Command + " aborted"
		if runErr != nil {
			event.Message += ": " + runErr.Error()
		}
	default:
		event.Type = notify.EventRunFailed
		event.Severity = notify.SeverityError
		event.Message = state.Command + " failed at " + state.FailedStep
	}
	return event
}
