package main

import (
	"context"
	"fmt"
	"log/slog"

	forge "github.com/randalmurphal/forge"
	"github.com/randalmurphal/forge/adapter"
	"github.com/randalmurphal/forge/ai"
	"github.com/randalmurphal/forge/config"
	"github.com/randalmurphal/forge/git"
	"github.com/randalmurphal/forge/history"
	"github.com/randalmurphal/forge/notify"
	"github.com/randalmurphal/forge/prompt"
	"github.com/randalmurphal/forge/testgen"
)

// workspace bundles everything a command needs for the current repo.
type workspace struct {
	root  string
	cfg   config.Config
	git   *git.Context
	adp   adapter.Adapter
	store *history.Store
}

// openWorkspace locates the repository, loads its configuration and
// builds the gateway and adapter. Commands that only touch branches
// pass needConfig=false so they work before `forge init`.
func openWorkspace(flags *globalFlags, needConfig bool) (*workspace, error) {
	root, err := config.FindRepoRoot(".")
	if err != nil {
		return nil, err
	}
	config.LoadEnv(root)

	overrides := config.Overrides{}
	if flags != nil {
		overrides.Provider = flags.provider
		overrides.Model = flags.model
	}

	if needConfig && !config.Exists(root) {
		return nil, config.ErrNotInitialized
	}
	resolved, err := config.Resolve(root, overrides)
	if err != nil {
		return nil, err
	}
	cfg := resolved.Config

	g, err := git.NewContext(root, git.WithBaseBranch(cfg.BaseBranch))
	if err != nil {
		return nil, err
	}

	adp, err := adapter.ForLanguage(cfg.Language, git.NewExecRunner())
	if err != nil {
		return nil, err
	}

	ws := &workspace{root: root, cfg: cfg, git: g, adp: adp}

	// History is best effort; a broken store never blocks a command.
	if path, pathErr := history.DefaultPath(); pathErr == nil {
		if store, openErr := history.Open(path); openErr == nil {
			ws.store = store
		} else {
			slog.Warn("run history unavailable", "error", openErr)
		}
	}
	return ws, nil
}

func (ws *workspace) Close() {
	if ws.store != nil {
		ws.store.Close()
	}
}

// orchestrator wires the workspace into a forge.Orchestrator. The AI
// provider is only resolved when the command generates tests.
func (ws *workspace) orchestrator(ctx context.Context, withProvider bool) (*forge.Orchestrator, error) {
	var gen *testgen.Service
	if withProvider {
		timeout, err := ws.cfg.AI.TimeoutDuration()
		if err != nil {
			return nil, err
		}
		provider, err := ai.NewRegistry().Resolve(ctx, ai.Config{
			ProviderID:  ws.cfg.AI.Provider,
			Model:       ws.cfg.AI.Model,
			Temperature: ws.cfg.AI.Temperature,
			MaxTokens:   ws.cfg.AI.MaxTokens,
			Timeout:     timeout,
			APIKeyRef:   ws.cfg.AI.APIKeyRef,
		})
		if err != nil {
			return nil, err
		}
		gen = testgen.New(provider, ws.adp, prompt.NewLoader(ws.root), testgen.Config{
			Root:      ws.root,
			TestDir:   ws.cfg.TestDir,
			Language:  ws.cfg.Language,
			Framework: ws.cfg.TestFramework,
		})
	}

	sinks := []notify.Notifier{notify.NewLogNotifier(slog.Default())}
	if ws.store != nil {
		sinks = append(sinks, history.NewNotifier(ws.store, slog.Default()))
	}
	if url := ws.cfg.Notify.WebhookURL; url != "" {
		sinks = append(sinks, notify.NewWebhookNotifier(url, nil))
	}
	if url := ws.cfg.Notify.SlackWebhookURL; url != "" {
		var opts []notify.SlackOption
		if ws.cfg.Notify.SlackChannel != "" {
			opts = append(opts, notify.WithSlackChannel(ws.cfg.Notify.SlackChannel))
		}
		sinks = append(sinks, notify.NewSlackNotifier(url, opts...))
	}
	notifier := notify.NewMultiNotifier(sinks...)

	return forge.NewOrchestrator(forge.OrchestratorConfig{
		Git:      ws.git,
		Adapter:  ws.adp,
		Gen:      gen,
		Notifier: notifier,
		Store:    ws.store,
		Config:   ws.cfg,
	})
}

// reportRun prints the step table and converts a failed run into a
// non-zero exit.
func reportRun(state forge.RunState) error {
	for _, step := range state.Steps {
		marker := "ok"
		switch step.Status {
		case forge.StepSkipped:
			marker = "--"
		case forge.StepFailed:
			marker = "FAIL"
		}
		if step.Detail != "" {
			fmt.Printf("  [%s] %-10s %s\n", marker, step.Name, step.Detail)
		} else {
			fmt.Printf("  [%s] %s\n", marker, step.Name)
		}
	}

	if state.FinalStatus != forge.RunDone {
		if state.FailedStep != "" {
			return fmt.Errorf("%s failed at %s", state.Command, state.FailedStep)
		}
		return fmt.Errorf("%s %s", state.Command, state.FinalStatus)
	}
	fmt.Printf("%s completed\n", state.Command)
	return nil
}
