package main

import (
	"github.com/spf13/cobra"

	forge "github.com/randalmurphal/forge"
)

func newSyncCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Rebase the current branch onto the base branch",
		Long: `Fetch and rebase the current feature branch onto the base branch.
On conflict the rebase is aborted and the working tree restored; forge
never leaves a half-rebased tree behind.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := openWorkspace(flags, true)
			if err != nil {
				return err
			}
			defer ws.Close()

			orch, err := ws.orchestrator(cmd.Context(), false)
			if err != nil {
				return err
			}
			state, err := orch.Sync(cmd.Context())
			if err != nil {
				return err
			}
			return reportRun(state)
		},
	}
}

func newCreateTestsCmd(flags *globalFlags) *cobra.Command {
	var update bool

	cmd := &cobra.Command{
		Use:   "create-tests",
		Short: "Generate tests for files changed against the base branch",
		Long: `Compute the change set between the base branch and HEAD, then
generate a test file for every changed source file that has none yet.
With --update, existing test files are regenerated diff-aware.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := openWorkspace(flags, true)
			if err != nil {
				return err
			}
			defer ws.Close()

			orch, err := ws.orchestrator(cmd.Context(), true)
			if err != nil {
				return err
			}
			state, err := orch.CreateTests(cmd.Context(), forge.RunOptions{Update: update})
			if err != nil {
				return err
			}
			return reportRun(state)
		},
	}

	cmd.Flags().BoolVar(&update, "update", false, "regenerate existing test files")
	return cmd
}

func newTestCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Run the test suite",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := openWorkspace(flags, true)
			if err != nil {
				return err
			}
			defer ws.Close()

			orch, err := ws.orchestrator(cmd.Context(), false)
			if err != nil {
				return err
			}
			state, err := orch.Test(cmd.Context())
			if err != nil {
				return err
			}
			return reportRun(state)
		},
	}
}

func newSubmitCmd(flags *globalFlags) *cobra.Command {
	var skipTests bool

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Sync, generate tests, run them, commit and push",
		Long: `Run the full pipeline: rebase onto the base branch, generate
tests for the change set, run the suite, commit and push. Any failing
step stops the pipeline; a failing suite never produces a commit.

--skip-tests suppresses both test generation and test execution, for
changes whose tests were prepared by hand.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := openWorkspace(flags, true)
			if err != nil {
				return err
			}
			defer ws.Close()

			orch, err := ws.orchestrator(cmd.Context(), !skipTests)
			if err != nil {
				return err
			}
			state, err := orch.Submit(cmd.Context(), forge.RunOptions{SkipTests: skipTests})
			if err != nil {
				return err
			}
			return reportRun(state)
		},
	}

	cmd.Flags().BoolVar(&skipTests, "skip-tests", false, "skip test generation and execution")
	return cmd
}
