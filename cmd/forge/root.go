package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	verbose  bool
	provider string
	model    string
}

// Execute runs the CLI.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "forge",
		Short: "AI-assisted test-first git workflow",
		Long: `forge keeps feature branches synchronized with the base branch,
generates tests for changed source files with an AI provider, runs the
suite, and only then commits and pushes. A failing suite never ships.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelInfo
			if flags.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})))
		},
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&flags.provider, "provider", "", "AI provider (openai, gemini, anthropic)")
	cmd.PersistentFlags().StringVar(&flags.model, "model", "", "AI model name")

	cmd.AddCommand(
		newInitCmd(),
		newBranchCmd(),
		newSwitchCmd(),
		newSyncCmd(flags),
		newCreateTestsCmd(flags),
		newTestCmd(flags),
		newSubmitCmd(flags),
		newHistoryCmd(),
	)

	return cmd
}
