package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBranchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "branch [name]",
		Short: "List branches, or create a feature branch",
		Long: `Without a name, list local branches. With a name, slugify it,
prefix it with "fg/" and create the branch from the current HEAD.

  forge branch "Add User Auth"   creates fg/add-user-auth`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(nil, false)
			if err != nil {
				return err
			}
			defer ws.Close()

			orch, err := ws.orchestrator(cmd.Context(), false)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				current, branches, listErr := orch.Branches()
				if listErr != nil {
					return listErr
				}
				for _, b := range branches {
					if b == current {
						fmt.Printf("* %s\n", b)
					} else {
						fmt.Printf("  %s\n", b)
					}
				}
				return nil
			}

			state, err := orch.CreateBranch(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Created and switched to %s\n", state.Branch)
			return nil
		},
	}
}

func newSwitchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "switch <name>",
		Short: "Switch to an existing branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(nil, false)
			if err != nil {
				return err
			}
			defer ws.Close()

			orch, err := ws.orchestrator(cmd.Context(), false)
			if err != nil {
				return err
			}

			state, err := orch.Switch(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Switched to %s\n", state.Branch)
			return nil
		},
	}
}
