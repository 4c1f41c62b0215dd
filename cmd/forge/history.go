package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/forge/config"
	"github.com/randalmurphal/forge/history"
)

func newHistoryCmd() *cobra.Command {
	var limit int
	var all bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent workflow runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := history.DefaultPath()
			if err != nil {
				return err
			}
			store, err := history.Open(path)
			if err != nil {
				return err
			}
			defer store.Close()

			repoPath := ""
			if !all {
				root, rootErr := config.FindRepoRoot(".")
				if rootErr != nil {
					return rootErr
				}
				repoPath = root
			}

			runs, err := store.RecentRuns(cmd.Context(), repoPath, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("No recorded runs.")
				return nil
			}

			for _, run := range runs {
				fmt.Printf("%s  %-12s %-8s %-24s %s\n",
					run.StartedAt.Format("2006-01-02 15:04"),
					run.Command, run.Status, run.Branch, run.Detail)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to show")
	cmd.Flags().BoolVar(&all, "all", false, "show runs from all repositories")
	return cmd
}
