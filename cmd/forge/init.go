package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/forge/config"
	"github.com/randalmurphal/forge/git"
)

func newInitCmd() *cobra.Command {
	var baseBranch, language, testDir string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize forge in the current repository",
		Long: `Detect the repository layout and write .forge.yml: base branch,
project language, test framework and test directory. Existing
configuration is left alone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := config.FindRepoRoot(".")
			if err != nil {
				return err
			}
			if config.Exists(root) {
				return fmt.Errorf("%s already exists", config.Path(root))
			}

			cfg := config.Default()

			if language == "" {
				language = config.DetectLanguage(root)
			}
			cfg.Language = language
			if language == "go" {
				cfg.TestFramework = "go test"
				cfg.TestDir = "."
				cfg.Exclude = []string{"vendor/"}
			}
			if testDir != "" {
				cfg.TestDir = testDir
			}

			if baseBranch == "" {
				g, gitErr := git.NewContext(root)
				if gitErr != nil {
					return gitErr
				}
				detected, detectErr := g.DetectBaseBranch()
				if detectErr != nil {
					detected = git.DefaultBaseBranch
				}
				baseBranch = detected
			}
			cfg.BaseBranch = baseBranch

			if cfg.TestDir != "." {
				if err := os.MkdirAll(filepath.Join(root, cfg.TestDir), 0o755); err != nil {
					return fmt.Errorf("create test directory: %w", err)
				}
			}
			if err := config.Save(cfg, root); err != nil {
				return err
			}

			fmt.Printf("Initialized forge in %s\n", root)
			fmt.Printf("  base branch: %s\n", cfg.BaseBranch)
			fmt.Printf("  language:    %s (%s)\n", cfg.Language, cfg.TestFramework)
			fmt.Printf("  test dir:    %s\n", cfg.TestDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&baseBranch, "base-branch", "", "base branch (default: detected)")
	cmd.Flags().StringVar(&language, "language", "", "project language (default: detected)")
	cmd.Flags().StringVar(&testDir, "test-dir", "", "test directory (default: per language)")

	return cmd
}
