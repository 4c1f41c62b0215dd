package forge

import (
	"fmt"

	"github.com/randalmurphal/flowgraph/pkg/flowgraph"

	"github.com/randalmurphal/forge/diff"
	"github.com/randalmurphal/forge/testgen"
)

// GenerateNode computes the change set against the merge-base and runs
// test generation for eligible files.
//
// Per-file generation failures are recorded on the step; they mark the
// run failed without erroring the graph so partial results survive. A
// missing merge-base is fatal.
func GenerateNode(ctx flowgraph.Context, state RunState) (RunState, error) {
	if state.SkipTests {
		return state.withStep("generate", StepSkipped, "test generation skipped"), nil
	}

	g := MustGitFromContext(ctx)
	gen := MustGeneratorFromContext(ctx)
	cfg := ConfigFromContext(ctx)

	changes, err := diff.Compute(g, state.Repo.BaseBranch, state.Repo.Branch, diff.Options{
		Include:    cfg.Include,
		Exclude:    cfg.Exclude,
		Extensions: extensionsForLanguage(cfg.Language),
	})
	if err != nil {
		return state.withStep("generate", StepFailed, err.Error()), err
	}
	state.Changes = changes

	if changes.Empty() {
		return state.withStep("generate", StepOK, "no changed files"), nil
	}

	results, genErr := gen.Generate(ctx, changes, state.Update)
	state.GenResults = results

	created, updated, skipped, failed := tallyResults(results)
	detail := fmt.Sprintf("%d created, %d updated, %d skipped, %d failed",
		created, updated, skipped, failed)

	if genErr != nil {
		return state.withStep("generate", StepFailed, detail+": "+genErr.Error()), nil
	}
	if failed > 0 {
		return state.withStep("generate", StepFailed, detail), nil
	}
	return state.withStep("generate", StepOK, detail), nil
}

func tallyResults(results []testgen.Result) (created, updated, skipped, failed int) {
	for _, r := range results {
		switch r.Status {
		case testgen.StatusGenerated:
			created++
		case testgen.StatusUpdated:
			updated++
		case testgen.StatusSkipped:
			skipped++
		case testgen.StatusFailed:
			failed++
		}
	}
	return
}

// extensionsForLanguage maps a configured language to its source suffixes.
func extensionsForLanguage(language string) []string {
	switch language {
	case "go":
		return []string{".go"}
	case "python":
		return []string{".py"}
	default:
		return nil
	}
}
