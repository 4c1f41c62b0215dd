package config

import (
	"testing"
)

func TestResolveDefaultsOnly(t *testing.T) {
	r, err := Resolve(t.TempDir(), Overrides{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if r.Config.BaseBranch != "main" {
		t.Errorf("BaseBranch = %q, want main", r.Config.BaseBranch)
	}
	if r.Source("base_branch") != SourceDefault {
		t.Errorf("Source = %q, want default", r.Source("base_branch"))
	}
}

func TestResolveEnvOverridesDefault(t *testing.T) {
	t.Setenv("FORGE_BASE_BRANCH", "develop")
	t.Setenv("FORGE_AI_PROVIDER", "gemini")

	r, err := Resolve(t.TempDir(), Overrides{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if r.Config.BaseBranch != "develop" || r.Source("base_branch") != SourceEnv {
		t.Errorf("base_branch = %q from %q", r.Config.BaseBranch, r.Source("base_branch"))
	}
	if r.Config.AI.Provider != "gemini" || r.Source("ai.provider") != SourceEnv {
		t.Errorf("ai.provider = %q from %q", r.Config.AI.Provider, r.Source("ai.provider"))
	}
}

func TestResolveFileOverridesEnv(t *testing.T) {
	t.Setenv("FORGE_BASE_BRANCH", "from-env")

	root := t.TempDir()
	writeFile(t, Path(root), "base_branch: main\nai:\n  model: gpt-4o\n  max_tokens: 2048\n")

	r, err := Resolve(root, Overrides{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	// The file sets base_branch explicitly, even though it matches the
	// default it must outrank the environment.
	if r.Config.BaseBranch != "main" || r.Source("base_branch") != SourceFile {
		t.Errorf("base_branch = %q from %q", r.Config.BaseBranch, r.Source("base_branch"))
	}
	if r.Config.AI.Model != "gpt-4o" || r.Config.AI.MaxTokens != 2048 {
		t.Errorf("ai section not applied: %+v", r.Config.AI)
	}
	if r.Source("ai.max_tokens") != SourceFile {
		t.Errorf("ai.max_tokens source = %q", r.Source("ai.max_tokens"))
	}
}

func TestResolveFlagsWin(t *testing.T) {
	t.Setenv("FORGE_TEST_DIR", "env-tests")

	root := t.TempDir()
	writeFile(t, Path(root), "test_dir: file-tests\n")

	r, err := Resolve(root, Overrides{TestDir: "flag-tests", Provider: "anthropic"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if r.Config.TestDir != "flag-tests" || r.Source("test_dir") != SourceFlag {
		t.Errorf("test_dir = %q from %q", r.Config.TestDir, r.Source("test_dir"))
	}
	if r.Config.AI.Provider != "anthropic" {
		t.Errorf("ai.provider = %q, want anthropic", r.Config.AI.Provider)
	}
}

func TestResolveFileLists(t *testing.T) {
	root := t.TempDir()
	writeFile(t, Path(root), "include:\n  - src/\nexclude:\n  - vendor/\n  - build/\n")

	r, err := Resolve(root, Overrides{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(r.Config.Include) != 1 || r.Config.Include[0] != "src/" {
		t.Errorf("Include = %v", r.Config.Include)
	}
	if len(r.Config.Exclude) != 2 || r.Config.Exclude[0] != "vendor/" {
		t.Errorf("Exclude = %v", r.Config.Exclude)
	}
	if r.Source("exclude") != SourceFile {
		t.Errorf("exclude source = %q", r.Source("exclude"))
	}
}

func TestResolveBadFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, Path(root), ": not yaml {{{")

	if _, err := Resolve(root, Overrides{}); err == nil {
		t.Error("Resolve accepted malformed yaml")
	}
}
