package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigFile is the repository-local configuration filename.
const ConfigFile = ".forge.yml"

// ErrNotInitialized indicates the repository has no .forge.yml yet.
var ErrNotInitialized = errors.New("repository not initialized, run 'forge init' first")

// AI holds the provider settings. The key itself is never stored here,
// only a reference telling the ai package where to find it.
type AI struct {
	Provider    string  `yaml:"provider,omitempty"`
	Model       string  `yaml:"model,omitempty"`
	Temperature float64 `yaml:"temperature,omitempty"`
	MaxTokens   int     `yaml:"max_tokens,omitempty"`
	Timeout     string  `yaml:"timeout,omitempty"` // Go duration string, e.g. "2m"
	APIKeyRef   string  `yaml:"api_key_ref,omitempty"`
}

// TimeoutDuration parses the AI timeout, returning 0 when unset.
func (a AI) TimeoutDuration() (time.Duration, error) {
	if a.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(a.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid ai.timeout %q: %w", a.Timeout, err)
	}
	return d, nil
}

// Notify configures optional event sinks. An empty URL leaves that
// sink off; logging and run history are always on.
type Notify struct {
	WebhookURL      string `yaml:"webhook_url,omitempty"`
	SlackWebhookURL string `yaml:"slack_webhook_url,omitempty"`
	SlackChannel    string `yaml:"slack_channel,omitempty"`
}

// Config is the workflow configuration stored in .forge.yml.
type Config struct {
	BaseBranch    string   `yaml:"base_branch"`
	Language      string   `yaml:"language"`
	TestFramework string   `yaml:"test_framework"`
	TestDir       string   `yaml:"test_dir"`
	Include       []string `yaml:"include"`
	Exclude       []string `yaml:"exclude"`
	AI            AI       `yaml:"ai,omitempty"`
	Notify        Notify   `yaml:"notify,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BaseBranch:    "main",
		Language:      "python",
		TestFramework: "pytest",
		TestDir:       "tests",
		Include:       []string{},
		Exclude:       []string{"venv/", "node_modules/", "__pycache__/"},
		AI: AI{
			Provider: "openai",
		},
	}
}

// Path returns the config file path for a repository root.
func Path(root string) string {
	return filepath.Join(root, ConfigFile)
}

// Exists reports whether the repository has been initialized.
func Exists(root string) bool {
	_, err := os.Stat(Path(root))
	return err == nil
}

// Load reads .forge.yml from the repository root. Missing keys keep
// their defaults.
func Load(root string) (Config, error) {
	data, err := os.ReadFile(Path(root))
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, fmt.Errorf("%w (expected %s)", ErrNotInitialized, Path(root))
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", ConfigFile, err)
	}
	return cfg, nil
}

// Save writes the configuration to .forge.yml at the repository root
// and makes sure .gitignore covers it when a .gitignore exists.
func Save(cfg Config, root string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(Path(root), data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	ignorePath := filepath.Join(root, ".gitignore")
	content, err := os.ReadFile(ignorePath)
	if err != nil {
		return nil
	}
	if strings.Contains(string(content), ConfigFile) {
		return nil
	}
	f, err := os.OpenFile(ignorePath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil
	}
	defer f.Close()
	fmt.Fprintf(f, "\n%s\n", ConfigFile)
	return nil
}

// FindRepoRoot walks upward from start looking for a .git directory.
func FindRepoRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		if info, statErr := os.Stat(filepath.Join(dir, ".git")); statErr == nil && info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not inside a git repository (searched up from %s)", start)
		}
		dir = parent
	}
}

// LoadEnv loads a .env file from the repository root when present.
// Variables already set in the environment are not overridden.
func LoadEnv(root string) {
	path := filepath.Join(root, ".env")
	if _, err := os.Stat(path); err != nil {
		return
	}
	// godotenv.Load never overrides existing variables.
	_ = godotenv.Load(path)
}

// DetectLanguage guesses the repository's primary language.
func DetectLanguage(root string) string {
	if _, err := os.Stat(filepath.Join(root, "go.mod")); err == nil {
		return "go"
	}

	lang := "python"
	found := false
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			switch d.Name() {
			case ".git", "venv", ".venv", "node_modules", "__pycache__":
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), ".py") {
			found = true
			return fs.SkipAll
		}
		return nil
	})
	if found {
		return "python"
	}
	return lang
}
