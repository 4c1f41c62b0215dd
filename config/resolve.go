package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to key names for environment variable lookup.
// Key "ai.provider" maps to FORGE_AI_PROVIDER.
const EnvPrefix = "FORGE_"

// Overrides carries command-line flag values. Zero values mean unset.
type Overrides struct {
	BaseBranch    string
	Language      string
	TestFramework string
	TestDir       string
	Provider      string
	Model         string
	Temperature   float64
	MaxTokens     int
	Timeout       string
	APIKeyRef     string
}

// Resolved is the merged configuration with per-key source tracking.
type Resolved struct {
	Config  Config
	sources map[string]Source
}

// Source returns where a key's value came from.
func (r *Resolved) Source(key string) Source {
	if s, ok := r.sources[key]; ok {
		return s
	}
	return SourceDefault
}

// Resolve merges defaults, FORGE_* environment variables, .forge.yml,
// and flag overrides, in rising priority. A missing .forge.yml is not
// an error here; Load enforces initialization where commands need it.
func Resolve(root string, flags Overrides) (*Resolved, error) {
	r := &Resolved{
		Config:  Default(),
		sources: make(map[string]Source),
	}

	r.applyEnv()

	if Exists(root) {
		if err := r.applyFile(root); err != nil {
			return nil, err
		}
	}

	r.applyFlags(flags)
	return r, nil
}

func (r *Resolved) set(key string, source Source, assign func()) {
	assign()
	r.sources[key] = source
}

func (r *Resolved) applyEnv() {
	keys := []string{
		"base_branch", "language", "test_framework", "test_dir",
		"ai.provider", "ai.model", "ai.temperature", "ai.max_tokens",
		"ai.timeout", "ai.api_key_ref",
		"notify.webhook_url", "notify.slack_webhook_url", "notify.slack_channel",
	}
	for _, key := range keys {
		envKey := EnvPrefix + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
		value := os.Getenv(envKey)
		if value == "" {
			continue
		}
		r.assign(key, value, SourceEnv)
	}
}

// assign applies a string value to the field named by key.
func (r *Resolved) assign(key, value string, source Source) {
	switch key {
	case "base_branch":
		r.set(key, source, func() { r.Config.BaseBranch = value })
	case "language":
		r.set(key, source, func() { r.Config.Language = value })
	case "test_framework":
		r.set(key, source, func() { r.Config.TestFramework = value })
	case "test_dir":
		r.set(key, source, func() { r.Config.TestDir = value })
	case "ai.provider":
		r.set(key, source, func() { r.Config.AI.Provider = value })
	case "ai.model":
		r.set(key, source, func() { r.Config.AI.Model = value })
	case "ai.temperature":
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			r.set(key, source, func() { r.Config.AI.Temperature = f })
		}
	case "ai.max_tokens":
		if n, err := strconv.Atoi(value); err == nil {
			r.set(key, source, func() { r.Config.AI.MaxTokens = n })
		}
	case "ai.timeout":
		r.set(key, source, func() { r.Config.AI.Timeout = value })
	case "ai.api_key_ref":
		r.set(key, source, func() { r.Config.AI.APIKeyRef = value })
	case "notify.webhook_url":
		r.set(key, source, func() { r.Config.Notify.WebhookURL = value })
	case "notify.slack_webhook_url":
		r.set(key, source, func() { r.Config.Notify.SlackWebhookURL = value })
	case "notify.slack_channel":
		r.set(key, source, func() { r.Config.Notify.SlackChannel = value })
	}
}

// applyFile applies exactly the keys the file sets, so a file value
// equal to the default still outranks an environment override.
func (r *Resolved) applyFile(root string) error {
	data, err := os.ReadFile(Path(root))
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse %s: %w", ConfigFile, err)
	}

	for key, value := range raw {
		switch key {
		case "include":
			if list := toStringList(value); list != nil {
				r.set("include", SourceFile, func() { r.Config.Include = list })
			}
		case "exclude":
			if list := toStringList(value); list != nil {
				r.set("exclude", SourceFile, func() { r.Config.Exclude = list })
			}
		case "ai", "notify":
			nested, ok := value.(map[string]any)
			if !ok {
				continue
			}
			for sub, subValue := range nested {
				r.assign(key+"."+sub, fmt.Sprintf("%v", subValue), SourceFile)
			}
		default:
			r.assign(key, fmt.Sprintf("%v", value), SourceFile)
		}
	}
	return nil
}

func toStringList(value any) []string {
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	list := make([]string, 0, len(items))
	for _, item := range items {
		list = append(list, fmt.Sprintf("%v", item))
	}
	return list
}

func (r *Resolved) applyFlags(flags Overrides) {
	if flags.BaseBranch != "" {
		r.set("base_branch", SourceFlag, func() { r.Config.BaseBranch = flags.BaseBranch })
	}
	if flags.Language != "" {
		r.set("language", SourceFlag, func() { r.Config.Language = flags.Language })
	}
	if flags.TestFramework != "" {
		r.set("test_framework", SourceFlag, func() { r.Config.TestFramework = flags.TestFramework })
	}
	if flags.TestDir != "" {
		r.set("test_dir", SourceFlag, func() { r.Config.TestDir = flags.TestDir })
	}
	if flags.Provider != "" {
		r.set("ai.provider", SourceFlag, func() { r.Config.AI.Provider = flags.Provider })
	}
	if flags.Model != "" {
		r.set("ai.model", SourceFlag, func() { r.Config.AI.Model = flags.Model })
	}
	if flags.Temperature != 0 {
		r.set("ai.temperature", SourceFlag, func() { r.Config.AI.Temperature = flags.Temperature })
	}
	if flags.MaxTokens != 0 {
		r.set("ai.max_tokens", SourceFlag, func() { r.Config.AI.MaxTokens = flags.MaxTokens })
	}
	if flags.Timeout != "" {
		r.set("ai.timeout", SourceFlag, func() { r.Config.AI.Timeout = flags.Timeout })
	}
	if flags.APIKeyRef != "" {
		r.set("ai.api_key_ref", SourceFlag, func() { r.Config.AI.APIKeyRef = flags.APIKeyRef })
	}
}
