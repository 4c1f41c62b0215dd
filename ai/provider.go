package ai

import (
	"context"
	"time"
)

// systemPrompt frames every generation call.
const systemPrompt = "You are a testing expert. Generate minimal, readable tests. " +
	"Output only source code, without explanations or markdown formatting."

// Request is one generation request for a single changed file.
type Request struct {
	SourcePath       string // Path of the source file under test
	ChangeKind       string // added, modified, ...
	ExistingTestPath string // Set when updating an existing test artifact
	Prompt           string // Fully built prompt text
}

// Provider generates source text from a prompt.
type Provider interface {
	// Generate returns generated source text for the request.
	// Errors are classified into the package's error classes.
	Generate(ctx context.Context, req Request) (string, error)
}

// Config is the resolved provider configuration for one command run.
// It carries a reference to where the API key is sourced, never the key
// material itself.
type Config struct {
	ProviderID  string        // Registry key, e.g. "openai"
	Model       string        // Model name; empty selects the provider default
	Temperature float64       // Sampling temperature
	MaxTokens   int           // Response token cap; 0 means provider default
	Timeout     time.Duration // Per-call timeout
	APIKeyRef   string        // "env:NAME" or "keyring:service/user"
}

// Defaults applied when a Config field is unset.
const (
	DefaultTemperature = 0.3
	DefaultTimeout     = 2 * time.Minute
	DefaultAttempts    = 3
)

// defaultModels maps provider IDs to their cost-effective defaults.
var defaultModels = map[string]string{
	"openai":    "gpt-4o-mini",
	"gemini":    "gemini-2.0-flash-lite",
	"anthropic": "claude-3-5-haiku-latest",
}

// defaultKeyRefs maps provider IDs to their conventional env var refs.
var defaultKeyRefs = map[string]string{
	"openai":    "env:OPENAI_API_KEY",
	"gemini":    "env:GOOGLE_API_KEY",
	"anthropic": "env:ANTHROPIC_API_KEY",
}

// DefaultModel returns the default model for a provider ID.
func DefaultModel(providerID string) string {
	if m, ok := defaultModels[providerID]; ok {
		return m
	}
	return defaultModels["openai"]
}

// DefaultKeyRef returns the conventional API-key reference for a provider.
func DefaultKeyRef(providerID string) string {
	if ref, ok := defaultKeyRefs[providerID]; ok {
		return ref
	}
	return ""
}

// withDefaults fills unset Config fields.
func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = DefaultModel(c.ProviderID)
	}
	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.APIKeyRef == "" {
		c.APIKeyRef = DefaultKeyRef(c.ProviderID)
	}
	return c
}
