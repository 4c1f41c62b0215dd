package ai

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Factory builds a concrete provider from a resolved configuration.
type Factory func(ctx context.Context, cfg Config) (Provider, error)

// Registry maps provider IDs to factories. The zero value is unusable;
// construct with NewRegistry.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns a registry with the built-in providers registered.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register("openai", newOpenAI)
	r.Register("gemini", newGemini)
	r.Register("anthropic", newClaude)
	return r
}

// Register adds or replaces a provider factory.
func (r *Registry) Register(id string, factory Factory) {
	r.factories[id] = factory
}

// Available returns the registered provider IDs in sorted order.
func (r *Registry) Available() []string {
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Resolve builds the provider named by cfg.ProviderID, applies config
// defaults, and wraps it with the shared retry/timeout policy.
func (r *Registry) Resolve(ctx context.Context, cfg Config) (Provider, error) {
	factory, ok := r.factories[cfg.ProviderID]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)",
			ErrUnknownProvider, cfg.ProviderID, strings.Join(r.Available(), ", "))
	}

	cfg = cfg.withDefaults()
	inner, err := factory(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewRetrying(inner, cfg.Timeout), nil
}
