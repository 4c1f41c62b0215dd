package forge

import (
	"context"

	"github.com/randalmurphal/forge/adapter"
	"github.com/randalmurphal/forge/config"
	"github.com/randalmurphal/forge/git"
	"github.com/randalmurphal/forge/notify"
	"github.com/randalmurphal/forge/testgen"
)

// serviceContextKey is a private type for context keys to avoid collisions.
type serviceContextKey string

// Context keys for forge services consumed by graph nodes.
const (
	gitServiceKey      serviceContextKey = "forge.git"
	adapterServiceKey  serviceContextKey = "forge.adapter"
	testgenServiceKey  serviceContextKey = "forge.testgen"
	notifierServiceKey serviceContextKey = "forge.notifier"
	configServiceKey   serviceContextKey = "forge.config"
)

// WithGit adds the version-control gateway to the context.
func WithGit(ctx context.Context, g *git.Context) context.Context {
	return context.WithValue(ctx, gitServiceKey, g)
}

// GitFromContext extracts the gateway from context, or nil.
func GitFromContext(ctx context.Context) *git.Context {
	if g, ok := ctx.Value(gitServiceKey).(*git.Context); ok {
		return g
	}
	return nil
}

// MustGitFromContext extracts the gateway or panics.
func MustGitFromContext(ctx context.Context) *git.Context {
	g := GitFromContext(ctx)
	if g == nil {
		panic("forge: git.Context not found in context")
	}
	return g
}

// WithAdapter adds the test runner adapter to the context.
func WithAdapter(ctx context.Context, a adapter.Adapter) context.Context {
	return context.WithValue(ctx, adapterServiceKey, a)
}

// AdapterFromContext extracts the adapter from context, or nil.
func AdapterFromContext(ctx context.Context) adapter.Adapter {
	if a, ok := ctx.Value(adapterServiceKey).(adapter.Adapter); ok {
		return a
	}
	return nil
}

// MustAdapterFromContext extracts the adapter or panics.
func MustAdapterFromContext(ctx context.Context) adapter.Adapter {
	a := AdapterFromContext(ctx)
	if a == nil {
		panic("forge: adapter.Adapter not found in context")
	}
	return a
}

// WithGenerator adds the test generation service to the context.
func WithGenerator(ctx context.Context, s *testgen.Service) context.Context {
	return context.WithValue(ctx, testgenServiceKey, s)
}

// GeneratorFromContext extracts the generation service from context, or nil.
func GeneratorFromContext(ctx context.Context) *testgen.Service {
	if s, ok := ctx.Value(testgenServiceKey).(*testgen.Service); ok {
		return s
	}
	return nil
}

// MustGeneratorFromContext extracts the generation service or panics.
func MustGeneratorFromContext(ctx context.Context) *testgen.Service {
	s := GeneratorFromContext(ctx)
	if s == nil {
		panic("forge: testgen.Service not found in context")
	}
	return s
}

// WithNotifier adds a notifier to the context.
func WithNotifier(ctx context.Context, n notify.Notifier) context.Context {
	return context.WithValue(ctx, notifierServiceKey, n)
}

// NotifierFromContext extracts the notifier from context. Returns a
// NopNotifier when none is configured so callers never nil-check.
func NotifierFromContext(ctx context.Context) notify.Notifier {
	if n, ok := ctx.Value(notifierServiceKey).(notify.Notifier); ok && n != nil {
		return n
	}
	return notify.NopNotifier{}
}

// WithConfig adds the resolved workflow configuration to the context.
func WithConfig(ctx context.Context, cfg config.Config) context.Context {
	return context.WithValue(ctx, configServiceKey, cfg)
}

// ConfigFromContext extracts the configuration, falling back to the
// built-in defaults.
func ConfigFromContext(ctx context.Context) config.Config {
	if cfg, ok := ctx.Value(configServiceKey).(config.Config); ok {
		return cfg
	}
	return config.Default()
}
