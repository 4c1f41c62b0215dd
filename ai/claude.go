package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/claude"
)

// claudeDefaultMaxTokens caps responses when the config leaves MaxTokens
// unset; the claude API requires an explicit value.
const claudeDefaultMaxTokens = 4096

// newClaude constructs the Anthropic chat provider.
func newClaude(ctx context.Context, cfg Config) (Provider, error) {
	key, err := ResolveAPIKey(cfg.APIKeyRef)
	if err != nil {
		return nil, err
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = claudeDefaultMaxTokens
	}
	temperature := float32(cfg.Temperature)

	chat, err := claude.NewChatModel(ctx, &claude.Config{
		APIKey:      key,
		Model:       cfg.Model,
		MaxTokens:   maxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("create claude model: %w", err)
	}
	return &chatProvider{id: "anthropic", chat: chat}, nil
}
