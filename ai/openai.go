package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
)

// newOpenAI constructs the OpenAI chat provider.
func newOpenAI(ctx context.Context, cfg Config) (Provider, error) {
	key, err := ResolveAPIKey(cfg.APIKeyRef)
	if err != nil {
		return nil, err
	}

	temperature := float32(cfg.Temperature)
	modelCfg := &openai.ChatModelConfig{
		APIKey:      key,
		Model:       cfg.Model,
		Temperature: &temperature,
	}
	if cfg.MaxTokens > 0 {
		maxTokens := cfg.MaxTokens
		modelCfg.MaxTokens = &maxTokens
	}

	chat, err := openai.NewChatModel(ctx, modelCfg)
	if err != nil {
		return nil, fmt.Errorf("create openai model: %w", err)
	}
	return &chatProvider{id: "openai", chat: chat}, nil
}
