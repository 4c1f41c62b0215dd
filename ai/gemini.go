package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"
)

// newGemini constructs the Google Gemini chat provider.
func newGemini(ctx context.Context, cfg Config) (Provider, error) {
	key, err := ResolveAPIKey(cfg.APIKeyRef)
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	temperature := float32(cfg.Temperature)
	modelCfg := &gemini.Config{
		Client:      client,
		Model:       cfg.Model,
		Temperature: &temperature,
	}
	if cfg.MaxTokens > 0 {
		maxTokens := cfg.MaxTokens
		modelCfg.MaxTokens = &maxTokens
	}

	chat, err := gemini.NewChatModel(ctx, modelCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini model: %w", err)
	}
	return &chatProvider{id: "gemini", chat: chat}, nil
}
