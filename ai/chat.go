package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// chatProvider adapts an eino chat model to the Provider interface.
// All concrete providers share it; only construction differs.
type chatProvider struct {
	id   string
	chat model.BaseChatModel
}

func (p *chatProvider) Generate(ctx context.Context, req Request) (string, error) {
	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(req.Prompt),
	}

	out, err := p.chat.Generate(ctx, messages)
	if err != nil {
		return "", Classify(fmt.Errorf("%s: %w", p.id, err))
	}
	if out == nil || out.Content == "" {
		return "", fmt.Errorf("%w: %s returned an empty response", ErrInvalidOutput, p.id)
	}
	return out.Content, nil
}
