package ai

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAIGateway generates completions through an OpenAI-compatible API.
type OpenAIGateway struct {
	client *openai.Client
}

var _ Gateway = (*OpenAIGateway)(nil)

// NewOpenAIGateway creates a gateway for the OpenAI API, or any service
// speaking its protocol when baseURL is set.
func NewOpenAIGateway(apiKey, baseURL string) *OpenAIGateway {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIGateway{client: openai.NewClientWithConfig(config)}
}

func (g *OpenAIGateway) Generate(ctx context.Context, history []Turn, model string, maxTokens int) (Reply, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, turn := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    turn.Role,
			Content: turn.Content,
		})
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		// No choices still resolves to a structured reply; the caller's
		// fallback text handles the empty content.
		return Reply{Kind: ReplyStructured}, nil
	}
	return Reply{Kind: ReplyStructured, Content: resp.Choices[0].Message.Content}, nil
}
