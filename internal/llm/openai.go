package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIBackend generates text through an OpenAI-compatible chat API.
// With a BaseURL pointing at a local endpoint (e.g. Ollama) the same
// invoker loop runs against self-hosted models.
type OpenAIBackend struct {
	baseURL string
}

// NewOpenAIBackend creates an OpenAI-compatible backend. baseURL may be
// empty to use the official API endpoint.
func NewOpenAIBackend(baseURL string) *OpenAIBackend {
	return &OpenAIBackend{baseURL: baseURL}
}

func (b *OpenAIBackend) GenerateText(ctx context.Context, modelID, apiKey string, req Request) (string, error) {
	cfg := openai.DefaultConfig(apiKey)
	if b.baseURL != "" {
		cfg.BaseURL = b.baseURL
	}
	client := openai.NewClientWithConfig(cfg)

	chatReq := openai.ChatCompletionRequest{
		Model: modelID,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
	}
	if req.JSONMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("chat completion %s: %w", modelID, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model %s returned no choices", modelID)
	}

	return resp.Choices[0].Message.Content, nil
}
