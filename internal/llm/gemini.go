package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiBackend generates text through the Google Gemini API.
//
// The client is created per call because the credential is resolved per
// call (a browser-supplied key overrides the process default), and the
// genai client binds its key at construction.
type GeminiBackend struct{}

// NewGeminiBackend creates a Gemini backend.
func NewGeminiBackend() *GeminiBackend {
	return &GeminiBackend{}
}

func (b *GeminiBackend) GenerateText(ctx context.Context, modelID, apiKey string, req Request) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("create Gemini client: %w", err)
	}

	config := &genai.GenerateContentConfig{}
	if req.JSONMode {
		config.ResponseMIMEType = "application/json"
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: req.Prompt}},
		},
	}

	result, err := client.Models.GenerateContent(ctx, modelID, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini %s: %w", modelID, err)
	}

	return result.Text(), nil
}
