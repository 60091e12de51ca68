package translator

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiCompleter sends prompts to the Gemini API.
type GeminiCompleter struct {
	client *genai.Client
}

// NewGeminiCompleter creates a Gemini client authenticated with apiKey.
func NewGeminiCompleter(ctx context.Context, apiKey string) (*GeminiCompleter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiCompleter{client: client}, nil
}

func (g *GeminiCompleter) Complete(ctx context.Context, p Prompt) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(p.System, genai.RoleUser),
		Temperature:       genai.Ptr(float32(p.Temperature)),
	}
	if p.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(p.MaxTokens)
	}

	contents := []*genai.Content{
		genai.NewContentFromText(p.User, genai.RoleUser),
	}
	resp, err := g.client.Models.GenerateContent(ctx, p.Model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("Gemini request failed: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from Gemini")
	}
	return text, nil
}
