package llm

import (
	"context"
	"errors"

	"google.golang.org/genai"
)

// ErrEmptyResponse is returned when the model produced no usable candidate
var ErrEmptyResponse = errors.New("model returned no response")

// GeminiClient generates text through the Google Gemini API
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini-backed client for the given API key
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	return &GeminiClient{
		client: client,
		model:  model,
	}, nil
}

// Generate sends the prompt and returns the first candidate's text
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	res, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}

	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil || len(res.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}

	return res.Candidates[0].Content.Parts[0].Text, nil
}

// GeminiFactory returns a Factory producing Gemini clients for the model
func GeminiFactory(model string) Factory {
	return func(ctx context.Context, apiKey string) (Client, error) {
		return NewGeminiClient(ctx, apiKey, model)
	}
}
