package llm

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient generates text through an OpenAI-compatible chat endpoint.
// Setting a base URL points it at self-hosted or proxy deployments.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates an OpenAI-backed client for the given API key
func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}
}

// Generate sends the prompt as a single user message and returns the reply
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	return resp.Choices[0].Message.Content, nil
}

// OpenAIFactory returns a Factory producing OpenAI-compatible clients
func OpenAIFactory(baseURL, model string) Factory {
	return func(ctx context.Context, apiKey string) (Client, error) {
		return NewOpenAIClient(apiKey, baseURL, model), nil
	}
}
