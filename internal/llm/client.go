package llm

import "context"

// Client issues one prompt-in/text-out call to a remote generation service.
// Calls are stateless and never retried here; the caller decides what to do
// with a failure.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Factory constructs a client for an API key. A new client is built on every
// credential change; key validity is only provable by a real call, so a
// factory may succeed and still hand back a client that errors on first use.
type Factory func(ctx context.Context, apiKey string) (Client, error)
