// Package llm adapts third-party generative model SDKs to a single
// "generate text for a prompt" primitive.
package llm

import "context"

// Provider is the model client used by the quiz generator.
type Provider interface {
	// Generate sends the prompt and returns the raw text of the reply.
	// When req.JSON is set the provider asks the model for a JSON body
	// using its native mechanism, if it has one.
	Generate(ctx context.Context, req Request) (string, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

type Request struct {
	Prompt string
	JSON   bool

	// MaxTokens caps the reply length. Zero means the provider default.
	MaxTokens int
}

// resolveModel maps a friendly model name to a provider model ID.
func resolveModel(name string, models map[string]string) string {
	if id, ok := models[name]; ok {
		return id
	}
	return name
}
