package llm

import (
	"fmt"
	"time"
)

type Config struct {
	// Provider selects the backend: "gemini", "openai", "anthropic" or "mock".
	Provider string

	Gemini    GeminiConfig
	OpenAI    OpenAIConfig
	Anthropic AnthropicConfig

	// Timeout bounds a single model call.
	Timeout time.Duration
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type AnthropicConfig struct {
	APIKey string
	Model  string
}

func (c Config) Validate() error {
	switch c.Provider {
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "mock":
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	return nil
}
