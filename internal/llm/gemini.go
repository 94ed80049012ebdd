package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

var geminiModels = map[string]string{
	"gemini-flash":      "gemini-2.0-flash",
	"gemini-flash-lite": "gemini-flash-lite-latest",
	"gemini-pro":        "gemini-2.5-pro",
}

type GeminiProvider struct {
	client *genai.Client
	model  string
}

func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client: client,
		model:  resolveModel(cfg.Model, geminiModels),
	}, nil
}

func (p *GeminiProvider) Generate(ctx context.Context, req Request) (string, error) {
	config := &genai.GenerateContentConfig{}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.JSON {
		config.ResponseMIMEType = "application/json"
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(req.Prompt), config)
	if err != nil {
		return "", mapGeminiError(err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (p *GeminiProvider) ModelID() string {
	return p.model
}

func mapGeminiError(err error) error {
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return &ErrRateLimit{Err: err}
	}
	return &ErrProviderUnavailable{Err: err}
}
