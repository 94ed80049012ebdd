package aiquiz

import (
	"github.com/saulo-duarte/codequiz-lambda/internal/llm"
	"github.com/saulo-duarte/codequiz-lambda/internal/ratelimit"
)

type AIQuizContainer struct {
	Service Service
	Handler *Handler
}

func NewAIQuizContainer(provider llm.Provider, limiter ratelimit.Limiter) *AIQuizContainer {
	service := NewService(provider)
	handler := NewHandler(service, limiter)

	return &AIQuizContainer{
		Service: service,
		Handler: handler,
	}
}
