package quiz

import (
	"github.com/saulo-duarte/codequiz-lambda/internal/aiquiz"
	"github.com/saulo-duarte/codequiz-lambda/internal/ratelimit"
	"gorm.io/gorm"
)

type QuizContainer struct {
	Service Service
	Handler *Handler
}

func NewQuizContainer(db *gorm.DB, generator aiquiz.Service, limiter ratelimit.Limiter) *QuizContainer {
	repo := NewRepository(db)
	service := NewService(db, repo, generator, limiter)
	handler := NewHandler(service)

	return &QuizContainer{
		Service: service,
		Handler: handler,
	}
}
