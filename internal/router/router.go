package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/saulo-duarte/codequiz-lambda/internal/aiquiz"
	"github.com/saulo-duarte/codequiz-lambda/internal/auth"
	"github.com/saulo-duarte/codequiz-lambda/internal/config"
	"github.com/saulo-duarte/codequiz-lambda/internal/quiz"
	"github.com/saulo-duarte/codequiz-lambda/internal/topic"
)

type RouterConfig struct {
	AuthHandler   *auth.Handler
	AIQuizHandler *aiquiz.Handler
	QuizHandler   *quiz.Handler
	TopicHandler  *topic.Handler
}

func New(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		config.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/logout", cfg.AuthHandler.Logout)
	})

	r.Mount("/topics", topic.Routes(cfg.TopicHandler))
	r.Mount("/quizzes", quiz.Routes(cfg.QuizHandler))
	r.Mount("/attempts", quiz.AttemptRoutes(cfg.QuizHandler))
	r.Mount("/ai-quiz", aiquiz.Routes(cfg.AIQuizHandler))
	return r
}
