package quiz

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/saulo-duarte/codequiz-lambda/internal/auth"
)

func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(auth.AuthMiddleware)

	r.Post("/", h.StartQuiz)
	r.Post("/chat", h.StartFromChat)
	r.Get("/", h.ListQuizzes)
	r.Get("/{id}", h.GetQuiz)
	r.Delete("/{id}", h.DeleteQuiz)
	r.Post("/{id}/attempts", h.StartAttempt)
	return r
}

func AttemptRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(auth.AuthMiddleware)

	r.Get("/{id}/question", h.NextQuestion)
	r.Post("/{id}/questions/{questionID}/answer", h.SubmitAnswer)
	r.Post("/{id}/finish", h.FinishAttempt)
	r.Post("/{id}/explanations", h.GenerateExplanations)
	r.Get("/{id}/results", h.Results)
	return r
}
