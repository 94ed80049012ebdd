package aiquiz

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/saulo-duarte/codequiz-lambda/internal/auth"
)

func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(auth.AuthMiddleware)

	r.Post("/", h.PreviewQuiz)
	r.Post("/intent", h.ParseIntent)
	return r
}
