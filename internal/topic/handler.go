package topic

import (
	"net/http"

	"github.com/saulo-duarte/codequiz-lambda/internal/config"
)

type Handler struct {
	service Service
}

func NewHandler(s Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	topics, err := h.service.List(r.Context(), r.URL.Query().Get("language"))
	if err != nil {
		config.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	config.JSON(w, http.StatusOK, topics)
}
