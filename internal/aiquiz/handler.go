package aiquiz

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/saulo-duarte/codequiz-lambda/internal/auth"
	"github.com/saulo-duarte/codequiz-lambda/internal/config"
	"github.com/saulo-duarte/codequiz-lambda/internal/ratelimit"
)

var errRateLimited = errors.New("quiz generation limit reached, try again later")

type Handler struct {
	service Service
	limiter ratelimit.Limiter
}

func NewHandler(s Service, limiter ratelimit.Limiter) *Handler {
	if limiter == nil {
		limiter = ratelimit.AllowAll()
	}
	return &Handler{service: s, limiter: limiter}
}

// allow spends one unit of the caller's generation quota and writes the
// error response when the request must stop here.
func (h *Handler) allow(w http.ResponseWriter, r *http.Request) bool {
	log := config.WithContext(r.Context())

	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		config.Error(w, http.StatusUnauthorized, "unauthorized")
		return false
	}

	allowed, err := h.limiter.Allow(r.Context(), ratelimit.GenerationKey(userID.String()))
	if err != nil {
		log.WithError(err).Warn("Rate limiter unavailable, allowing request")
		return true
	}
	if !allowed {
		log.Info("Generation quota exhausted")
		config.Error(w, http.StatusTooManyRequests, errRateLimited.Error())
		return false
	}
	return true
}

// PreviewQuiz generates questions without storing them.
func (h *Handler) PreviewQuiz(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	var req QuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		config.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.allow(w, r) {
		return
	}

	questions := h.service.GenerateQuiz(r.Context(), req)
	if len(questions) == 0 {
		log.Warn("Quiz preview produced no questions")
		config.Error(w, http.StatusBadGateway, "failed to generate questions")
		return
	}

	config.JSON(w, http.StatusCreated, QuizPreview{
		Model:     h.service.ModelID(),
		Questions: questions,
	})
}

func (h *Handler) ParseIntent(w http.ResponseWriter, r *http.Request) {
	var req IntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		config.Error(w, http.StatusBadRequest, errBlankMessage.Error())
		return
	}
	if !h.allow(w, r) {
		return
	}

	config.JSON(w, http.StatusOK, h.service.ParseIntent(r.Context(), req.Message))
}
