package quiz

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/saulo-duarte/codequiz-lambda/internal/auth"
	"github.com/saulo-duarte/codequiz-lambda/internal/config"
)

type Handler struct {
	service Service
}

func NewHandler(s Service) *Handler {
	return &Handler{service: s}
}

// writeError maps workflow errors onto HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		config.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		config.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAlreadyAnswered),
		errors.Is(err, ErrAttemptClosed),
		errors.Is(err, ErrAttemptInProgress):
		config.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrRateLimited):
		config.Error(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, ErrGenerationFailed):
		config.Error(w, http.StatusBadGateway, err.Error())
	default:
		config.WithContext(r.Context()).WithError(err).Error("Unhandled quiz error")
		config.Error(w, http.StatusInternalServerError, "internal server error")
	}
}

func userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		config.WithContext(r.Context()).Warn("Unauthenticated quiz request")
		config.Error(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, false
	}
	return id, true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		config.Error(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		config.WithContext(r.Context()).WithError(err).Warn("Invalid request body")
		config.Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (h *Handler) StartQuiz(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var in StartQuizInput
	if !decode(w, r, &in) {
		return
	}

	view, err := h.service.StartQuiz(r.Context(), uid, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	config.JSON(w, http.StatusCreated, view)
}

func (h *Handler) StartFromChat(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var in ChatInput
	if !decode(w, r, &in) {
		return
	}

	view, err := h.service.StartFromChat(r.Context(), uid, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	config.JSON(w, http.StatusCreated, view)
}

func (h *Handler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	quizzes, err := h.service.ListQuizzes(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	config.JSON(w, http.StatusOK, quizzes)
}

func (h *Handler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	quizID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	quiz, err := h.service.GetQuiz(r.Context(), uid, quizID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	config.JSON(w, http.StatusOK, quiz)
}

func (h *Handler) DeleteQuiz(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	quizID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteQuiz(r.Context(), uid, quizID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) StartAttempt(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	quizID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	view, err := h.service.StartAttempt(r.Context(), uid, quizID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	config.JSON(w, http.StatusCreated, view)
}

func (h *Handler) NextQuestion(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	attemptID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	question, err := h.service.NextQuestion(r.Context(), uid, attemptID)
	if errors.Is(err, ErrAttemptComplete) {
		config.JSON(w, http.StatusOK, AttemptView{AttemptID: attemptID, Finished: true})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	config.JSON(w, http.StatusOK, question)
}

func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	attemptID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	questionID, ok := pathID(w, r, "questionID")
	if !ok {
		return
	}

	// An empty body is a skip.
	var in SubmitAnswerInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		config.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.service.SubmitAnswer(r.Context(), uid, attemptID, questionID, in.OptionID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	config.JSON(w, http.StatusCreated, result)
}

func (h *Handler) FinishAttempt(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	attemptID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	results, err := h.service.FinishAttempt(r.Context(), uid, attemptID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	config.JSON(w, http.StatusOK, results)
}

func (h *Handler) GenerateExplanations(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	attemptID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	n, err := h.service.GenerateMissingExplanations(r.Context(), uid, attemptID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	config.JSON(w, http.StatusOK, map[string]int{"generated": n})
}

func (h *Handler) Results(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	attemptID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	results, err := h.service.Results(r.Context(), uid, attemptID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	config.JSON(w, http.StatusOK, results)
}
