package aiquiz

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/saulo-duarte/codequiz-lambda/internal/auth"
	"github.com/saulo-duarte/codequiz-lambda/internal/llm"
	"github.com/saulo-duarte/codequiz-lambda/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_GenerateQuiz(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock := llm.NewMockProvider(llm.MockResponse{Text: quizJSON(3)})
		svc := NewService(mock)

		qs := svc.GenerateQuiz(ctx, QuizRequest{Language: "Python", Topic: "Decorators", Level: LevelIntermediate, NumQuestions: 3})

		require.Len(t, qs, 3)
		require.Equal(t, 1, mock.CallCount())
		assert.True(t, mock.Calls[0].JSON)
		assert.Contains(t, mock.Calls[0].Prompt, "Generate exactly 3 questions.")
	})

	t.Run("ProviderError", func(t *testing.T) {
		svc := NewService(llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{}}))

		qs := svc.GenerateQuiz(ctx, QuizRequest{Language: "Go", Topic: "Maps", NumQuestions: 2})

		assert.NotNil(t, qs)
		assert.Empty(t, qs)
	})

	t.Run("InvalidReply", func(t *testing.T) {
		svc := NewService(llm.NewMockProvider(llm.MockResponse{Text: `{"questions":"nope"}`}))

		assert.Empty(t, svc.GenerateQuiz(ctx, QuizRequest{Language: "Go", Topic: "Maps", NumQuestions: 2}))
	})

	t.Run("CountClampedInPrompt", func(t *testing.T) {
		mock := llm.NewMockProvider(llm.MockResponse{Text: quizJSON(12)})
		svc := NewService(mock)

		qs := svc.GenerateQuiz(ctx, QuizRequest{Language: "Go", Topic: "Maps", NumQuestions: 50})

		assert.Len(t, qs, MaxQuestions)
		assert.Contains(t, mock.Calls[0].Prompt, "Generate exactly 10 questions.")
	})
}

func TestService_ParseIntent(t *testing.T) {
	ctx := context.Background()

	t.Run("Parsed", func(t *testing.T) {
		svc := NewService(llm.NewMockProvider(llm.MockResponse{Text: `{"language":"JavaScript","topic":"Closures","level":"beginner","count":4}`}))

		intent := svc.ParseIntent(ctx, "easy JS closures, 4 questions")

		assert.Equal(t, Intent{Language: "JavaScript", Topic: "Closures", Level: LevelBeginner, Count: 4}, intent)
	})

	t.Run("FailureGivesDefaults", func(t *testing.T) {
		svc := NewService(llm.NewMockProvider(llm.MockResponse{Err: errors.New("boom")}))

		assert.Equal(t, DefaultIntent(), svc.ParseIntent(ctx, "anything"))
	})
}

func TestService_GenerateExplanation(t *testing.T) {
	ctx := context.Background()
	req := ExplanationRequest{QuestionText: "Q?", UserAnswer: "a", CorrectAnswer: "b"}

	t.Run("Success", func(t *testing.T) {
		svc := NewService(llm.NewMockProvider(llm.MockResponse{Text: `{"explanation":"You selected a, but b is right."}`}))

		text, err := svc.GenerateExplanation(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "You selected a, but b is right.", text)
	})

	t.Run("Fallback", func(t *testing.T) {
		svc := NewService(llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrRateLimit{}}))

		text, err := svc.GenerateExplanation(ctx, req)
		assert.Error(t, err)
		assert.Equal(t, ExplanationFallback, text)
	})
}

type denyLimiter struct{ keys []string }

func (d *denyLimiter) Allow(_ context.Context, key string) (bool, error) {
	d.keys = append(d.keys, key)
	return false, nil
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (bool, error) {
	return true, errors.New("redis down")
}

func TestHandler(t *testing.T) {
	auth.Init("aiquiz-handler-secret")
	userID := uuid.New()
	token, err := auth.GenerateJWT(userID.String(), "user", time.Hour)
	require.NoError(t, err)

	newRouter := func(mock *llm.MockProvider, limiter ratelimit.Limiter) http.Handler {
		r := chi.NewRouter()
		r.Mount("/ai-quiz", Routes(NewAIQuizContainer(mock, limiter).Handler))
		return r
	}
	post := func(router http.Handler, path, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("PreviewCreated", func(t *testing.T) {
		router := newRouter(llm.NewMockProvider(llm.MockResponse{Text: quizJSON(2)}), nil)

		rec := post(router, "/ai-quiz/", `{"language":"Go","topic":"Slices","num_questions":2}`)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"model":"mock"`)
		assert.Contains(t, rec.Body.String(), "Question 2?")
	})

	t.Run("PreviewGenerationFailed", func(t *testing.T) {
		router := newRouter(llm.NewMockProvider(), nil)

		rec := post(router, "/ai-quiz/", `{"language":"Go"}`)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("PreviewInvalidLevel", func(t *testing.T) {
		router := newRouter(llm.NewMockProvider(), nil)

		rec := post(router, "/ai-quiz/", `{"language":"Go","level":"wizard"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("RequiresToken", func(t *testing.T) {
		mock := llm.NewMockProvider(llm.MockResponse{Text: quizJSON(1)})
		router := newRouter(mock, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ai-quiz/", strings.NewReader(`{"language":"Go"}`)))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Zero(t, mock.CallCount())
	})

	t.Run("PreviewRateLimited", func(t *testing.T) {
		mock := llm.NewMockProvider(llm.MockResponse{Text: quizJSON(1)})
		limiter := &denyLimiter{}
		router := newRouter(mock, limiter)

		rec := post(router, "/ai-quiz/", `{"language":"Go"}`)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Zero(t, mock.CallCount())
		assert.Equal(t, []string{ratelimit.GenerationKey(userID.String())}, limiter.keys)
	})

	t.Run("IntentRateLimited", func(t *testing.T) {
		mock := llm.NewMockProvider(llm.MockResponse{Text: `{"language":"Go"}`})
		router := newRouter(mock, &denyLimiter{})

		rec := post(router, "/ai-quiz/intent", `{"message":"go channels"}`)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Zero(t, mock.CallCount())
	})

	t.Run("LimiterErrorAllows", func(t *testing.T) {
		mock := llm.NewMockProvider(llm.MockResponse{Text: quizJSON(1)})
		router := newRouter(mock, brokenLimiter{})

		rec := post(router, "/ai-quiz/", `{"language":"Go","num_questions":1}`)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, 1, mock.CallCount())
	})

	t.Run("IntentBlankMessage", func(t *testing.T) {
		router := newRouter(llm.NewMockProvider(), nil)

		rec := post(router, "/ai-quiz/intent", `{"message":"  "}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"message is required"}`, rec.Body.String())
	})

	t.Run("Intent", func(t *testing.T) {
		router := newRouter(llm.NewMockProvider(llm.MockResponse{Text: `{"language":"Rust","topic":"Ownership","level":"Expert","count":2}`}), nil)

		rec := post(router, "/ai-quiz/intent", `{"message":"rust ownership, hard"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"language":"Rust","topic":"Ownership","level":"expert","count":2}`, rec.Body.String())
	})
}
