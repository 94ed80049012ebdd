package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/saulo-duarte/codequiz-lambda/internal/aiquiz"
	"github.com/saulo-duarte/codequiz-lambda/internal/config"
	"github.com/saulo-duarte/codequiz-lambda/internal/llm"
	"github.com/saulo-duarte/codequiz-lambda/internal/ratelimit"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// quizJSON returns n well-formed questions whose correct option is "beta"
// (position 2).
func quizJSON(n int) string {
	qs := make([]map[string]any, n)
	for i := range qs {
		qs[i] = map[string]any{
			"text":           fmt.Sprintf("Question %d?", i+1),
			"code_snippet":   nil,
			"options":        []string{"alpha", "beta", "gamma", "delta"},
			"correct_answer": "beta",
			"explanation":    "beta is right",
		}
	}
	b, _ := json.Marshal(map[string]any{"questions": qs})
	return string(b)
}

func explanationJSON(text string) string {
	b, _ := json.Marshal(map[string]string{"explanation": text})
	return string(b)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := config.Connect(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(Models()...))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

type denyLimiter struct{}

func (denyLimiter) Allow(context.Context, string) (bool, error) { return false, nil }

type fixture struct {
	db   *gorm.DB
	mock *llm.MockProvider
	svc  Service
	user uuid.UUID
}

func newFixture(t *testing.T, limiter ratelimit.Limiter, responses ...llm.MockResponse) *fixture {
	t.Helper()

	db := newTestDB(t)
	mock := llm.NewMockProvider(responses...)
	svc := NewService(db, NewRepository(db), aiquiz.NewService(mock), limiter)

	return &fixture{db: db, mock: mock, svc: svc, user: uuid.New()}
}

func (f *fixture) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

func (f *fixture) start(t *testing.T, n int) *AttemptView {
	t.Helper()
	f.mock.AddResponse(llm.MockResponse{Text: quizJSON(n)})
	view, err := f.svc.StartQuiz(context.Background(), f.user, StartQuizInput{
		Language:     "Python",
		Topics:       []string{"Decorators"},
		Level:        "intermediate",
		NumQuestions: n,
	})
	require.NoError(t, err)
	require.NotNil(t, view.Question)
	return view
}

func (f *fixture) submit(t *testing.T, q *QuestionView, position int) *SubmitResult {
	t.Helper()
	var optionID *uuid.UUID
	if position > 0 {
		id := q.Options[position-1].ID
		optionID = &id
	}
	res, err := f.svc.SubmitAnswer(context.Background(), f.user, q.AttemptID, q.QuestionID, optionID)
	require.NoError(t, err)
	return res
}
