package quiz

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/saulo-duarte/codequiz-lambda/internal/aiquiz"
	"github.com/saulo-duarte/codequiz-lambda/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartQuiz(t *testing.T) {
	ctx := context.Background()

	t.Run("PersistsQuizAndFirstAttempt", func(t *testing.T) {
		f := newFixture(t, nil)
		view := f.start(t, 3)

		assert.Equal(t, AttemptStateInProgress, view.State)
		assert.False(t, view.Finished)
		q := view.Question
		assert.Equal(t, 1, q.Position)
		assert.Equal(t, 3, q.Total)
		assert.Equal(t, 0, q.Progress)
		assert.False(t, q.IsLast)
		assert.Equal(t, "Question 1?", q.Text)
		require.Len(t, q.Options, 4)

		assert.EqualValues(t, 1, f.count(t, &Quiz{}))
		assert.EqualValues(t, 3, f.count(t, &Question{}))
		assert.EqualValues(t, 12, f.count(t, &Option{}))
		assert.EqualValues(t, 1, f.count(t, &Attempt{}))
		assert.EqualValues(t, 0, f.count(t, &Answer{}))

		var quiz Quiz
		require.NoError(t, f.db.First(&quiz).Error)
		assert.Equal(t, 3, quiz.TotalQuestions)
		assert.Equal(t, aiquiz.LevelIntermediate, quiz.Difficulty)
		assert.Equal(t, "Decorators", quiz.TopicDescription)
		assert.Equal(t, SourceForm, quiz.Source)
		assert.Equal(t, "mock", quiz.ModelUsed)
		assert.Contains(t, string(quiz.Request), `"num_questions":3`)

		var correct int64
		require.NoError(t, f.db.Model(&Option{}).Where("is_correct = ?", true).Count(&correct).Error)
		assert.EqualValues(t, 3, correct)

		next, err := f.svc.NextQuestion(ctx, f.user, view.AttemptID)
		require.NoError(t, err)
		assert.Equal(t, q.QuestionID, next.QuestionID)
	})

	t.Run("GenerationFailureWritesNothing", func(t *testing.T) {
		f := newFixture(t, nil, llm.MockResponse{Err: &llm.ErrProviderUnavailable{}})

		_, err := f.svc.StartQuiz(ctx, f.user, StartQuizInput{Language: "Go", NumQuestions: 2})
		assert.ErrorIs(t, err, ErrGenerationFailed)

		assert.EqualValues(t, 0, f.count(t, &Quiz{}))
		assert.EqualValues(t, 0, f.count(t, &Question{}))
		assert.EqualValues(t, 0, f.count(t, &Option{}))
		assert.EqualValues(t, 0, f.count(t, &Attempt{}))
	})

	t.Run("InvalidReplyWritesNothing", func(t *testing.T) {
		f := newFixture(t, nil, llm.MockResponse{Text: "Here is your quiz: ..."})

		_, err := f.svc.StartQuiz(ctx, f.user, StartQuizInput{Topics: []string{"Maps"}, NumQuestions: 2})
		assert.ErrorIs(t, err, ErrGenerationFailed)
		assert.EqualValues(t, 0, f.count(t, &Quiz{}))
	})

	t.Run("Validation", func(t *testing.T) {
		f := newFixture(t, nil)

		cases := []StartQuizInput{
			{Language: "Go", NumQuestions: 0},
			{Language: "Go", NumQuestions: -2},
			{Topics: []string{" ", ""}, NumQuestions: 3},
			{Language: "Go", Level: "wizard", NumQuestions: 3},
		}
		for _, in := range cases {
			_, err := f.svc.StartQuiz(ctx, f.user, in)
			assert.ErrorIs(t, err, ErrValidation, "%+v", in)
		}
		assert.Equal(t, 0, f.mock.CallCount())
	})

	t.Run("NormalizesInput", func(t *testing.T) {
		f := newFixture(t, nil, llm.MockResponse{Text: quizJSON(10)})

		_, err := f.svc.StartQuiz(ctx, f.user, StartQuizInput{
			Topics:       []string{" Closures ", "closures", "Scope"},
			NumQuestions: 40,
		})
		require.NoError(t, err)

		prompt := f.mock.Calls[0].Prompt
		assert.Contains(t, prompt, "The specific topic is: Closures, Scope.")
		assert.Contains(t, prompt, "in General Programming.")
		assert.Contains(t, prompt, "Generate exactly 10 questions.")
	})

	t.Run("RateLimited", func(t *testing.T) {
		f := newFixture(t, denyLimiter{})

		_, err := f.svc.StartQuiz(ctx, f.user, StartQuizInput{Language: "Go", NumQuestions: 2})
		assert.ErrorIs(t, err, ErrRateLimited)
		assert.Equal(t, 0, f.mock.CallCount())
	})
}

func TestStartFromChat(t *testing.T) {
	ctx := context.Background()

	t.Run("UsesParsedIntent", func(t *testing.T) {
		f := newFixture(t, nil,
			llm.MockResponse{Text: `{"language":"JavaScript","topic":"Closures","level":"Expert","count":2}`},
			llm.MockResponse{Text: quizJSON(2)},
		)

		view, err := f.svc.StartFromChat(ctx, f.user, ChatInput{Message: "hard JS closures, two questions"})
		require.NoError(t, err)
		assert.Equal(t, 2, view.Question.Total)

		var quiz Quiz
		require.NoError(t, f.db.First(&quiz).Error)
		assert.Equal(t, SourceChat, quiz.Source)
		assert.Equal(t, "JavaScript", quiz.Language)
		assert.Equal(t, aiquiz.LevelExpert, quiz.Difficulty)
		assert.Contains(t, string(quiz.Request), "hard JS closures")
	})

	t.Run("IntentFailureFallsBackToDefaults", func(t *testing.T) {
		f := newFixture(t, nil,
			llm.MockResponse{Err: &llm.ErrRateLimit{}},
			llm.MockResponse{Text: quizJSON(5)},
		)

		_, err := f.svc.StartFromChat(ctx, f.user, ChatInput{Message: "quiz me"})
		require.NoError(t, err)

		var quiz Quiz
		require.NoError(t, f.db.First(&quiz).Error)
		assert.Equal(t, aiquiz.DefaultLanguage, quiz.Language)
		assert.Equal(t, aiquiz.DefaultTopic, quiz.TopicDescription)
		assert.Equal(t, 5, quiz.TotalQuestions)
	})

	t.Run("BlankMessage", func(t *testing.T) {
		f := newFixture(t, nil)

		_, err := f.svc.StartFromChat(ctx, f.user, ChatInput{Message: "   "})
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, 0, f.mock.CallCount())
	})
}

func TestSubmitAnswer(t *testing.T) {
	ctx := context.Background()

	t.Run("RejectsOptionFromAnotherQuestion", func(t *testing.T) {
		f := newFixture(t, nil)
		view := f.start(t, 2)

		detail, err := f.svc.GetQuiz(ctx, f.user, view.QuizID)
		require.NoError(t, err)
		foreign := detail.Questions[1].Options[0].ID

		_, err = f.svc.SubmitAnswer(ctx, f.user, view.AttemptID, view.Question.QuestionID, &foreign)
		assert.ErrorIs(t, err, ErrValidation)
		assert.EqualValues(t, 0, f.count(t, &Answer{}))
	})

	t.Run("NeverRepeatsQuestions", func(t *testing.T) {
		f := newFixture(t, nil)
		view := f.start(t, 2)
		first := view.Question

		res := f.submit(t, first, 2)
		assert.True(t, res.IsCorrect)
		assert.False(t, res.Finished)
		require.NotNil(t, res.Next)
		assert.Equal(t, 2, res.Next.Position)
		assert.Equal(t, 50, res.Next.Progress)
		assert.True(t, res.Next.IsLast)

		next, err := f.svc.NextQuestion(ctx, f.user, view.AttemptID)
		require.NoError(t, err)
		assert.NotEqual(t, first.QuestionID, next.QuestionID)

		_, err = f.svc.SubmitAnswer(ctx, f.user, view.AttemptID, first.QuestionID, nil)
		assert.ErrorIs(t, err, ErrAlreadyAnswered)

		res = f.submit(t, next, 1)
		assert.False(t, res.IsCorrect)
		assert.True(t, res.Finished)
		assert.Nil(t, res.Next)
		assert.Equal(t, AttemptStateComplete, res.State)

		_, err = f.svc.NextQuestion(ctx, f.user, view.AttemptID)
		assert.ErrorIs(t, err, ErrAttemptComplete)

		_, err = f.svc.SubmitAnswer(ctx, f.user, view.AttemptID, next.QuestionID, nil)
		assert.ErrorIs(t, err, ErrAttemptClosed)

		assert.EqualValues(t, 2, f.count(t, &Answer{}))
	})

	t.Run("UnknownQuestion", func(t *testing.T) {
		f := newFixture(t, nil)
		view := f.start(t, 1)

		_, err := f.svc.SubmitAnswer(ctx, f.user, view.AttemptID, uuid.New(), nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("OtherUsersAttempt", func(t *testing.T) {
		f := newFixture(t, nil)
		view := f.start(t, 1)

		_, err := f.svc.SubmitAnswer(ctx, uuid.New(), view.AttemptID, view.Question.QuestionID, nil)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = f.svc.NextQuestion(ctx, uuid.New(), view.AttemptID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("DuplicateRowRejectedByIndex", func(t *testing.T) {
		f := newFixture(t, nil)
		view := f.start(t, 1)

		a := &Answer{AttemptID: view.AttemptID, QuestionID: view.Question.QuestionID}
		require.NoError(t, NewRepository(f.db).CreateAnswer(ctx, a))

		err := NewRepository(f.db).CreateAnswer(ctx, &Answer{AttemptID: view.AttemptID, QuestionID: view.Question.QuestionID})
		assert.Error(t, err)
	})
}

func TestFinishAttempt(t *testing.T) {
	ctx := context.Background()

	t.Run("ScoresAndExplains", func(t *testing.T) {
		f := newFixture(t, nil)
		view := f.start(t, 4)

		q := view.Question
		res := f.submit(t, q, 2) // correct
		res = f.submit(t, res.Next, 1)
		res = f.submit(t, res.Next, 3)
		res = f.submit(t, res.Next, 0) // skipped
		require.True(t, res.Finished)
		assert.True(t, res.Skipped)

		_, err := f.svc.GenerateMissingExplanations(ctx, f.user, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)

		f.mock.AddResponse(llm.MockResponse{Text: explanationJSON("You selected alpha, but beta is right.")})
		f.mock.AddResponse(llm.MockResponse{Text: explanationJSON("You selected gamma, but beta is right.")})

		results, err := f.svc.FinishAttempt(ctx, f.user, view.AttemptID)
		require.NoError(t, err)

		assert.Equal(t, AttemptStateScored, results.State)
		assert.Equal(t, 4, results.Total)
		assert.Equal(t, 1, results.Correct)
		assert.Equal(t, 1, results.Skipped)
		assert.Equal(t, 2, results.Wrong)
		assert.Equal(t, 25, results.Score)
		assert.True(t, results.HasExplanations)

		require.Len(t, results.Answers, 4)
		assert.Equal(t, "beta", results.Answers[0].CorrectAnswer)
		assert.Empty(t, results.Answers[0].Explanation)
		assert.Equal(t, "alpha", results.Answers[1].SelectedAnswer)
		assert.Equal(t, "You selected alpha, but beta is right.", results.Answers[1].Explanation)
		assert.Equal(t, "You selected gamma, but beta is right.", results.Answers[2].Explanation)
		assert.True(t, results.Answers[3].Skipped)
		assert.Empty(t, results.Answers[3].Explanation)

		explainCall := f.mock.Calls[1].Prompt
		assert.Contains(t, explainCall, `User's wrong answer: "alpha"`)
		assert.Contains(t, explainCall, `Correct answer: "beta"`)

		var quiz Quiz
		require.NoError(t, f.db.First(&quiz, "id = ?", view.QuizID).Error)
		assert.Equal(t, 25, quiz.Score)
		assert.NotNil(t, quiz.CompletedAt)

		again, err := f.svc.FinishAttempt(ctx, f.user, view.AttemptID)
		require.NoError(t, err)
		assert.Equal(t, 25, again.Score)
		assert.Equal(t, 3, f.mock.CallCount())
	})

	t.Run("InProgress", func(t *testing.T) {
		f := newFixture(t, nil)
		view := f.start(t, 2)

		_, err := f.svc.FinishAttempt(ctx, f.user, view.AttemptID)
		assert.ErrorIs(t, err, ErrAttemptInProgress)

		_, err = f.svc.GenerateMissingExplanations(ctx, f.user, view.AttemptID)
		assert.ErrorIs(t, err, ErrAttemptInProgress)
	})

	t.Run("ExplanationRetryIsIdempotent", func(t *testing.T) {
		f := newFixture(t, nil)
		view := f.start(t, 2)

		res := f.submit(t, view.Question, 1)
		f.submit(t, res.Next, 4)

		f.mock.AddResponse(llm.MockResponse{Err: &llm.ErrProviderUnavailable{}})
		f.mock.AddResponse(llm.MockResponse{Text: explanationJSON("Second one.")})

		results, err := f.svc.FinishAttempt(ctx, f.user, view.AttemptID)
		require.NoError(t, err)
		assert.Equal(t, 0, results.Score)
		assert.Empty(t, results.Answers[0].Explanation)
		assert.Equal(t, "Second one.", results.Answers[1].Explanation)

		f.mock.AddResponse(llm.MockResponse{Text: explanationJSON("First one.")})
		n, err := f.svc.GenerateMissingExplanations(ctx, f.user, view.AttemptID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		calls := f.mock.CallCount()
		n, err = f.svc.GenerateMissingExplanations(ctx, f.user, view.AttemptID)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
		assert.Equal(t, calls, f.mock.CallCount())

		results, err = f.svc.Results(ctx, f.user, view.AttemptID)
		require.NoError(t, err)
		assert.Equal(t, "First one.", results.Answers[0].Explanation)
		assert.Equal(t, "Second one.", results.Answers[1].Explanation)
	})
}

func TestComputeScore(t *testing.T) {
	tests := []struct {
		correct, total, want int
	}{
		{0, 0, 0},
		{3, 0, 0},
		{1, 4, 25},
		{1, 3, 33},
		{2, 3, 67},
		{5, 5, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, computeScore(tt.correct, tt.total), "%d/%d", tt.correct, tt.total)
	}
}

func TestResultsBeforeFinish(t *testing.T) {
	f := newFixture(t, nil)
	view := f.start(t, 3)
	f.submit(t, view.Question, 2)

	results, err := f.svc.Results(context.Background(), f.user, view.AttemptID)
	require.NoError(t, err)

	assert.Equal(t, AttemptStateInProgress, results.State)
	assert.Equal(t, 1, results.Correct)
	assert.Equal(t, 0, results.Skipped)
	assert.Equal(t, 2, results.Wrong)
	assert.Equal(t, 33, results.Score)
	assert.False(t, results.HasExplanations)
	assert.False(t, results.Answers[2].Answered)
}

func TestQuizManagement(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t, nil)
	first := f.start(t, 2)
	f.start(t, 1)

	quizzes, err := f.svc.ListQuizzes(ctx, f.user)
	require.NoError(t, err)
	assert.Len(t, quizzes, 2)

	others, err := f.svc.ListQuizzes(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, others)

	retake, err := f.svc.StartAttempt(ctx, f.user, first.QuizID)
	require.NoError(t, err)
	assert.NotEqual(t, first.AttemptID, retake.AttemptID)
	assert.Equal(t, 1, retake.Question.Position)

	detail, err := f.svc.GetQuiz(ctx, f.user, first.QuizID)
	require.NoError(t, err)
	assert.Len(t, detail.Questions, 2)
	assert.Len(t, detail.Attempts, 2)
	assert.Equal(t, []int{1, 2, 3, 4}, []int{
		detail.Questions[0].Options[0].Position,
		detail.Questions[0].Options[1].Position,
		detail.Questions[0].Options[2].Position,
		detail.Questions[0].Options[3].Position,
	})

	_, err = f.svc.StartAttempt(ctx, uuid.New(), first.QuizID)
	assert.ErrorIs(t, err, ErrNotFound)

	f.submit(t, retake.Question, 2)

	assert.ErrorIs(t, f.svc.DeleteQuiz(ctx, uuid.New(), first.QuizID), ErrNotFound)
	require.NoError(t, f.svc.DeleteQuiz(ctx, f.user, first.QuizID))

	_, err = f.svc.GetQuiz(ctx, f.user, first.QuizID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualValues(t, 1, f.count(t, &Quiz{}))
	assert.EqualValues(t, 1, f.count(t, &Question{}))
	assert.EqualValues(t, 4, f.count(t, &Option{}))
	assert.EqualValues(t, 1, f.count(t, &Attempt{}))
	assert.EqualValues(t, 0, f.count(t, &Answer{}))
}
