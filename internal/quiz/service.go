package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/saulo-duarte/codequiz-lambda/internal/aiquiz"
	"github.com/saulo-duarte/codequiz-lambda/internal/config"
	"github.com/saulo-duarte/codequiz-lambda/internal/ratelimit"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service interface {
	StartQuiz(ctx context.Context, userID uuid.UUID, in StartQuizInput) (*AttemptView, error)
	StartFromChat(ctx context.Context, userID uuid.UUID, in ChatInput) (*AttemptView, error)
	StartAttempt(ctx context.Context, userID, quizID uuid.UUID) (*AttemptView, error)
	NextQuestion(ctx context.Context, userID, attemptID uuid.UUID) (*QuestionView, error)
	SubmitAnswer(ctx context.Context, userID, attemptID, questionID uuid.UUID, optionID *uuid.UUID) (*SubmitResult, error)
	FinishAttempt(ctx context.Context, userID, attemptID uuid.UUID) (*ResultsView, error)
	GenerateMissingExplanations(ctx context.Context, userID, attemptID uuid.UUID) (int, error)
	Results(ctx context.Context, userID, attemptID uuid.UUID) (*ResultsView, error)

	ListQuizzes(ctx context.Context, userID uuid.UUID) ([]QuizSummary, error)
	GetQuiz(ctx context.Context, userID, quizID uuid.UUID) (*QuizDetail, error)
	DeleteQuiz(ctx context.Context, userID, quizID uuid.UUID) error
}

type service struct {
	db        *gorm.DB
	repo      Repository
	generator aiquiz.Service
	limiter   ratelimit.Limiter
	now       func() time.Time
}

func NewService(db *gorm.DB, repo Repository, generator aiquiz.Service, limiter ratelimit.Limiter) Service {
	if limiter == nil {
		limiter = ratelimit.AllowAll()
	}
	return &service{
		db:        db,
		repo:      repo,
		generator: generator,
		limiter:   limiter,
		now:       time.Now,
	}
}

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// notFound maps gorm.ErrRecordNotFound to ErrNotFound and passes anything else through.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %w", what, ErrNotFound)
	}
	return err
}

// normalizeTopics trims, drops blanks and removes case-insensitive duplicates.
func normalizeTopics(topics []string) []string {
	seen := make(map[string]struct{}, len(topics))
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

func buildQuizRequest(in StartQuizInput) (aiquiz.QuizRequest, error) {
	language := strings.TrimSpace(in.Language)
	topics := normalizeTopics(in.Topics)

	if in.NumQuestions <= 0 {
		return aiquiz.QuizRequest{}, validationError("num_questions must be a positive integer")
	}
	if language == "" && len(topics) == 0 {
		return aiquiz.QuizRequest{}, validationError("at least one topic or a language is required")
	}
	level, ok := aiquiz.ParseLevel(in.Level)
	if !ok {
		return aiquiz.QuizRequest{}, validationError("unknown level %q", in.Level)
	}

	req := aiquiz.QuizRequest{
		Language:     language,
		Topic:        strings.Join(topics, ", "),
		Level:        level,
		NumQuestions: in.NumQuestions,
		IncludeCode:  in.IncludeCode,
	}
	if req.Language == "" {
		req.Language = aiquiz.DefaultLanguage
	}
	if req.Topic == "" {
		req.Topic = aiquiz.DefaultTopic
	}
	if req.NumQuestions > aiquiz.MaxQuestions {
		req.NumQuestions = aiquiz.MaxQuestions
	}
	return req, nil
}

func (s *service) checkRateLimit(ctx context.Context, userID uuid.UUID) error {
	allowed, err := s.limiter.Allow(ctx, ratelimit.GenerationKey(userID.String()))
	if err != nil {
		config.WithContext(ctx).WithError(err).Warn("Rate limiter unavailable, allowing request")
		return nil
	}
	if !allowed {
		return ErrRateLimited
	}
	return nil
}

func (s *service) StartQuiz(ctx context.Context, userID uuid.UUID, in StartQuizInput) (*AttemptView, error) {
	req, err := buildQuizRequest(in)
	if err != nil {
		return nil, err
	}
	if err := s.checkRateLimit(ctx, userID); err != nil {
		return nil, err
	}
	return s.generateAndPersist(ctx, userID, req, SourceForm, req)
}

func (s *service) StartFromChat(ctx context.Context, userID uuid.UUID, in ChatInput) (*AttemptView, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, validationError("message is required")
	}
	if err := s.checkRateLimit(ctx, userID); err != nil {
		return nil, err
	}

	intent := s.generator.ParseIntent(ctx, message)
	req, err := buildQuizRequest(StartQuizInput{
		Language:     intent.Language,
		Topics:       []string{intent.Topic},
		Level:        string(intent.Level),
		NumQuestions: intent.Count,
		IncludeCode:  in.IncludeCode,
	})
	if err != nil {
		return nil, err
	}

	audit := struct {
		Message string             `json:"message"`
		Intent  aiquiz.Intent      `json:"intent"`
		Request aiquiz.QuizRequest `json:"request"`
	}{message, intent, req}
	return s.generateAndPersist(ctx, userID, req, SourceChat, audit)
}

// generateAndPersist calls the generator and, only when it yields questions,
// stores quiz, questions, options and the first attempt in one transaction.
func (s *service) generateAndPersist(ctx context.Context, userID uuid.UUID, req aiquiz.QuizRequest, source Source, audit interface{}) (*AttemptView, error) {
	log := config.WithContext(ctx).WithFields(logrus.Fields{
		"language": req.Language,
		"topic":    req.Topic,
		"source":   source,
	})

	generated := s.generator.GenerateQuiz(ctx, req)
	if len(generated) == 0 {
		log.Warn("Quiz generation returned no questions")
		return nil, ErrGenerationFailed
	}

	requestJSON, err := json.Marshal(audit)
	if err != nil {
		return nil, fmt.Errorf("marshal quiz request: %w", err)
	}

	quiz := &Quiz{
		ID:               uuid.New(),
		UserID:           userID,
		Language:         req.Language,
		TopicDescription: req.Topic,
		Difficulty:       req.Level,
		TotalQuestions:   len(generated),
		Source:           source,
		ModelUsed:        s.generator.ModelID(),
		Request:          datatypes.JSON(requestJSON),
	}
	attempt := &Attempt{
		ID:     uuid.New(),
		QuizID: quiz.ID,
		UserID: userID,
		State:  AttemptStateInProgress,
	}

	questions := make([]*Question, 0, len(generated))
	options := make([]*Option, 0, len(generated)*aiquiz.OptionsPerQuestion)
	for i, g := range generated {
		q := &Question{
			ID:          uuid.New(),
			QuizID:      quiz.ID,
			Position:    i + 1,
			Text:        g.Text,
			Explanation: g.Explanation,
		}
		if g.CodeSnippet != "" {
			snippet := g.CodeSnippet
			q.CodeSnippet = &snippet
		}
		questions = append(questions, q)

		for j, text := range g.Options {
			options = append(options, &Option{
				ID:         uuid.New(),
				QuestionID: q.ID,
				Position:   j + 1,
				Text:       text,
				IsCorrect:  j == g.CorrectIndex,
			})
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateQuiz(ctx, quiz); err != nil {
			return fmt.Errorf("create quiz: %w", err)
		}
		if err := repo.CreateQuestions(ctx, questions); err != nil {
			return fmt.Errorf("create questions: %w", err)
		}
		if err := repo.CreateOptions(ctx, options); err != nil {
			return fmt.Errorf("create options: %w", err)
		}
		if err := repo.CreateAttempt(ctx, attempt); err != nil {
			return fmt.Errorf("create attempt: %w", err)
		}
		return nil
	})
	if err != nil {
		log.WithError(err).Error("Failed to persist generated quiz")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"quiz_id":    quiz.ID.String(),
		"attempt_id": attempt.ID.String(),
		"questions":  len(questions),
	}).Info("Quiz created")

	return s.attemptView(ctx, s.repo, attempt)
}

func (s *service) StartAttempt(ctx context.Context, userID, quizID uuid.UUID) (*AttemptView, error) {
	quiz, err := s.repo.FindQuizForUser(ctx, quizID, userID)
	if err != nil {
		return nil, notFound(err, "quiz")
	}

	attempt := &Attempt{
		QuizID: quiz.ID,
		UserID: userID,
		State:  AttemptStateInProgress,
	}
	if err := s.repo.CreateAttempt(ctx, attempt); err != nil {
		config.WithContext(ctx).WithError(err).Error("Failed to create attempt")
		return nil, err
	}

	return s.attemptView(ctx, s.repo, attempt)
}

func (s *service) attemptView(ctx context.Context, repo Repository, attempt *Attempt) (*AttemptView, error) {
	view := &AttemptView{
		AttemptID: attempt.ID,
		QuizID:    attempt.QuizID,
		State:     attempt.State,
	}

	next, err := s.nextQuestionView(ctx, repo, attempt)
	switch {
	case errors.Is(err, ErrAttemptComplete):
		view.Finished = true
	case err != nil:
		return nil, err
	default:
		view.Question = next
	}
	return view, nil
}

func (s *service) nextQuestionView(ctx context.Context, repo Repository, attempt *Attempt) (*QuestionView, error) {
	q, err := repo.NextUnansweredQuestion(ctx, attempt.QuizID, attempt.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAttemptComplete
	}
	if err != nil {
		return nil, err
	}

	total, err := repo.CountQuestions(ctx, attempt.QuizID)
	if err != nil {
		return nil, err
	}
	answered, err := repo.CountAnswers(ctx, attempt.ID)
	if err != nil {
		return nil, err
	}
	return newQuestionView(attempt.ID, q, int(answered), int(total)), nil
}

func (s *service) NextQuestion(ctx context.Context, userID, attemptID uuid.UUID) (*QuestionView, error) {
	attempt, err := s.repo.FindAttemptForUser(ctx, attemptID, userID)
	if err != nil {
		return nil, notFound(err, "attempt")
	}
	return s.nextQuestionView(ctx, s.repo, attempt)
}

func (s *service) SubmitAnswer(ctx context.Context, userID, attemptID, questionID uuid.UUID, optionID *uuid.UUID) (*SubmitResult, error) {
	log := config.WithContext(ctx).WithFields(logrus.Fields{
		"attempt_id":  attemptID.String(),
		"question_id": questionID.String(),
	})

	var result SubmitResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		attempt, err := repo.LockAttemptForUser(ctx, attemptID, userID)
		if err != nil {
			return notFound(err, "attempt")
		}
		if attempt.State != AttemptStateInProgress {
			return ErrAttemptClosed
		}

		question, err := repo.FindQuestion(ctx, attempt.QuizID, questionID)
		if err != nil {
			return notFound(err, "question")
		}

		answered, err := repo.HasAnswer(ctx, attempt.ID, question.ID)
		if err != nil {
			return err
		}
		if answered {
			return ErrAlreadyAnswered
		}

		answer := &Answer{
			AttemptID:        attempt.ID,
			QuestionID:       question.ID,
			SelectedOptionID: optionID,
		}
		if optionID != nil {
			option := findOption(question.Options, *optionID)
			if option == nil {
				return validationError("option %s does not belong to question %s", optionID, question.ID)
			}
			answer.IsCorrect = option.IsCorrect
		}

		if err := repo.CreateAnswer(ctx, answer); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyAnswered
			}
			return err
		}

		next, err := s.nextQuestionView(ctx, repo, attempt)
		switch {
		case errors.Is(err, ErrAttemptComplete):
			now := s.now()
			attempt.State = AttemptStateComplete
			attempt.CompletedAt = &now
			if err := repo.UpdateAttempt(ctx, attempt); err != nil {
				return err
			}
		case err != nil:
			return err
		}

		result = SubmitResult{
			AnswerID:  answer.ID,
			IsCorrect: answer.IsCorrect,
			Skipped:   answer.Skipped(),
			State:     attempt.State,
			Finished:  attempt.State == AttemptStateComplete,
			Next:      next,
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrValidation) && !errors.Is(err, ErrNotFound) &&
			!errors.Is(err, ErrAlreadyAnswered) && !errors.Is(err, ErrAttemptClosed) {
			log.WithError(err).Error("Failed to submit answer")
		}
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"is_correct": result.IsCorrect,
		"skipped":    result.Skipped,
		"finished":   result.Finished,
	}).Info("Answer recorded")
	return &result, nil
}

func findOption(options []Option, id uuid.UUID) *Option {
	for i := range options {
		if options[i].ID == id {
			return &options[i]
		}
	}
	return nil
}

// computeScore is round(100*correct/total), 0 for an empty quiz.
func computeScore(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}

func (s *service) FinishAttempt(ctx context.Context, userID, attemptID uuid.UUID) (*ResultsView, error) {
	log := config.WithContext(ctx).WithField("attempt_id", attemptID.String())

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		attempt, err := repo.LockAttemptForUser(ctx, attemptID, userID)
		if err != nil {
			return notFound(err, "attempt")
		}

		switch attempt.State {
		case AttemptStateInProgress:
			return ErrAttemptInProgress
		case AttemptStateScored:
			return nil
		}

		total, err := repo.CountQuestions(ctx, attempt.QuizID)
		if err != nil {
			return err
		}
		correct, err := repo.CountCorrectAnswers(ctx, attempt.ID)
		if err != nil {
			return err
		}

		now := s.now()
		attempt.Score = computeScore(int(correct), int(total))
		attempt.State = AttemptStateScored
		attempt.ScoredAt = &now
		if err := repo.UpdateAttempt(ctx, attempt); err != nil {
			return err
		}
		if err := repo.UpdateQuizScore(ctx, attempt.QuizID, attempt.Score, now); err != nil {
			return err
		}

		log.WithFields(logrus.Fields{
			"score":   attempt.Score,
			"correct": correct,
			"total":   total,
		}).Info("Attempt scored")
		return nil
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.GenerateMissingExplanations(ctx, userID, attemptID); err != nil {
		log.WithError(err).Warn("Explanation generation failed")
	}

	return s.Results(ctx, userID, attemptID)
}

func (s *service) GenerateMissingExplanations(ctx context.Context, userID, attemptID uuid.UUID) (int, error) {
	log := config.WithContext(ctx).WithField("attempt_id", attemptID.String())

	attempt, err := s.repo.FindAttemptForUser(ctx, attemptID, userID)
	if err != nil {
		return 0, notFound(err, "attempt")
	}
	if attempt.State == AttemptStateInProgress {
		return 0, ErrAttemptInProgress
	}

	answers, err := s.repo.AnswersMissingExplanation(ctx, attempt.ID)
	if err != nil {
		return 0, err
	}

	generated := 0
	for _, a := range answers {
		itemLog := log.WithField("answer_id", a.ID.String())

		if a.Question == nil || a.SelectedOption == nil {
			itemLog.Warn("Answer is missing its question or option, skipping explanation")
			continue
		}
		correct, err := s.repo.FindCorrectOption(ctx, a.QuestionID)
		if err != nil {
			itemLog.WithError(err).Warn("No correct option found for question")
			continue
		}

		text, err := s.generator.GenerateExplanation(ctx, aiquiz.ExplanationRequest{
			QuestionText:  a.Question.Text,
			UserAnswer:    a.SelectedOption.Text,
			CorrectAnswer: correct.Text,
		})
		if err != nil {
			itemLog.WithError(err).Warn("Explanation generation failed, will retry on next request")
			continue
		}

		saved, err := s.repo.SetAnswerExplanation(ctx, a.ID, text)
		if err != nil {
			itemLog.WithError(err).Error("Failed to save explanation")
			continue
		}
		if saved {
			generated++
		}
	}

	log.WithFields(logrus.Fields{
		"pending":   len(answers),
		"generated": generated,
	}).Info("Explanations generated")
	return generated, nil
}

func (s *service) Results(ctx context.Context, userID, attemptID uuid.UUID) (*ResultsView, error) {
	attempt, err := s.repo.FindAttemptForUser(ctx, attemptID, userID)
	if err != nil {
		return nil, notFound(err, "attempt")
	}

	questions, err := s.repo.ListQuestions(ctx, attempt.QuizID)
	if err != nil {
		return nil, err
	}
	answers, err := s.repo.ListAnswers(ctx, attempt.ID)
	if err != nil {
		return nil, err
	}

	byQuestion := make(map[uuid.UUID]*Answer, len(answers))
	for i := range answers {
		byQuestion[answers[i].QuestionID] = &answers[i]
	}

	view := &ResultsView{
		AttemptID: attempt.ID,
		QuizID:    attempt.QuizID,
		State:     attempt.State,
		Total:     len(questions),
		Answers:   make([]AnswerDetail, 0, len(questions)),
	}

	for i := range questions {
		q := &questions[i]
		detail := AnswerDetail{
			QuestionID:          q.ID,
			Position:            q.Position,
			QuestionText:        q.Text,
			CodeSnippet:         q.CodeSnippet,
			QuestionExplanation: q.Explanation,
		}
		for _, o := range q.Options {
			if o.IsCorrect {
				detail.CorrectAnswer = o.Text
			}
		}

		if a, ok := byQuestion[q.ID]; ok {
			detail.Answered = true
			detail.SelectedOptionID = a.SelectedOptionID
			detail.IsCorrect = a.IsCorrect
			detail.Skipped = a.Skipped()
			detail.Explanation = a.Explanation
			if a.SelectedOption != nil {
				detail.SelectedAnswer = a.SelectedOption.Text
			}

			switch {
			case a.IsCorrect:
				view.Correct++
			case detail.Skipped:
				view.Skipped++
			}
			if a.Explanation != "" {
				view.HasExplanations = true
			}
		}
		view.Answers = append(view.Answers, detail)
	}

	view.Wrong = view.Total - view.Correct - view.Skipped
	if attempt.State == AttemptStateScored {
		view.Score = attempt.Score
	} else {
		view.Score = computeScore(view.Correct, view.Total)
	}
	return view, nil
}

func (s *service) ListQuizzes(ctx context.Context, userID uuid.UUID) ([]QuizSummary, error) {
	quizzes, err := s.repo.ListQuizzesByUser(ctx, userID)
	if err != nil {
		config.WithContext(ctx).WithError(err).Error("Failed to list quizzes")
		return nil, err
	}

	summaries := make([]QuizSummary, 0, len(quizzes))
	for i := range quizzes {
		summaries = append(summaries, toQuizSummary(&quizzes[i]))
	}
	return summaries, nil
}

func (s *service) GetQuiz(ctx context.Context, userID, quizID uuid.UUID) (*QuizDetail, error) {
	quiz, err := s.repo.FindQuizForUser(ctx, quizID, userID)
	if err != nil {
		return nil, notFound(err, "quiz")
	}
	attempts, err := s.repo.ListAttempts(ctx, quiz.ID)
	if err != nil {
		return nil, err
	}

	detail := &QuizDetail{
		QuizSummary: toQuizSummary(quiz),
		Questions:   make([]QuestionSummary, 0, len(quiz.Questions)),
		Attempts:    make([]AttemptSummary, 0, len(attempts)),
	}
	for _, q := range quiz.Questions {
		detail.Questions = append(detail.Questions, QuestionSummary{
			ID:          q.ID,
			Position:    q.Position,
			Text:        q.Text,
			CodeSnippet: q.CodeSnippet,
			Options:     toOptionViews(q.Options),
		})
	}
	for _, a := range attempts {
		detail.Attempts = append(detail.Attempts, AttemptSummary{
			ID:          a.ID,
			State:       a.State,
			Score:       a.Score,
			CreatedAt:   a.CreatedAt,
			CompletedAt: a.CompletedAt,
		})
	}
	return detail, nil
}

func (s *service) DeleteQuiz(ctx context.Context, userID, quizID uuid.UUID) error {
	log := config.WithContext(ctx).WithField("quiz_id", quizID.String())

	if _, err := s.repo.FindQuizForUser(ctx, quizID, userID); err != nil {
		return notFound(err, "quiz")
	}
	if err := s.repo.DeleteQuiz(ctx, quizID); err != nil {
		log.WithError(err).Error("Failed to delete quiz")
		return err
	}

	log.Info("Quiz deleted")
	return nil
}
