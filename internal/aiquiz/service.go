package aiquiz

import (
	"context"
	"errors"
	"strings"

	"github.com/saulo-duarte/codequiz-lambda/internal/config"
	"github.com/saulo-duarte/codequiz-lambda/internal/llm"
	"github.com/sirupsen/logrus"
)

type Service interface {
	// ParseIntent never fails; missing pieces fall back to DefaultIntent.
	ParseIntent(ctx context.Context, message string) Intent
	// GenerateQuiz returns no questions when the model call or its reply is unusable.
	GenerateQuiz(ctx context.Context, req QuizRequest) []GeneratedQuestion
	// GenerateExplanation always returns displayable text. A non-nil error
	// means the text is ExplanationFallback and should not be stored.
	GenerateExplanation(ctx context.Context, req ExplanationRequest) (string, error)
	ModelID() string
}

type service struct {
	provider llm.Provider
}

func NewService(provider llm.Provider) Service {
	return &service{provider: provider}
}

func (s *service) ModelID() string {
	return s.provider.ModelID()
}

func (s *service) ParseIntent(ctx context.Context, message string) Intent {
	log := config.WithContext(ctx)
	ctx = llm.WithPurpose(ctx, llm.PurposeIntent)

	raw, err := s.provider.Generate(ctx, llm.Request{Prompt: BuildIntentPrompt(message), JSON: true})
	if err != nil {
		log.WithError(err).Warn("[AIQUIZ] Intent parsing failed, using defaults")
		return DefaultIntent()
	}

	intent, err := parseIntent(raw)
	if err != nil {
		log.WithError(err).Warn("[AIQUIZ] Intent reply unusable, using defaults")
	}
	return intent
}

func (s *service) GenerateQuiz(ctx context.Context, req QuizRequest) []GeneratedQuestion {
	log := config.WithContext(ctx).WithFields(logrus.Fields{
		"language":      req.Language,
		"topic":         req.Topic,
		"level":         req.Level,
		"num_questions": req.NumQuestions,
	})
	ctx = llm.WithPurpose(ctx, llm.PurposeQuizGeneration)

	req.NumQuestions = clampCount(req.NumQuestions)

	raw, err := s.provider.Generate(ctx, llm.Request{Prompt: BuildQuizPrompt(req), JSON: true})
	if err != nil {
		log.WithError(err).Error("[AIQUIZ] Quiz generation call failed")
		return []GeneratedQuestion{}
	}

	questions, err := parseQuiz(raw, req.NumQuestions)
	if err != nil {
		log.WithError(err).Error("[AIQUIZ] Quiz reply rejected")
		log.Debugf("[AIQUIZ] Rejected reply:\n%s", raw)
		return []GeneratedQuestion{}
	}

	log.Infof("[AIQUIZ] Generated %d questions", len(questions))
	return questions
}

func (s *service) GenerateExplanation(ctx context.Context, req ExplanationRequest) (string, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeExplanation)

	raw, err := s.provider.Generate(ctx, llm.Request{Prompt: BuildExplanationPrompt(req), JSON: true})
	if err != nil {
		return ExplanationFallback, err
	}

	text, err := parseExplanation(raw)
	if err != nil {
		return ExplanationFallback, err
	}
	return text, nil
}

var errBlankMessage = errors.New("message is required")

// Validate trims the request and fills defaults for the preview endpoint.
func (r *QuizRequest) Validate() error {
	r.Language = strings.TrimSpace(r.Language)
	r.Topic = strings.TrimSpace(r.Topic)
	if r.Language == "" && r.Topic == "" {
		return errors.New("language or topic is required")
	}
	if r.Language == "" {
		r.Language = DefaultLanguage
	}
	if r.Topic == "" {
		r.Topic = DefaultTopic
	}

	level, ok := ParseLevel(string(r.Level))
	if !ok {
		return errors.New("level must be beginner, intermediate or expert")
	}
	r.Level = level

	if r.NumQuestions <= 0 {
		r.NumQuestions = DefaultNumQuestions
	}
	r.NumQuestions = clampCount(r.NumQuestions)
	return nil
}
