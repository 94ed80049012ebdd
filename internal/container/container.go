package container

import (
	"context"
	"fmt"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/saulo-duarte/codequiz-lambda/internal/aiquiz"
	"github.com/saulo-duarte/codequiz-lambda/internal/auth"
	"github.com/saulo-duarte/codequiz-lambda/internal/config"
	"github.com/saulo-duarte/codequiz-lambda/internal/llm"
	"github.com/saulo-duarte/codequiz-lambda/internal/quiz"
	"github.com/saulo-duarte/codequiz-lambda/internal/ratelimit"
	"github.com/saulo-duarte/codequiz-lambda/internal/router"
	"github.com/saulo-duarte/codequiz-lambda/internal/topic"
)

type Container struct {
	Settings *config.Settings
	DB       *gorm.DB
	Redis    *goredis.Client

	AuthHandler     *auth.Handler
	AIQuizContainer *aiquiz.AIQuizContainer
	QuizContainer   *quiz.QuizContainer
	TopicContainer  *topic.TopicContainer
}

// New connects the database, the model provider and the rate limiter and
// builds every feature container.
func New(ctx context.Context, settings *config.Settings) (*Container, error) {
	config.InitLogger(settings.LogLevel, settings.LogFormat)
	auth.Init(settings.JWTSecret)

	db, err := config.Connect(ctx, settings.DatabaseDriver, settings.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	c := &Container{
		Settings: settings,
		DB:       db,
		AuthHandler: auth.NewHandler(auth.CookiePolicy{
			Domain: settings.CookieDomain,
			Secure: settings.CookieSecure,
		}),
	}

	provider, err := llm.NewProvider(ctx, LLMConfig(settings))
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}

	limiter := ratelimit.AllowAll()
	if settings.RedisAddr != "" && settings.RateLimitPerHour > 0 {
		rdb, err := ratelimit.Connect(ctx, settings.RedisAddr, settings.RedisPassword)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		c.Redis = rdb
		limiter = ratelimit.NewRedisLimiter(rdb, settings.RateLimitPerHour, time.Hour)
	} else {
		config.WithContext(ctx).Info("Quiz generation rate limiting disabled")
	}

	c.AIQuizContainer = aiquiz.NewAIQuizContainer(provider, limiter)
	c.QuizContainer = quiz.NewQuizContainer(db, c.AIQuizContainer.Service, limiter)
	c.TopicContainer = topic.NewTopicContainer(db)

	config.WithContext(ctx).WithField("llm_model", provider.ModelID()).Info("Container ready")
	return c, nil
}

func LLMConfig(s *config.Settings) llm.Config {
	return llm.Config{
		Provider: s.LLMProvider,
		Gemini: llm.GeminiConfig{
			APIKey: s.GeminiAPIKey,
			Model:  s.GeminiModel,
		},
		OpenAI: llm.OpenAIConfig{
			APIKey:  s.OpenAIAPIKey,
			Model:   s.OpenAIModel,
			BaseURL: s.OpenAIBaseURL,
		},
		Anthropic: llm.AnthropicConfig{
			APIKey: s.AnthropicAPIKey,
			Model:  s.AnthropicModel,
		},
		Timeout: s.LLMTimeout,
	}
}

// Migrate creates or updates every table and seeds the topic catalog.
func Migrate(ctx context.Context, db *gorm.DB) error {
	models := append(quiz.Models(), &topic.Topic{})
	if err := db.WithContext(ctx).AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if _, err := topic.NewService(topic.NewRepository(db)).Seed(ctx); err != nil {
		return fmt.Errorf("seed topics: %w", err)
	}
	return nil
}

func (c *Container) Router() http.Handler {
	return router.New(router.RouterConfig{
		AuthHandler:   c.AuthHandler,
		AIQuizHandler: c.AIQuizContainer.Handler,
		QuizHandler:   c.QuizContainer.Handler,
		TopicHandler:  c.TopicContainer.Handler,
	})
}

func (c *Container) Close() error {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
