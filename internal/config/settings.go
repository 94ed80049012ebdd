package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Settings struct {
	Port         string `mapstructure:"port"`
	CookieDomain string `mapstructure:"cookie_domain"`
	CookieSecure bool   `mapstructure:"cookie_secure"`
	JWTSecret    string `mapstructure:"jwt_secret"`

	DatabaseDriver string `mapstructure:"database_driver"`
	DatabaseDSN    string `mapstructure:"database_dsn"`

	LLMProvider     string        `mapstructure:"llm_provider"`
	LLMTimeout      time.Duration `mapstructure:"llm_timeout"`
	GeminiAPIKey    string        `mapstructure:"gemini_api_key"`
	GeminiModel     string        `mapstructure:"gemini_model"`
	OpenAIAPIKey    string        `mapstructure:"openai_api_key"`
	OpenAIModel     string        `mapstructure:"openai_model"`
	OpenAIBaseURL   string        `mapstructure:"openai_base_url"`
	AnthropicAPIKey string        `mapstructure:"anthropic_api_key"`
	AnthropicModel  string        `mapstructure:"anthropic_model"`

	RedisAddr        string `mapstructure:"redis_addr"`
	RedisPassword    string `mapstructure:"redis_password"`
	RateLimitPerHour int    `mapstructure:"rate_limit_per_hour"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

var defaults = map[string]interface{}{
	"port":                "8080",
	"cookie_domain":       "",
	"cookie_secure":       true,
	"jwt_secret":          "",
	"database_driver":     "postgres",
	"database_dsn":        "",
	"llm_provider":        "gemini",
	"llm_timeout":         "60s",
	"gemini_api_key":      "",
	"gemini_model":        "gemini-flash-lite",
	"openai_api_key":      "",
	"openai_model":        "gpt-4o-mini",
	"openai_base_url":     "",
	"anthropic_api_key":   "",
	"anthropic_model":     "claude-haiku",
	"redis_addr":          "",
	"redis_password":      "",
	"rate_limit_per_hour": 20,
	"log_level":           "info",
	"log_format":          "json",
}

// Load reads settings from the environment and, when configFile is set,
// from that file. Environment variables win over file values.
func Load(configFile string) (*Settings, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Settings) Validate() error {
	if s.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	s.DatabaseDriver = strings.ToLower(strings.TrimSpace(s.DatabaseDriver))
	switch s.DatabaseDriver {
	case "postgres":
		if s.DatabaseDSN == "" {
			return errors.New("DATABASE_DSN is required for the postgres driver")
		}
	case "sqlite":
		if s.DatabaseDSN == "" {
			s.DatabaseDSN = "codequiz.db"
		}
	default:
		return fmt.Errorf("unknown DATABASE_DRIVER %q", s.DatabaseDriver)
	}

	if s.LLMTimeout <= 0 {
		s.LLMTimeout = 60 * time.Second
	}
	if s.RateLimitPerHour < 0 {
		return errors.New("RATE_LIMIT_PER_HOUR must not be negative")
	}
	return nil
}
