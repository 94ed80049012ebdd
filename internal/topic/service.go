package topic

import (
	"context"
	"sort"
	"strings"

	"github.com/saulo-duarte/codequiz-lambda/internal/config"
)

type Service interface {
	List(ctx context.Context, language string) ([]Topic, error)
	Seed(ctx context.Context) (int64, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// List returns every topic when language is blank.
func (s *service) List(ctx context.Context, language string) ([]Topic, error) {
	topics, err := s.repo.List(ctx, strings.ToLower(strings.TrimSpace(language)))
	if err != nil {
		config.WithContext(ctx).WithError(err).Error("Failed to list topics")
		return nil, err
	}
	return topics, nil
}

// Seed inserts the default catalog. Running it again adds nothing.
func (s *service) Seed(ctx context.Context) (int64, error) {
	languages := make([]string, 0, len(defaultCatalog))
	for lang := range defaultCatalog {
		languages = append(languages, lang)
	}
	sort.Strings(languages)

	var topics []Topic
	for _, lang := range languages {
		for _, name := range defaultCatalog[lang] {
			topics = append(topics, Topic{Language: lang, Name: name})
		}
	}

	n, err := s.repo.InsertMissing(ctx, topics)
	if err != nil {
		config.WithContext(ctx).WithError(err).Error("Failed to seed topics")
		return 0, err
	}

	config.WithContext(ctx).WithField("inserted", n).Info("Topic catalog seeded")
	return n, nil
}
