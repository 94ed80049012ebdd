// Package ratelimit caps how often a user can trigger AI generation.
package ratelimit

import "context"

type Limiter interface {
	// Allow records one hit for key and reports whether it is within quota.
	// On backend errors it returns true together with the error.
	Allow(ctx context.Context, key string) (bool, error)
}

type allowAll struct{}

// AllowAll never rejects. Used when no Redis is configured or the quota is 0.
func AllowAll() Limiter {
	return allowAll{}
}

func (allowAll) Allow(context.Context, string) (bool, error) {
	return true, nil
}

// GenerationKey is the shared quota bucket for every endpoint that calls the
// model on a user's behalf.
func GenerationKey(userID string) string {
	return "quiz-generation:" + userID
}
