package llm

import "context"

// Purpose tags a model call so the logging decorator can tell intent
// parsing, quiz generation and explanations apart.
type Purpose string

const (
	PurposeUnknown        Purpose = "unknown"
	PurposeIntent         Purpose = "intent"
	PurposeQuizGeneration Purpose = "quiz-generation"
	PurposeExplanation    Purpose = "explanation"
)

type purposeCtxKey struct{}

func WithPurpose(ctx context.Context, p Purpose) context.Context {
	return context.WithValue(ctx, purposeCtxKey{}, p)
}

func PurposeFrom(ctx context.Context) Purpose {
	if p, ok := ctx.Value(purposeCtxKey{}).(Purpose); ok && p != "" {
		return p
	}
	return PurposeUnknown
}
