package quiz

import "errors"

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrGenerationFailed  = errors.New("quiz generation failed, please try again")
	ErrAlreadyAnswered   = errors.New("question already answered")
	ErrAttemptComplete   = errors.New("attempt has no unanswered questions")
	ErrAttemptClosed     = errors.New("attempt is no longer accepting answers")
	ErrAttemptInProgress = errors.New("attempt still has unanswered questions")
	ErrRateLimited       = errors.New("quiz generation limit reached, try again later")
)
