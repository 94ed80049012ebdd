package quiz

type AttemptState string

const (
	AttemptStateInProgress AttemptState = "IN_PROGRESS"
	AttemptStateComplete   AttemptState = "COMPLETE"
	AttemptStateScored     AttemptState = "SCORED"
)

type Source string

const (
	SourceForm Source = "form"
	SourceChat Source = "chat"
)
