package quiz

import (
	"time"

	"github.com/google/uuid"
	"github.com/saulo-duarte/codequiz-lambda/internal/aiquiz"
)

type StartQuizInput struct {
	Language     string   `json:"language"`
	Topics       []string `json:"topics"`
	Level        string   `json:"level"`
	NumQuestions int      `json:"num_questions"`
	IncludeCode  bool     `json:"include_code"`
}

type ChatInput struct {
	Message     string `json:"message"`
	IncludeCode bool   `json:"include_code"`
}

type SubmitAnswerInput struct {
	// OptionID nil means the question is skipped.
	OptionID *uuid.UUID `json:"option_id"`
}

type OptionView struct {
	ID       uuid.UUID `json:"id"`
	Position int       `json:"position"`
	Text     string    `json:"text"`
}

// QuestionView never exposes which option is correct.
type QuestionView struct {
	AttemptID   uuid.UUID    `json:"attempt_id"`
	QuestionID  uuid.UUID    `json:"question_id"`
	Position    int          `json:"position"`
	Total       int          `json:"total"`
	Progress    int          `json:"progress"`
	IsLast      bool         `json:"is_last"`
	Text        string       `json:"text"`
	CodeSnippet *string      `json:"code_snippet,omitempty"`
	Options     []OptionView `json:"options"`
}

type AttemptView struct {
	AttemptID uuid.UUID     `json:"attempt_id"`
	QuizID    uuid.UUID     `json:"quiz_id"`
	State     AttemptState  `json:"state"`
	Finished  bool          `json:"finished"`
	Question  *QuestionView `json:"question,omitempty"`
}

type SubmitResult struct {
	AnswerID  uuid.UUID     `json:"answer_id"`
	IsCorrect bool          `json:"is_correct"`
	Skipped   bool          `json:"skipped"`
	State     AttemptState  `json:"state"`
	Finished  bool          `json:"finished"`
	Next      *QuestionView `json:"next,omitempty"`
}

type AnswerDetail struct {
	QuestionID          uuid.UUID  `json:"question_id"`
	Position            int        `json:"position"`
	QuestionText        string     `json:"question_text"`
	CodeSnippet         *string    `json:"code_snippet,omitempty"`
	Answered            bool       `json:"answered"`
	SelectedOptionID    *uuid.UUID `json:"selected_option_id,omitempty"`
	SelectedAnswer      string     `json:"selected_answer,omitempty"`
	CorrectAnswer       string     `json:"correct_answer"`
	IsCorrect           bool       `json:"is_correct"`
	Skipped             bool       `json:"skipped"`
	Explanation         string     `json:"explanation,omitempty"`
	QuestionExplanation string     `json:"question_explanation,omitempty"`
}

type ResultsView struct {
	AttemptID       uuid.UUID      `json:"attempt_id"`
	QuizID          uuid.UUID      `json:"quiz_id"`
	State           AttemptState   `json:"state"`
	Score           int            `json:"score"`
	Total           int            `json:"total"`
	Correct         int            `json:"correct"`
	Wrong           int            `json:"wrong"`
	Skipped         int            `json:"skipped"`
	HasExplanations bool           `json:"has_explanations"`
	Answers         []AnswerDetail `json:"answers"`
}

type QuizSummary struct {
	ID               uuid.UUID    `json:"id"`
	Language         string       `json:"language"`
	TopicDescription string       `json:"topic_description"`
	Difficulty       aiquiz.Level `json:"difficulty"`
	TotalQuestions   int          `json:"total_questions"`
	Score            int          `json:"score"`
	Source           Source       `json:"source"`
	ModelUsed        string       `json:"model_used"`
	CreatedAt        time.Time    `json:"created_at"`
	CompletedAt      *time.Time   `json:"completed_at,omitempty"`
}

type QuestionSummary struct {
	ID          uuid.UUID    `json:"id"`
	Position    int          `json:"position"`
	Text        string       `json:"text"`
	CodeSnippet *string      `json:"code_snippet,omitempty"`
	Options     []OptionView `json:"options"`
}

type AttemptSummary struct {
	ID          uuid.UUID    `json:"id"`
	State       AttemptState `json:"state"`
	Score       int          `json:"score"`
	CreatedAt   time.Time    `json:"created_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

type QuizDetail struct {
	QuizSummary
	Questions []QuestionSummary `json:"questions"`
	Attempts  []AttemptSummary  `json:"attempts"`
}

func toQuizSummary(q *Quiz) QuizSummary {
	return QuizSummary{
		ID:               q.ID,
		Language:         q.Language,
		TopicDescription: q.TopicDescription,
		Difficulty:       q.Difficulty,
		TotalQuestions:   q.TotalQuestions,
		Score:            q.Score,
		Source:           q.Source,
		ModelUsed:        q.ModelUsed,
		CreatedAt:        q.CreatedAt,
		CompletedAt:      q.CompletedAt,
	}
}

func toOptionViews(opts []Option) []OptionView {
	views := make([]OptionView, len(opts))
	for i, o := range opts {
		views[i] = OptionView{ID: o.ID, Position: o.Position, Text: o.Text}
	}
	return views
}

// newQuestionView builds the payload for q given how many questions of the
// attempt are already answered.
func newQuestionView(attemptID uuid.UUID, q *Question, answered, total int) *QuestionView {
	progress := 0
	if total > 0 {
		progress = answered * 100 / total
	}
	return &QuestionView{
		AttemptID:   attemptID,
		QuestionID:  q.ID,
		Position:    q.Position,
		Total:       total,
		Progress:    progress,
		IsLast:      answered+1 >= total,
		Text:        q.Text,
		CodeSnippet: q.CodeSnippet,
		Options:     toOptionViews(q.Options),
	}
}
