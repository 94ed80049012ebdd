package quiz

import (
	"time"

	"github.com/google/uuid"
	"github.com/saulo-duarte/codequiz-lambda/internal/aiquiz"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Quiz struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Language         string         `gorm:"type:text;not null" json:"language"`
	TopicDescription string         `gorm:"type:text;not null" json:"topic_description"`
	Difficulty       aiquiz.Level   `gorm:"type:varchar(20);not null" json:"difficulty"`
	TotalQuestions   int            `gorm:"not null;default:0" json:"total_questions"`
	Score            int            `gorm:"not null;default:0" json:"score"`
	Source           Source         `gorm:"type:varchar(10);not null;default:'form'" json:"source"`
	ModelUsed        string         `gorm:"type:text" json:"model_used"`
	Request          datatypes.JSON `json:"request,omitempty"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	CompletedAt      *time.Time     `json:"completed_at,omitempty"`

	Questions []Question `gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
}

func (Quiz) TableName() string { return "quizzes" }

func (q *Quiz) BeforeCreate(*gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

type Question struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	QuizID      uuid.UUID `gorm:"type:uuid;not null;index" json:"quiz_id"`
	Position    int       `gorm:"not null" json:"position"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	CodeSnippet *string   `gorm:"type:text" json:"code_snippet,omitempty"`
	Explanation string    `gorm:"type:text;not null;default:''" json:"explanation,omitempty"`

	Options []Option `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"options,omitempty"`
}

func (Question) TableName() string { return "quiz_questions" }

func (q *Question) BeforeCreate(*gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

type Option struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;index" json:"question_id"`
	Position   int       `gorm:"not null" json:"position"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	IsCorrect  bool      `gorm:"not null;default:false" json:"-"`
}

func (Option) TableName() string { return "quiz_options" }

func (o *Option) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

type Attempt struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	QuizID      uuid.UUID    `gorm:"type:uuid;not null;index" json:"quiz_id"`
	UserID      uuid.UUID    `gorm:"type:uuid;not null;index" json:"user_id"`
	State       AttemptState `gorm:"type:varchar(20);not null;default:'IN_PROGRESS'" json:"state"`
	Score       int          `gorm:"not null;default:0" json:"score"`
	CreatedAt   time.Time    `gorm:"autoCreateTime" json:"created_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	ScoredAt    *time.Time   `json:"scored_at,omitempty"`
}

func (Attempt) TableName() string { return "quiz_attempts" }

func (a *Attempt) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Answer is unique per (attempt, question). A nil SelectedOptionID is a skip.
type Answer struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AttemptID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_answer_attempt_question" json:"attempt_id"`
	QuestionID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_answer_attempt_question" json:"question_id"`
	SelectedOptionID *uuid.UUID `gorm:"type:uuid" json:"selected_option_id,omitempty"`
	IsCorrect        bool       `gorm:"not null;default:false" json:"is_correct"`
	Explanation      string     `gorm:"type:text;not null;default:''" json:"explanation,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`

	Question       *Question `gorm:"foreignKey:QuestionID" json:"-"`
	SelectedOption *Option   `gorm:"foreignKey:SelectedOptionID" json:"-"`
}

func (Answer) TableName() string { return "quiz_answers" }

func (a *Answer) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (a *Answer) Skipped() bool {
	return a.SelectedOptionID == nil
}

// Models lists every table owned by this package, in migration order.
func Models() []interface{} {
	return []interface{}{&Quiz{}, &Question{}, &Option{}, &Attempt{}, &Answer{}}
}
