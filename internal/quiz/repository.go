package quiz

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	// WithTx returns a Repository bound to tx.
	WithTx(tx *gorm.DB) Repository

	CreateQuiz(ctx context.Context, q *Quiz) error
	CreateQuestions(ctx context.Context, questions []*Question) error
	CreateOptions(ctx context.Context, options []*Option) error
	FindQuizForUser(ctx context.Context, id, userID uuid.UUID) (*Quiz, error)
	ListQuizzesByUser(ctx context.Context, userID uuid.UUID) ([]Quiz, error)
	UpdateQuizScore(ctx context.Context, quizID uuid.UUID, score int, completedAt time.Time) error
	DeleteQuiz(ctx context.Context, id uuid.UUID) error

	ListQuestions(ctx context.Context, quizID uuid.UUID) ([]Question, error)
	CountQuestions(ctx context.Context, quizID uuid.UUID) (int64, error)
	FindQuestion(ctx context.Context, quizID, questionID uuid.UUID) (*Question, error)
	NextUnansweredQuestion(ctx context.Context, quizID, attemptID uuid.UUID) (*Question, error)
	FindCorrectOption(ctx context.Context, questionID uuid.UUID) (*Option, error)

	CreateAttempt(ctx context.Context, a *Attempt) error
	FindAttemptForUser(ctx context.Context, id, userID uuid.UUID) (*Attempt, error)
	LockAttemptForUser(ctx context.Context, id, userID uuid.UUID) (*Attempt, error)
	ListAttempts(ctx context.Context, quizID uuid.UUID) ([]Attempt, error)
	UpdateAttempt(ctx context.Context, a *Attempt) error

	CreateAnswer(ctx context.Context, a *Answer) error
	HasAnswer(ctx context.Context, attemptID, questionID uuid.UUID) (bool, error)
	CountAnswers(ctx context.Context, attemptID uuid.UUID) (int64, error)
	CountCorrectAnswers(ctx context.Context, attemptID uuid.UUID) (int64, error)
	ListAnswers(ctx context.Context, attemptID uuid.UUID) ([]Answer, error)
	AnswersMissingExplanation(ctx context.Context, attemptID uuid.UUID) ([]Answer, error)
	SetAnswerExplanation(ctx context.Context, answerID uuid.UUID, text string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *repository) CreateQuiz(ctx context.Context, q *Quiz) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(q).Error
}

func (r *repository) CreateQuestions(ctx context.Context, questions []*Question) error {
	if len(questions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(&questions).Error
}

func (r *repository) CreateOptions(ctx context.Context, options []*Option) error {
	if len(options) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&options).Error
}

func (r *repository) FindQuizForUser(ctx context.Context, id, userID uuid.UUID) (*Quiz, error) {
	var q Quiz
	err := r.db.WithContext(ctx).
		Preload("Questions", byPosition).
		Preload("Questions.Options", byPosition).
		First(&q, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *repository) ListQuizzesByUser(ctx context.Context, userID uuid.UUID) ([]Quiz, error) {
	var quizzes []Quiz
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&quizzes).Error; err != nil {
		return nil, err
	}
	return quizzes, nil
}

func (r *repository) UpdateQuizScore(ctx context.Context, quizID uuid.UUID, score int, completedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&Quiz{}).
		Where("id = ?", quizID).
		Updates(map[string]interface{}{
			"score":        score,
			"completed_at": completedAt,
		}).Error
}

// DeleteQuiz removes the quiz and everything under it.
func (r *repository) DeleteQuiz(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		attempts := tx.Model(&Attempt{}).Select("id").Where("quiz_id = ?", id)
		questions := tx.Model(&Question{}).Select("id").Where("quiz_id = ?", id)

		if err := tx.Where("attempt_id IN (?)", attempts).Delete(&Answer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("quiz_id = ?", id).Delete(&Attempt{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id IN (?)", questions).Delete(&Option{}).Error; err != nil {
			return err
		}
		if err := tx.Where("quiz_id = ?", id).Delete(&Question{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Quiz{}, "id = ?", id).Error
	})
}

func (r *repository) ListQuestions(ctx context.Context, quizID uuid.UUID) ([]Question, error) {
	var questions []Question
	if err := r.db.WithContext(ctx).
		Preload("Options", byPosition).
		Where("quiz_id = ?", quizID).
		Order("position ASC").
		Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *repository) CountQuestions(ctx context.Context, quizID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Question{}).Where("quiz_id = ?", quizID).Count(&n).Error
	return n, err
}

func (r *repository) FindQuestion(ctx context.Context, quizID, questionID uuid.UUID) (*Question, error) {
	var q Question
	err := r.db.WithContext(ctx).
		Preload("Options", byPosition).
		First(&q, "id = ? AND quiz_id = ?", questionID, quizID).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// NextUnansweredQuestion returns gorm.ErrRecordNotFound when every question
// of the quiz has an answer under the attempt.
func (r *repository) NextUnansweredQuestion(ctx context.Context, quizID, attemptID uuid.UUID) (*Question, error) {
	answered := r.db.Model(&Answer{}).Select("question_id").Where("attempt_id = ?", attemptID)

	var q Question
	err := r.db.WithContext(ctx).
		Preload("Options", byPosition).
		Where("quiz_id = ?", quizID).
		Where("id NOT IN (?)", answered).
		Order("position ASC").
		First(&q).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *repository) FindCorrectOption(ctx context.Context, questionID uuid.UUID) (*Option, error) {
	var o Option
	err := r.db.WithContext(ctx).
		First(&o, "question_id = ? AND is_correct = ?", questionID, true).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repository) CreateAttempt(ctx context.Context, a *Attempt) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *repository) FindAttemptForUser(ctx context.Context, id, userID uuid.UUID) (*Attempt, error) {
	var a Attempt
	if err := r.db.WithContext(ctx).First(&a, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// LockAttemptForUser selects the attempt FOR UPDATE. Call it inside a transaction.
func (r *repository) LockAttemptForUser(ctx context.Context, id, userID uuid.UUID) (*Attempt, error) {
	var a Attempt
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&a, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repository) ListAttempts(ctx context.Context, quizID uuid.UUID) ([]Attempt, error) {
	var attempts []Attempt
	if err := r.db.WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Order("created_at DESC").
		Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (r *repository) UpdateAttempt(ctx context.Context, a *Attempt) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *repository) CreateAnswer(ctx context.Context, a *Answer) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(a).Error
}

func (r *repository) HasAnswer(ctx context.Context, attemptID, questionID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&Answer{}).
		Where("attempt_id = ? AND question_id = ?", attemptID, questionID).
		Count(&n).Error
	return n > 0, err
}

func (r *repository) CountAnswers(ctx context.Context, attemptID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Answer{}).Where("attempt_id = ?", attemptID).Count(&n).Error
	return n, err
}

func (r *repository) CountCorrectAnswers(ctx context.Context, attemptID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&Answer{}).
		Where("attempt_id = ? AND is_correct = ?", attemptID, true).
		Count(&n).Error
	return n, err
}

func (r *repository) ListAnswers(ctx context.Context, attemptID uuid.UUID) ([]Answer, error) {
	var answers []Answer
	if err := r.db.WithContext(ctx).
		Preload("SelectedOption").
		Where("attempt_id = ?", attemptID).
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

// AnswersMissingExplanation lists wrong, non-skipped answers that have no
// explanation yet, in question order.
func (r *repository) AnswersMissingExplanation(ctx context.Context, attemptID uuid.UUID) ([]Answer, error) {
	var answers []Answer
	if err := r.db.WithContext(ctx).
		Preload("Question").
		Preload("SelectedOption").
		Joins("JOIN quiz_questions ON quiz_questions.id = quiz_answers.question_id").
		Where("quiz_answers.attempt_id = ?", attemptID).
		Where("quiz_answers.is_correct = ?", false).
		Where("quiz_answers.selected_option_id IS NOT NULL").
		Where("quiz_answers.explanation = ''").
		Order("quiz_questions.position ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

// SetAnswerExplanation only writes when the answer has no explanation yet and
// reports whether a row changed.
func (r *repository) SetAnswerExplanation(ctx context.Context, answerID uuid.UUID, text string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&Answer{}).
		Where("id = ? AND explanation = ''", answerID).
		Update("explanation", text)
	return res.RowsAffected > 0, res.Error
}
