package topic

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	List(ctx context.Context, language string) ([]Topic, error)
	// InsertMissing skips topics that already exist and returns how many were added.
	InsertMissing(ctx context.Context, topics []Topic) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, language string) ([]Topic, error) {
	var topics []Topic
	q := r.db.WithContext(ctx).Order("language ASC, name ASC")
	if language != "" {
		q = q.Where("language = ?", language)
	}
	if err := q.Find(&topics).Error; err != nil {
		return nil, err
	}
	return topics, nil
}

func (r *repository) InsertMissing(ctx context.Context, topics []Topic) (int64, error) {
	if len(topics) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&topics)
	return res.RowsAffected, res.Error
}
