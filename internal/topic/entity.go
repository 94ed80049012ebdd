package topic

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Topic is a predefined subject offered on the quiz setup form.
type Topic struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Language string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_topic_language_name" json:"language"`
	Name     string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_topic_language_name" json:"name"`
}

func (Topic) TableName() string { return "topics" }

func (t *Topic) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

var defaultCatalog = map[string][]string{
	"python":     {"Decorators", "Generators", "Context Managers", "List Comprehensions", "Asyncio", "Dataclasses"},
	"javascript": {"Closures", "Promises", "Event Loop", "Prototypes", "Array Methods"},
	"typescript": {"Generics", "Utility Types", "Type Narrowing"},
	"go":         {"Goroutines", "Channels", "Interfaces", "Error Handling", "Slices and Maps"},
	"sql":        {"Joins", "Indexes", "Transactions", "Window Functions"},
	"css":        {"Flexbox", "Grid", "Specificity", "Media Queries"},
}
