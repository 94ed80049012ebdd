package topic

import "gorm.io/gorm"

type TopicContainer struct {
	Service Service
	Handler *Handler
}

func NewTopicContainer(db *gorm.DB) *TopicContainer {
	repo := NewRepository(db)
	service := NewService(repo)
	handler := NewHandler(service)

	return &TopicContainer{
		Service: service,
		Handler: handler,
	}
}
