package infrastructure

import (
	"context"

	"bookreviews/library-service/internal/app/library/entity"
)

// MessagePublisher интерфейс для отправки сообщений в очередь (Kafka)
// Используется для dependency injection и упрощения тестирования
type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
	Close() error
}

// BookCache - кэш карточек книг. Промах возвращает (nil, nil).
type BookCache interface {
	GetBook(ctx context.Context, id string) (*entity.Book, error)
	SetBook(ctx context.Context, book *entity.Book) error
	DeleteBook(ctx context.Context, id string) error
	Close() error
}
