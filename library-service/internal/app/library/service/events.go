package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bookreviews/library-service/internal/app/library/entity"
	"bookreviews/library-service/internal/app/library/infrastructure"
	"bookreviews/pkg/logger"
)

// eventPublisher сериализует доменные события и отправляет их в Kafka.
// Ошибки только логируются: данные уже сохранены, событие не критично.
type eventPublisher struct {
	producer infrastructure.MessagePublisher
}

func (p eventPublisher) publish(ctx context.Context, event entity.LibraryEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	if err := p.send(ctx, event); err != nil {
		logger.Warn().
			Err(err).
			Str("event_type", event.EventType).
			Str("book_id", event.BookID).
			Msg("Failed to publish library event")
	}
}

func (p eventPublisher) send(ctx context.Context, event entity.LibraryEvent) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.producer.PublishMessage(ctx, event.Key(), eventData); err != nil {
		return fmt.Errorf("failed to publish to kafka: %w", err)
	}

	return nil
}
