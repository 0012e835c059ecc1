package service

import (
	"context"
	"errors"
	"fmt"

	"bookreviews/library-service/internal/app/library/entity"
	"bookreviews/library-service/internal/app/library/infrastructure"
	"bookreviews/library-service/internal/app/library/repository"
	"bookreviews/pkg/logger"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CalculateRating считает среднее (округлённое до 2 знаков) и количество оценок.
// Пустой список даёт нулевой агрегат.
func CalculateRating(ratings []int) entity.RatingSummary {
	if len(ratings) == 0 {
		return entity.RatingSummary{}
	}

	var sum int64
	for _, r := range ratings {
		sum += int64(r)
	}

	avg, _ := decimal.NewFromInt(sum).
		Div(decimal.NewFromInt(int64(len(ratings)))).
		Round(2).
		Float64()

	return entity.RatingSummary{
		AverageRating:   avg,
		NumberOfReviews: len(ratings),
	}
}

// RatingAggregator пересчитывает averageRating/numberOfReviews книги по её текущим отзывам
type RatingAggregator struct {
	bookRepo   repository.BookRepository
	reviewRepo repository.ReviewRepository
	cache      infrastructure.BookCache
	events     eventPublisher
}

func NewRatingAggregator(
	bookRepo repository.BookRepository,
	reviewRepo repository.ReviewRepository,
	cache infrastructure.BookCache,
	producer infrastructure.MessagePublisher,
) *RatingAggregator {
	return &RatingAggregator{
		bookRepo:   bookRepo,
		reviewRepo: reviewRepo,
		cache:      cache,
		events:     eventPublisher{producer: producer},
	}
}

// Recompute идемпотентен: повторный вызов без изменения отзывов записывает то же значение
func (a *RatingAggregator) Recompute(ctx context.Context, bookID primitive.ObjectID) (entity.RatingSummary, error) {
	ratings, err := a.reviewRepo.RatingsByBook(ctx, bookID)
	if err != nil {
		return entity.RatingSummary{}, fmt.Errorf("failed to load ratings: %w", err)
	}

	summary := CalculateRating(ratings)

	if err := a.bookRepo.UpdateRating(ctx, bookID, summary); err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			return summary, ErrBookNotFound
		}
		return summary, fmt.Errorf("failed to store rating: %w", err)
	}

	if err := a.cache.DeleteBook(ctx, bookID.Hex()); err != nil {
		logger.Warn().Err(err).Str("book_id", bookID.Hex()).Msg("Failed to invalidate book cache")
	}

	avg, count := summary.AverageRating, summary.NumberOfReviews
	a.events.publish(ctx, entity.LibraryEvent{
		EventType:       entity.EventBookRatingUpdated,
		BookID:          bookID.Hex(),
		AverageRating:   &avg,
		NumberOfReviews: &count,
	})

	return summary, nil
}
