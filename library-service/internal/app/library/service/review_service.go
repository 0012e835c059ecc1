package service

import (
	"context"
	"errors"
	"fmt"

	"bookreviews/library-service/internal/app/library/entity"
	"bookreviews/library-service/internal/app/library/infrastructure"
	"bookreviews/library-service/internal/app/library/repository"
	"bookreviews/library-service/internal/app/library/validation"
	"bookreviews/pkg/logger"
	"bookreviews/pkg/metrics"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReviewService обрабатывает бизнес-логику отзывов
// После каждого изменения отзывов пересчитывает рейтинг затронутых книг
type ReviewService struct {
	bookRepo   repository.BookRepository
	reviewRepo repository.ReviewRepository
	aggregator *RatingAggregator
	validator  *validation.Validator
	events     eventPublisher
}

// NewReviewService создает новый сервис отзывов с внедрением зависимостей
func NewReviewService(
	bookRepo repository.BookRepository,
	reviewRepo repository.ReviewRepository,
	aggregator *RatingAggregator,
	producer infrastructure.MessagePublisher,
	validator *validation.Validator,
) *ReviewService {
	return &ReviewService{
		bookRepo:   bookRepo,
		reviewRepo: reviewRepo,
		aggregator: aggregator,
		validator:  validator,
		events:     eventPublisher{producer: producer},
	}
}

// ListReviews возвращает отзывы с данными книги, опционально по книге и оценке
func (s *ReviewService) ListReviews(ctx context.Context, query entity.ReviewListQuery) ([]entity.ReviewWithBook, error) {
	query.Normalize()

	filter := repository.ReviewFilter{
		Rating: query.Rating,
		SortBy: query.Sort,
		Order:  query.Order,
	}
	if query.Book != "" {
		bookID, err := validation.ObjectID("book", query.Book)
		if err != nil {
			return nil, err
		}
		filter.BookID = bookID
	}

	reviews, err := s.reviewRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}

	return reviews, nil
}

// GetReview получает отзыв по ID вместе с книгой
func (s *ReviewService) GetReview(ctx context.Context, id string) (*entity.ReviewWithBook, error) {
	reviewID, err := validation.ObjectID("id", id)
	if err != nil {
		return nil, err
	}

	return s.getWithBook(ctx, reviewID)
}

// CreateReview создает новый отзыв
// 1. Проверяет, что книга существует (иначе ничего не сохраняется)
// 2. Сохраняет отзыв в MongoDB
// 3. Пересчитывает рейтинг книги
// 4. Отправляет событие REVIEW_CREATED в Kafka
func (s *ReviewService) CreateReview(ctx context.Context, req *entity.ReviewRequest) (*entity.ReviewWithBook, error) {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	book, err := s.getBook(ctx, req.Book)
	if err != nil {
		return nil, err
	}

	review := &entity.Review{
		Book:         book.ID,
		ReviewerName: req.ReviewerName,
		Rating:       req.Rating,
		ReviewText:   req.ReviewText,
		Verified:     req.Verified,
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	metrics.ReviewsCreated.Inc()
	metrics.ReviewsRating.Observe(float64(review.Rating))

	s.recompute(ctx, book.ID)
	s.events.publish(ctx, entity.LibraryEvent{
		EventType: entity.EventReviewCreated,
		BookID:    book.ID.Hex(),
		ReviewID:  review.ID.Hex(),
		Rating:    review.Rating,
	})

	return review.WithBook(book), nil
}

// UpdateReview заменяет поля отзыва.
// Рейтинг старой книги пересчитывается всегда, новой - только если ссылка на книгу изменилась.
func (s *ReviewService) UpdateReview(ctx context.Context, id string, req *entity.ReviewRequest) (*entity.ReviewWithBook, error) {
	reviewID, err := validation.ObjectID("id", id)
	if err != nil {
		return nil, err
	}

	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	book, err := s.getBook(ctx, req.Book)
	if err != nil {
		return nil, err
	}

	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	oldBookID := review.Book

	review.Book = book.ID
	review.ReviewerName = req.ReviewerName
	review.Rating = req.Rating
	review.ReviewText = req.ReviewText
	review.Verified = req.Verified

	if err := s.reviewRepo.Update(ctx, review); err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to update review: %w", err)
	}

	s.recompute(ctx, oldBookID)
	if oldBookID != book.ID {
		s.recompute(ctx, book.ID)
	}

	s.events.publish(ctx, entity.LibraryEvent{
		EventType: entity.EventReviewUpdated,
		BookID:    book.ID.Hex(),
		ReviewID:  review.ID.Hex(),
		Rating:    review.Rating,
	})

	return review.WithBook(book), nil
}

// DeleteReview удаляет отзыв и пересчитывает рейтинг его книги
func (s *ReviewService) DeleteReview(ctx context.Context, id string) error {
	reviewID, err := validation.ObjectID("id", id)
	if err != nil {
		return err
	}

	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return ErrReviewNotFound
		}
		return fmt.Errorf("failed to get review: %w", err)
	}

	if err := s.reviewRepo.Delete(ctx, reviewID); err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return ErrReviewNotFound
		}
		return fmt.Errorf("failed to delete review: %w", err)
	}

	s.recompute(ctx, review.Book)
	s.events.publish(ctx, entity.LibraryEvent{
		EventType: entity.EventReviewDeleted,
		BookID:    review.Book.Hex(),
		ReviewID:  reviewID.Hex(),
		Rating:    review.Rating,
	})

	return nil
}

// MarkHelpful атомарно увеличивает счётчик helpful и возвращает обновлённый отзыв
func (s *ReviewService) MarkHelpful(ctx context.Context, id string) (*entity.ReviewWithBook, error) {
	reviewID, err := validation.ObjectID("id", id)
	if err != nil {
		return nil, err
	}

	if err := s.reviewRepo.IncrementHelpful(ctx, reviewID); err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to mark review helpful: %w", err)
	}

	return s.getWithBook(ctx, reviewID)
}

func (s *ReviewService) getWithBook(ctx context.Context, id primitive.ObjectID) (*entity.ReviewWithBook, error) {
	review, err := s.reviewRepo.GetWithBook(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return review, nil
}

// getBook загружает книгу, на которую ссылается запрос (ID уже проверен валидатором)
func (s *ReviewService) getBook(ctx context.Context, id string) (*entity.Book, error) {
	bookID, err := validation.ObjectID("book", id)
	if err != nil {
		return nil, err
	}

	book, err := s.bookRepo.GetByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return book, nil
}

// recompute пересчитывает рейтинг после уже сохранённого изменения отзыва.
// Ошибка не возвращается клиенту: отзыв записан, рейтинг досчитает сверка.
func (s *ReviewService) recompute(ctx context.Context, bookID primitive.ObjectID) {
	_, err := s.aggregator.Recompute(ctx, bookID)
	metrics.RecordRatingRecompute(err)
	if err != nil {
		logger.Error().Err(err).Str("book_id", bookID.Hex()).Msg("Failed to recompute book rating")
	}
}
