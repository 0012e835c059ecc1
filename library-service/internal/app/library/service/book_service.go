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

// BookService обрабатывает бизнес-логику книг
// Координирует работу репозиториев, кэша и Kafka
type BookService struct {
	bookRepo   repository.BookRepository
	reviewRepo repository.ReviewRepository
	cache      infrastructure.BookCache
	validator  *validation.Validator
	events     eventPublisher
}

func NewBookService(
	bookRepo repository.BookRepository,
	reviewRepo repository.ReviewRepository,
	cache infrastructure.BookCache,
	producer infrastructure.MessagePublisher,
	validator *validation.Validator,
) *BookService {
	return &BookService{
		bookRepo:   bookRepo,
		reviewRepo: reviewRepo,
		cache:      cache,
		validator:  validator,
		events:     eventPublisher{producer: producer},
	}
}

// ListBooks возвращает страницу книг с фильтрами genre/author/search
func (s *BookService) ListBooks(ctx context.Context, query entity.BookListQuery) (*entity.BookListResponse, error) {
	query.Normalize()

	books, total, err := s.bookRepo.List(ctx, repository.BookFilter{
		Genre:  query.Genre,
		Author: query.Author,
		Search: query.Search,
		SortBy: query.SortBy,
		Order:  query.Order,
		Skip:   query.Skip(),
		Limit:  int64(query.Limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	return &entity.BookListResponse{
		Books:      books,
		Pagination: entity.NewPagination(query.Page, query.Limit, total),
	}, nil
}

// GetBook получает книгу по ID
// Сначала проверяет Redis, при промахе идёт в MongoDB и кладёт результат в кэш
func (s *BookService) GetBook(ctx context.Context, id string) (*entity.Book, error) {
	bookID, err := validation.ObjectID("id", id)
	if err != nil {
		return nil, err
	}

	cached, err := s.cache.GetBook(ctx, bookID.Hex())
	if err != nil {
		logger.Warn().Err(err).Str("book_id", id).Msg("Book cache read failed")
	}
	if cached != nil {
		return cached, nil
	}

	book, err := s.getBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetBook(ctx, book); err != nil {
		logger.Warn().Err(err).Str("book_id", id).Msg("Book cache write failed")
	}

	return book, nil
}

// CreateBook проверяет запрос и сохраняет книгу с нулевым рейтингом
func (s *BookService) CreateBook(ctx context.Context, req *entity.BookRequest) (*entity.Book, error) {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	book := bookFromRequest(req)

	if err := s.bookRepo.Create(ctx, book); err != nil {
		if errors.Is(err, repository.ErrDuplicateISBN) {
			return nil, ErrDuplicateISBN
		}
		return nil, fmt.Errorf("failed to create book: %w", err)
	}

	metrics.BooksCreated.Inc()
	s.events.publish(ctx, entity.LibraryEvent{
		EventType: entity.EventBookCreated,
		BookID:    book.ID.Hex(),
	})

	return book, nil
}

// UpdateBook полностью заменяет изменяемые поля книги; рейтинг не меняется
func (s *BookService) UpdateBook(ctx context.Context, id string, req *entity.BookRequest) (*entity.Book, error) {
	bookID, err := validation.ObjectID("id", id)
	if err != nil {
		return nil, err
	}

	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	book := bookFromRequest(req)
	book.ID = bookID

	updated, err := s.bookRepo.Update(ctx, book)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrBookNotFound):
			return nil, ErrBookNotFound
		case errors.Is(err, repository.ErrDuplicateISBN):
			return nil, ErrDuplicateISBN
		}
		return nil, fmt.Errorf("failed to update book: %w", err)
	}

	s.invalidate(ctx, bookID)
	s.events.publish(ctx, entity.LibraryEvent{
		EventType: entity.EventBookUpdated,
		BookID:    bookID.Hex(),
	})

	return updated, nil
}

// DeleteBook удаляет книгу, затем все её отзывы, и возвращает количество удалённых отзывов.
// Шаги не атомарны: если второй упал, осиротевшие отзывы скрыты из выдачи и удаляются сверкой.
func (s *BookService) DeleteBook(ctx context.Context, id string) (int64, error) {
	bookID, err := validation.ObjectID("id", id)
	if err != nil {
		return 0, err
	}

	if err := s.bookRepo.Delete(ctx, bookID); err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			return 0, ErrBookNotFound
		}
		return 0, fmt.Errorf("failed to delete book: %w", err)
	}

	s.invalidate(ctx, bookID)
	metrics.BooksDeleted.Inc()

	deleted, err := s.reviewRepo.DeleteByBookID(ctx, bookID)
	if err != nil {
		logger.Error().Err(err).Str("book_id", id).Msg("Book deleted but its reviews were not")
		return 0, fmt.Errorf("failed to delete reviews of book: %w", err)
	}

	metrics.ReviewsCascadeDeleted.Add(float64(deleted))
	s.events.publish(ctx, entity.LibraryEvent{
		EventType:      entity.EventBookDeleted,
		BookID:         bookID.Hex(),
		ReviewsDeleted: &deleted,
	})

	return deleted, nil
}

// GetBookReviews возвращает отзывы существующей книги
func (s *BookService) GetBookReviews(ctx context.Context, id string) ([]entity.ReviewWithBook, error) {
	bookID, err := validation.ObjectID("id", id)
	if err != nil {
		return nil, err
	}

	exists, err := s.bookRepo.Exists(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to check book: %w", err)
	}
	if !exists {
		return nil, ErrBookNotFound
	}

	reviews, err := s.reviewRepo.List(ctx, repository.ReviewFilter{BookID: bookID, Order: entity.SortDesc})
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}

	return reviews, nil
}

func (s *BookService) getBook(ctx context.Context, id primitive.ObjectID) (*entity.Book, error) {
	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return book, nil
}

func (s *BookService) invalidate(ctx context.Context, id primitive.ObjectID) {
	if err := s.cache.DeleteBook(ctx, id.Hex()); err != nil {
		logger.Warn().Err(err).Str("book_id", id.Hex()).Msg("Failed to invalidate book cache")
	}
}

func bookFromRequest(req *entity.BookRequest) *entity.Book {
	return &entity.Book{
		Title:           req.Title,
		Author:          req.Author,
		ISBN:            req.ISBN,
		PublicationYear: req.PublicationYear,
		Genre:           req.Genre,
		Description:     req.Description,
		Publisher:       req.Publisher,
		Pages:           req.Pages,
		Language:        req.Language,
	}
}
