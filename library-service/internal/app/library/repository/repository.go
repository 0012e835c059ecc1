package repository

import (
	"context"
	"errors"

	"bookreviews/library-service/internal/app/library/entity"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	booksCollection   = "books"
	reviewsCollection = "reviews"

	metricsService = "library-service"
)

var (
	// Стандартные ошибки репозитория для обработки в service layer
	ErrBookNotFound   = errors.New("book not found")
	ErrReviewNotFound = errors.New("review not found")
	ErrDuplicateISBN  = errors.New("book with this isbn already exists")
)

// BookFilter - фильтр, сортировка и пагинация выборки книг
type BookFilter struct {
	Genre  string
	Author string // подстрока без учёта регистра
	Search string // подстрока в title/author/description без учёта регистра
	SortBy string
	Order  string
	Skip   int64
	Limit  int64
}

// ReviewFilter - фильтр выборки отзывов; нулевые значения не фильтруют
type ReviewFilter struct {
	BookID primitive.ObjectID
	Rating int
	SortBy string
	Order  string
}

// BookRepository определяет методы для работы с книгами в MongoDB
type BookRepository interface {
	EnsureIndexes(ctx context.Context) error
	List(ctx context.Context, filter BookFilter) ([]entity.Book, int64, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*entity.Book, error)
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)
	Create(ctx context.Context, book *entity.Book) error
	Update(ctx context.Context, book *entity.Book) (*entity.Book, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	UpdateRating(ctx context.Context, id primitive.ObjectID, summary entity.RatingSummary) error
	ListIDs(ctx context.Context) ([]primitive.ObjectID, error)
}

// ReviewRepository определяет методы для работы с отзывами в MongoDB
type ReviewRepository interface {
	EnsureIndexes(ctx context.Context) error
	List(ctx context.Context, filter ReviewFilter) ([]entity.ReviewWithBook, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*entity.Review, error)
	GetWithBook(ctx context.Context, id primitive.ObjectID) (*entity.ReviewWithBook, error)
	Create(ctx context.Context, review *entity.Review) error
	Update(ctx context.Context, review *entity.Review) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByBookID(ctx context.Context, bookID primitive.ObjectID) (int64, error)
	IncrementHelpful(ctx context.Context, id primitive.ObjectID) error
	RatingsByBook(ctx context.Context, bookID primitive.ObjectID) ([]int, error)
	DistinctBookIDs(ctx context.Context) ([]primitive.ObjectID, error)
}
