package service

import (
	"context"

	"bookreviews/library-service/internal/app/library/entity"
)

type BookServiceInterface interface {
	ListBooks(ctx context.Context, query entity.BookListQuery) (*entity.BookListResponse, error)
	GetBook(ctx context.Context, id string) (*entity.Book, error)
	CreateBook(ctx context.Context, req *entity.BookRequest) (*entity.Book, error)
	UpdateBook(ctx context.Context, id string, req *entity.BookRequest) (*entity.Book, error)
	DeleteBook(ctx context.Context, id string) (int64, error)
	GetBookReviews(ctx context.Context, id string) ([]entity.ReviewWithBook, error)
}

type ReviewServiceInterface interface {
	ListReviews(ctx context.Context, query entity.ReviewListQuery) ([]entity.ReviewWithBook, error)
	GetReview(ctx context.Context, id string) (*entity.ReviewWithBook, error)
	CreateReview(ctx context.Context, req *entity.ReviewRequest) (*entity.ReviewWithBook, error)
	UpdateReview(ctx context.Context, id string, req *entity.ReviewRequest) (*entity.ReviewWithBook, error)
	DeleteReview(ctx context.Context, id string) error
	MarkHelpful(ctx context.Context, id string) (*entity.ReviewWithBook, error)
}

type ReconcilerInterface interface {
	ReconcileAll(ctx context.Context) error
}
