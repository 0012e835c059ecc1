package handler

import (
	"context"

	"bookreviews/library-service/internal/app/library/entity"

	"github.com/stretchr/testify/mock"
)

type MockBookService struct {
	mock.Mock
}

func (m *MockBookService) ListBooks(ctx context.Context, query entity.BookListQuery) (*entity.BookListResponse, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.BookListResponse), args.Error(1)
}

func (m *MockBookService) GetBook(ctx context.Context, id string) (*entity.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Book), args.Error(1)
}

func (m *MockBookService) CreateBook(ctx context.Context, req *entity.BookRequest) (*entity.Book, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Book), args.Error(1)
}

func (m *MockBookService) UpdateBook(ctx context.Context, id string, req *entity.BookRequest) (*entity.Book, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Book), args.Error(1)
}

func (m *MockBookService) DeleteBook(ctx context.Context, id string) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBookService) GetBookReviews(ctx context.Context, id string) ([]entity.ReviewWithBook, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ReviewWithBook), args.Error(1)
}

type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) ListReviews(ctx context.Context, query entity.ReviewListQuery) ([]entity.ReviewWithBook, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ReviewWithBook), args.Error(1)
}

func (m *MockReviewService) GetReview(ctx context.Context, id string) (*entity.ReviewWithBook, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ReviewWithBook), args.Error(1)
}

func (m *MockReviewService) CreateReview(ctx context.Context, req *entity.ReviewRequest) (*entity.ReviewWithBook, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ReviewWithBook), args.Error(1)
}

func (m *MockReviewService) UpdateReview(ctx context.Context, id string, req *entity.ReviewRequest) (*entity.ReviewWithBook, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ReviewWithBook), args.Error(1)
}

func (m *MockReviewService) DeleteReview(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockReviewService) MarkHelpful(ctx context.Context, id string) (*entity.ReviewWithBook, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ReviewWithBook), args.Error(1)
}

type stubHealth struct {
	err error
}

func (s stubHealth) Ping(context.Context) error {
	return s.err
}
