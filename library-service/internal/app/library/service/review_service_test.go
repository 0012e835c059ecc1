package service

import (
	"context"
	"errors"
	"testing"

	"bookreviews/library-service/internal/app/library/entity"
	"bookreviews/library-service/internal/app/library/repository"
	"bookreviews/library-service/internal/app/library/repository/mocks"
	"bookreviews/library-service/internal/app/library/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type reviewServiceDeps struct {
	bookRepo   *mocks.MockBookRepository
	reviewRepo *mocks.MockReviewRepository
	cache      *mocks.MockBookCache
	producer   *mocks.MockMessagePublisher
}

func newReviewService() (*ReviewService, reviewServiceDeps) {
	deps := reviewServiceDeps{
		bookRepo:   new(mocks.MockBookRepository),
		reviewRepo: new(mocks.MockReviewRepository),
		cache:      new(mocks.MockBookCache),
		producer:   &mocks.MockMessagePublisher{Messages: make([][]byte, 0)},
	}
	aggregator := NewRatingAggregator(deps.bookRepo, deps.reviewRepo, deps.cache, deps.producer)
	svc := NewReviewService(deps.bookRepo, deps.reviewRepo, aggregator, deps.producer, validation.New())
	return svc, deps
}

// expectRecompute настраивает успешный пересчёт рейтинга книги
func (d reviewServiceDeps) expectRecompute(ctx context.Context, bookID primitive.ObjectID, ratings []int) {
	d.reviewRepo.On("RatingsByBook", ctx, bookID).Return(ratings, nil).Once()
	d.bookRepo.On("UpdateRating", ctx, bookID, CalculateRating(ratings)).Return(nil).Once()
	d.cache.On("DeleteBook", ctx, bookID.Hex()).Return(nil).Once()
}

func TestCreateReview_Success(t *testing.T) {
	svc, deps := newReviewService()
	ctx := context.Background()
	book := &entity.Book{ID: primitive.NewObjectID(), Title: "Dune", Author: "Frank Herbert"}

	deps.bookRepo.On("GetByID", ctx, book.ID).Return(book, nil)
	deps.reviewRepo.On("Create", ctx, mock.AnythingOfType("*entity.Review")).Return(nil).Run(func(args mock.Arguments) {
		review := args.Get(1).(*entity.Review)
		review.ID = primitive.NewObjectID()
	})
	deps.expectRecompute(ctx, book.ID, []int{5})
	deps.producer.On("PublishMessage", ctx, book.ID.Hex(), mock.Anything).Return(nil)

	result, err := svc.CreateReview(ctx, reviewRequest(book.ID, 5))

	require.NoError(t, err)
	assert.Equal(t, "Dune", result.Book.Title)
	assert.Equal(t, 5, result.Rating)
	deps.bookRepo.AssertExpectations(t)
	// BOOK_RATING_UPDATED и REVIEW_CREATED
	assert.Len(t, deps.producer.Messages, 2)
}

func TestCreateReview_BookMissing(t *testing.T) {
	svc, deps := newReviewService()
	ctx := context.Background()
	bookID := primitive.NewObjectID()

	deps.bookRepo.On("GetByID", ctx, bookID).Return(nil, repository.ErrBookNotFound)

	result, err := svc.CreateReview(ctx, reviewRequest(bookID, 5))

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrBookNotFound)
	deps.reviewRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateReview_ValidationError(t *testing.T) {
	svc, deps := newReviewService()

	req := reviewRequest(primitive.NewObjectID(), 9)
	req.ReviewText = "short"
	_, err := svc.CreateReview(context.Background(), req)

	var verr *validation.Errors
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 2)
	deps.bookRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestCreateReview_RecomputeFailureDoesNotFailRequest(t *testing.T) {
	svc, deps := newReviewService()
	ctx := context.Background()
	book := &entity.Book{ID: primitive.NewObjectID()}

	deps.bookRepo.On("GetByID", ctx, book.ID).Return(book, nil)
	deps.reviewRepo.On("Create", ctx, mock.Anything).Return(nil)
	deps.reviewRepo.On("RatingsByBook", ctx, book.ID).Return(nil, errors.New("timeout"))
	deps.producer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)

	result, err := svc.CreateReview(ctx, reviewRequest(book.ID, 4))

	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestUpdateReview_SameBookRecomputesOnce(t *testing.T) {
	svc, deps := newReviewService()
	ctx := context.Background()
	book := &entity.Book{ID: primitive.NewObjectID()}
	existing := &entity.Review{ID: primitive.NewObjectID(), Book: book.ID, Rating: 1, Helpful: 7}

	deps.bookRepo.On("GetByID", ctx, book.ID).Return(book, nil)
	deps.reviewRepo.On("GetByID", ctx, existing.ID).Return(existing, nil)
	deps.reviewRepo.On("Update", ctx, mock.AnythingOfType("*entity.Review")).Return(nil)
	deps.expectRecompute(ctx, book.ID, []int{3})
	deps.producer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)

	result, err := svc.UpdateReview(ctx, existing.ID.Hex(), reviewRequest(book.ID, 3))

	require.NoError(t, err)
	assert.Equal(t, 3, result.Rating)
	assert.Equal(t, 7, result.Helpful)
	deps.reviewRepo.AssertNumberOfCalls(t, "RatingsByBook", 1)
}

func TestUpdateReview_ChangedBookRecomputesBoth(t *testing.T) {
	svc, deps := newReviewService()
	ctx := context.Background()
	oldBookID := primitive.NewObjectID()
	newBook := &entity.Book{ID: primitive.NewObjectID()}
	existing := &entity.Review{ID: primitive.NewObjectID(), Book: oldBookID, Rating: 2}

	deps.bookRepo.On("GetByID", ctx, newBook.ID).Return(newBook, nil)
	deps.reviewRepo.On("GetByID", ctx, existing.ID).Return(existing, nil)
	deps.reviewRepo.On("Update", ctx, mock.MatchedBy(func(r *entity.Review) bool { return r.Book == newBook.ID })).Return(nil)
	deps.expectRecompute(ctx, oldBookID, []int{})
	deps.expectRecompute(ctx, newBook.ID, []int{4})
	deps.producer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)

	_, err := svc.UpdateReview(ctx, existing.ID.Hex(), reviewRequest(newBook.ID, 4))

	require.NoError(t, err)
	deps.reviewRepo.AssertNumberOfCalls(t, "RatingsByBook", 2)
	deps.bookRepo.AssertExpectations(t)
}

func TestUpdateReview_NotFound(t *testing.T) {
	svc, deps := newReviewService()
	ctx := context.Background()
	book := &entity.Book{ID: primitive.NewObjectID()}
	reviewID := primitive.NewObjectID()

	deps.bookRepo.On("GetByID", ctx, book.ID).Return(book, nil)
	deps.reviewRepo.On("GetByID", ctx, reviewID).Return(nil, repository.ErrReviewNotFound)

	_, err := svc.UpdateReview(ctx, reviewID.Hex(), reviewRequest(book.ID, 4))

	assert.ErrorIs(t, err, ErrReviewNotFound)
	deps.reviewRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestDeleteReview_Success(t *testing.T) {
	svc, deps := newReviewService()
	ctx := context.Background()
	review := &entity.Review{ID: primitive.NewObjectID(), Book: primitive.NewObjectID(), Rating: 5}

	deps.reviewRepo.On("GetByID", ctx, review.ID).Return(review, nil)
	deps.reviewRepo.On("Delete", ctx, review.ID).Return(nil)
	deps.expectRecompute(ctx, review.Book, []int{})
	deps.producer.On("PublishMessage", ctx, review.Book.Hex(), mock.Anything).Return(nil)

	err := svc.DeleteReview(ctx, review.ID.Hex())

	require.NoError(t, err)
	deps.reviewRepo.AssertExpectations(t)
}

func TestDeleteReview_NotFound(t *testing.T) {
	svc, deps := newReviewService()
	ctx := context.Background()
	id := primitive.NewObjectID()

	deps.reviewRepo.On("GetByID", ctx, id).Return(nil, repository.ErrReviewNotFound)

	err := svc.DeleteReview(ctx, id.Hex())

	assert.ErrorIs(t, err, ErrReviewNotFound)
	deps.reviewRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestMarkHelpful_Success(t *testing.T) {
	svc, deps := newReviewService()
	ctx := context.Background()
	id := primitive.NewObjectID()
	joined := &entity.ReviewWithBook{ID: id, Helpful: 3}

	deps.reviewRepo.On("IncrementHelpful", ctx, id).Return(nil)
	deps.reviewRepo.On("GetWithBook", ctx, id).Return(joined, nil)

	result, err := svc.MarkHelpful(ctx, id.Hex())

	require.NoError(t, err)
	assert.Equal(t, 3, result.Helpful)
	deps.reviewRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestMarkHelpful_NotFound(t *testing.T) {
	svc, deps := newReviewService()
	ctx := context.Background()
	id := primitive.NewObjectID()

	deps.reviewRepo.On("IncrementHelpful", ctx, id).Return(repository.ErrReviewNotFound)

	_, err := svc.MarkHelpful(ctx, id.Hex())

	assert.ErrorIs(t, err, ErrReviewNotFound)
}

func TestMarkHelpful_InvalidID(t *testing.T) {
	svc, _ := newReviewService()

	_, err := svc.MarkHelpful(context.Background(), "123")

	var verr *validation.Errors
	assert.True(t, errors.As(err, &verr))
}

func TestListReviews_Filters(t *testing.T) {
	svc, deps := newReviewService()
	ctx := context.Background()
	bookID := primitive.NewObjectID()

	deps.reviewRepo.On("List", ctx, repository.ReviewFilter{
		BookID: bookID,
		Rating: 5,
		SortBy: "helpful",
		Order:  entity.SortDesc,
	}).Return([]entity.ReviewWithBook{{Rating: 5}}, nil)

	reviews, err := svc.ListReviews(ctx, entity.ReviewListQuery{Book: bookID.Hex(), Rating: 5, Sort: "helpful"})

	require.NoError(t, err)
	assert.Len(t, reviews, 1)
}

func TestListReviews_InvalidBookID(t *testing.T) {
	svc, deps := newReviewService()

	_, err := svc.ListReviews(context.Background(), entity.ReviewListQuery{Book: "xyz"})

	var verr *validation.Errors
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "book", verr.Fields[0].Field)
	deps.reviewRepo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}
