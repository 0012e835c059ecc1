package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookreviews/library-service/internal/app/library/entity"
	"bookreviews/pkg/metrics"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var reviewSortFields = map[string]bool{
	"reviewDate": true,
	"rating":     true,
	"helpful":    true,
	"createdAt":  true,
	"updatedAt":  true,
}

type reviewRepository struct {
	collection *mongo.Collection
}

// NewReviewRepository создает репозиторий отзывов поверх переданной базы
func NewReviewRepository(db *mongo.Database) ReviewRepository {
	return &reviewRepository{
		collection: db.Collection(reviewsCollection),
	}
}

// EnsureIndexes создает индексы по book (выборка и каскадное удаление) и rating
func (r *reviewRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "book", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("book_idx"),
		},
		{
			Keys:    bson.D{{Key: "rating", Value: 1}},
			Options: options.Index().SetName("rating_idx"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create review indexes: %w", err)
	}
	return nil
}

// lookupBook подставляет книгу в поле book. $unwind без preserveNullAndEmptyArrays
// отбрасывает отзывы, чья книга уже удалена.
func lookupBook() []bson.D {
	return []bson.D{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: booksCollection},
			{Key: "localField", Value: "book"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "book"},
		}}},
		{{Key: "$unwind", Value: "$book"}},
	}
}

func (r *reviewRepository) aggregate(ctx context.Context, pipeline mongo.Pipeline) (reviews []entity.ReviewWithBook, err error) {
	defer observe(metrics.DbOpAggregate, reviewsCollection)(&err)

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate reviews: %w", err)
	}
	defer cursor.Close(ctx)

	reviews = make([]entity.ReviewWithBook, 0)
	if err = cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}

	return reviews, nil
}

// List возвращает отзывы с данными книги, отфильтрованные по книге и/или оценке
func (r *reviewRepository) List(ctx context.Context, f ReviewFilter) ([]entity.ReviewWithBook, error) {
	match := bson.M{}
	if !f.BookID.IsZero() {
		match["book"] = f.BookID
	}
	if f.Rating > 0 {
		match["rating"] = f.Rating
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: sortOrder(f.SortBy, f.Order, reviewSortFields, "createdAt")}},
	}
	pipeline = append(pipeline, lookupBook()...)

	return r.aggregate(ctx, pipeline)
}

func (r *reviewRepository) GetByID(ctx context.Context, id primitive.ObjectID) (review *entity.Review, err error) {
	defer observe(metrics.DbOpFind, reviewsCollection)(&err)

	var result entity.Review
	err = r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	return &result, nil
}

// GetWithBook получает отзыв вместе с названием и автором книги
func (r *reviewRepository) GetWithBook(ctx context.Context, id primitive.ObjectID) (*entity.ReviewWithBook, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": id}}},
		{{Key: "$limit", Value: 1}},
	}
	pipeline = append(pipeline, lookupBook()...)

	reviews, err := r.aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	if len(reviews) == 0 {
		return nil, ErrReviewNotFound
	}

	return &reviews[0], nil
}

func (r *reviewRepository) Create(ctx context.Context, review *entity.Review) (err error) {
	defer observe(metrics.DbOpInsert, reviewsCollection)(&err)

	now := time.Now().UTC()
	review.ID = primitive.NilObjectID
	review.Helpful = 0
	review.CreatedAt = now
	review.UpdatedAt = now
	if review.ReviewDate.IsZero() {
		review.ReviewDate = now
	}

	result, err := r.collection.InsertOne(ctx, review)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		review.ID = oid
	}

	return nil
}

// Update заменяет изменяемые поля отзыва; helpful, reviewDate и createdAt сохраняются
func (r *reviewRepository) Update(ctx context.Context, review *entity.Review) (err error) {
	defer observe(metrics.DbOpUpdate, reviewsCollection)(&err)

	review.UpdatedAt = time.Now().UTC()

	update := bson.M{
		"$set": bson.M{
			"book":         review.Book,
			"reviewerName": review.ReviewerName,
			"rating":       review.Rating,
			"reviewText":   review.ReviewText,
			"verified":     review.Verified,
			"updatedAt":    review.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": review.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrReviewNotFound
	}

	return nil
}

func (r *reviewRepository) Delete(ctx context.Context, id primitive.ObjectID) (err error) {
	defer observe(metrics.DbOpDelete, reviewsCollection)(&err)

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrReviewNotFound
	}

	return nil
}

// DeleteByBookID удаляет все отзывы книги и возвращает их количество
func (r *reviewRepository) DeleteByBookID(ctx context.Context, bookID primitive.ObjectID) (deleted int64, err error) {
	defer observe(metrics.DbOpDelete, reviewsCollection)(&err)

	result, err := r.collection.DeleteMany(ctx, bson.M{"book": bookID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete reviews of book: %w", err)
	}

	return result.DeletedCount, nil
}

// IncrementHelpful атомарно увеличивает helpful на 1 через $inc (без read-modify-write)
func (r *reviewRepository) IncrementHelpful(ctx context.Context, id primitive.ObjectID) (err error) {
	defer observe(metrics.DbOpUpdate, reviewsCollection)(&err)

	update := bson.M{
		"$inc": bson.M{"helpful": 1},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to increment helpful: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrReviewNotFound
	}

	return nil
}

// RatingsByBook возвращает оценки всех отзывов книги
func (r *reviewRepository) RatingsByBook(ctx context.Context, bookID primitive.ObjectID) (ratings []int, err error) {
	defer observe(metrics.DbOpFind, reviewsCollection)(&err)

	opts := options.Find().SetProjection(bson.M{"rating": 1, "_id": 0})

	cursor, err := r.collection.Find(ctx, bson.M{"book": bookID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find ratings: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		Rating int `bson:"rating"`
	}
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode ratings: %w", err)
	}

	ratings = make([]int, 0, len(docs))
	for _, d := range docs {
		ratings = append(ratings, d.Rating)
	}
	return ratings, nil
}

// DistinctBookIDs возвращает все книги, на которые ссылаются отзывы
func (r *reviewRepository) DistinctBookIDs(ctx context.Context) (ids []primitive.ObjectID, err error) {
	defer observe(metrics.DbOpFind, reviewsCollection)(&err)

	values, err := r.collection.Distinct(ctx, "book", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to get distinct books: %w", err)
	}

	ids = make([]primitive.ObjectID, 0, len(values))
	for _, v := range values {
		if oid, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, oid)
		}
	}
	return ids, nil
}
