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

var bookSortFields = map[string]bool{
	"title":           true,
	"author":          true,
	"publicationYear": true,
	"averageRating":   true,
	"numberOfReviews": true,
	"pages":           true,
	"createdAt":       true,
	"updatedAt":       true,
}

type bookRepository struct {
	collection *mongo.Collection
}

// NewBookRepository создает репозиторий книг поверх переданной базы
func NewBookRepository(db *mongo.Database) BookRepository {
	return &bookRepository{
		collection: db.Collection(booksCollection),
	}
}

// EnsureIndexes создает уникальный индекс по isbn и индексы для фильтров списка
func (r *bookRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "isbn", Value: 1}},
			Options: options.Index().SetName("isbn_unique_idx").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "genre", Value: 1}},
			Options: options.Index().SetName("genre_idx"),
		},
		{
			Keys:    bson.D{{Key: "author", Value: 1}},
			Options: options.Index().SetName("author_idx"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create book indexes: %w", err)
	}
	return nil
}

func buildBookQuery(f BookFilter) bson.M {
	query := bson.M{}
	if f.Genre != "" {
		query["genre"] = f.Genre
	}
	if f.Author != "" {
		query["author"] = containsFold(f.Author)
	}
	if f.Search != "" {
		rx := containsFold(f.Search)
		query["$or"] = bson.A{
			bson.M{"title": rx},
			bson.M{"author": rx},
			bson.M{"description": rx},
		}
	}
	return query
}

// List возвращает страницу книг и общее количество подходящих под фильтр
func (r *bookRepository) List(ctx context.Context, f BookFilter) (books []entity.Book, total int64, err error) {
	defer observe(metrics.DbOpFind, booksCollection)(&err)

	query := buildBookQuery(f)

	total, err = r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count books: %w", err)
	}

	opts := options.Find().
		SetSort(sortOrder(f.SortBy, f.Order, bookSortFields, "createdAt")).
		SetSkip(f.Skip).
		SetLimit(f.Limit)

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find books: %w", err)
	}
	defer cursor.Close(ctx)

	books = make([]entity.Book, 0)
	if err = cursor.All(ctx, &books); err != nil {
		return nil, 0, fmt.Errorf("failed to decode books: %w", err)
	}

	return books, total, nil
}

func (r *bookRepository) GetByID(ctx context.Context, id primitive.ObjectID) (book *entity.Book, err error) {
	defer observe(metrics.DbOpFind, booksCollection)(&err)

	var result entity.Book
	err = r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to get book: %w", err)
	}

	return &result, nil
}

func (r *bookRepository) Exists(ctx context.Context, id primitive.ObjectID) (exists bool, err error) {
	defer observe(metrics.DbOpCount, booksCollection)(&err)

	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check book: %w", err)
	}
	return count > 0, nil
}

// Create сохраняет новую книгу; агрегаты рейтинга всегда стартуют с нуля
func (r *bookRepository) Create(ctx context.Context, book *entity.Book) (err error) {
	defer observe(metrics.DbOpInsert, booksCollection)(&err)

	now := time.Now().UTC()
	book.ID = primitive.NilObjectID
	book.AverageRating = 0
	book.NumberOfReviews = 0
	book.CreatedAt = now
	book.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, book)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateISBN
		}
		return fmt.Errorf("failed to create book: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		book.ID = oid
	}

	return nil
}

// Update заменяет изменяемые поля книги и возвращает документ после обновления.
// averageRating, numberOfReviews и createdAt не трогаются.
func (r *bookRepository) Update(ctx context.Context, book *entity.Book) (updated *entity.Book, err error) {
	defer observe(metrics.DbOpUpdate, booksCollection)(&err)

	update := bson.M{
		"$set": bson.M{
			"title":           book.Title,
			"author":          book.Author,
			"isbn":            book.ISBN,
			"publicationYear": book.PublicationYear,
			"genre":           book.Genre,
			"description":     book.Description,
			"publisher":       book.Publisher,
			"pages":           book.Pages,
			"language":        book.Language,
			"updatedAt":       time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var result entity.Book
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": book.ID}, update, opts).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrBookNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateISBN
		}
		return nil, fmt.Errorf("failed to update book: %w", err)
	}

	return &result, nil
}

func (r *bookRepository) Delete(ctx context.Context, id primitive.ObjectID) (err error) {
	defer observe(metrics.DbOpDelete, booksCollection)(&err)

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrBookNotFound
	}

	return nil
}

// UpdateRating записывает пересчитанный агрегат отзывов
func (r *bookRepository) UpdateRating(ctx context.Context, id primitive.ObjectID, summary entity.RatingSummary) (err error) {
	defer observe(metrics.DbOpUpdate, booksCollection)(&err)

	update := bson.M{
		"$set": bson.M{
			"averageRating":   summary.AverageRating,
			"numberOfReviews": summary.NumberOfReviews,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update book rating: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrBookNotFound
	}

	return nil
}

// ListIDs возвращает идентификаторы всех книг (для сверки агрегатов)
func (r *bookRepository) ListIDs(ctx context.Context) (ids []primitive.ObjectID, err error) {
	defer observe(metrics.DbOpFind, booksCollection)(&err)

	opts := options.Find().SetProjection(bson.M{"_id": 1})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list book ids: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []idDoc
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode book ids: %w", err)
	}

	ids = make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}
