package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"bookreviews/library-service/internal/app/library/entity"
	"bookreviews/library-service/internal/app/library/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore - хранилище в памяти с семантикой Mongo-репозиториев для сценарных тестов
type memStore struct {
	mu      sync.Mutex
	books   map[primitive.ObjectID]entity.Book
	reviews map[primitive.ObjectID]entity.Review
	seq     time.Time
}

func newMemStore() *memStore {
	return &memStore{
		books:   make(map[primitive.ObjectID]entity.Book),
		reviews: make(map[primitive.ObjectID]entity.Review),
		seq:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick выдаёт строго возрастающее время, чтобы сортировка по createdAt была детерминированной
func (m *memStore) tick() time.Time {
	m.seq = m.seq.Add(time.Second)
	return m.seq
}

type memBooks struct{ *memStore }

type memReviews struct{ *memStore }

func (m memBooks) EnsureIndexes(context.Context) error { return nil }

func (m memBooks) List(_ context.Context, f repository.BookFilter) ([]entity.Book, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matched := make([]entity.Book, 0)
	for _, b := range m.books {
		if f.Genre != "" && b.Genre != f.Genre {
			continue
		}
		if f.Author != "" && !containsFold(b.Author, f.Author) {
			continue
		}
		if f.Search != "" && !containsFold(b.Title, f.Search) && !containsFold(b.Author, f.Search) && !containsFold(b.Description, f.Search) {
			continue
		}
		matched = append(matched, b)
	}

	sort.Slice(matched, func(i, j int) bool {
		if f.Order == entity.SortAsc {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := min(f.Skip, total)
	end := min(start+f.Limit, total)
	return matched[start:end], total, nil
}

func (m memBooks) GetByID(_ context.Context, id primitive.ObjectID) (*entity.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.books[id]
	if !ok {
		return nil, repository.ErrBookNotFound
	}
	return &b, nil
}

func (m memBooks) Exists(_ context.Context, id primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.books[id]
	return ok, nil
}

func (m memBooks) Create(_ context.Context, book *entity.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isbnTaken(book.ISBN, primitive.NilObjectID) {
		return repository.ErrDuplicateISBN
	}

	now := m.tick()
	book.ID = primitive.NewObjectID()
	book.AverageRating = 0
	book.NumberOfReviews = 0
	book.CreatedAt = now
	book.UpdatedAt = now
	m.books[book.ID] = *book
	return nil
}

func (m memBooks) Update(_ context.Context, book *entity.Book) (*entity.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.books[book.ID]
	if !ok {
		return nil, repository.ErrBookNotFound
	}
	if m.isbnTaken(book.ISBN, book.ID) {
		return nil, repository.ErrDuplicateISBN
	}

	updated := *book
	updated.AverageRating = current.AverageRating
	updated.NumberOfReviews = current.NumberOfReviews
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = m.tick()
	m.books[book.ID] = updated
	return &updated, nil
}

func (m memBooks) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.books[id]; !ok {
		return repository.ErrBookNotFound
	}
	delete(m.books, id)
	return nil
}

func (m memBooks) UpdateRating(_ context.Context, id primitive.ObjectID, summary entity.RatingSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.books[id]
	if !ok {
		return repository.ErrBookNotFound
	}
	b.AverageRating = summary.AverageRating
	b.NumberOfReviews = summary.NumberOfReviews
	m.books[id] = b
	return nil
}

func (m memBooks) ListIDs(context.Context) ([]primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]primitive.ObjectID, 0, len(m.books))
	for id := range m.books {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m memReviews) EnsureIndexes(context.Context) error { return nil }

func (m memReviews) List(_ context.Context, f repository.ReviewFilter) ([]entity.ReviewWithBook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]entity.ReviewWithBook, 0)
	for _, r := range m.reviews {
		if !f.BookID.IsZero() && r.Book != f.BookID {
			continue
		}
		if f.Rating > 0 && r.Rating != f.Rating {
			continue
		}
		book, ok := m.books[r.Book]
		if !ok {
			continue
		}
		result = append(result, *r.WithBook(&book))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m memReviews) GetByID(_ context.Context, id primitive.ObjectID) (*entity.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reviews[id]
	if !ok {
		return nil, repository.ErrReviewNotFound
	}
	return &r, nil
}

func (m memReviews) GetWithBook(_ context.Context, id primitive.ObjectID) (*entity.ReviewWithBook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reviews[id]
	if !ok {
		return nil, repository.ErrReviewNotFound
	}
	book, ok := m.books[r.Book]
	if !ok {
		return nil, repository.ErrReviewNotFound
	}
	return r.WithBook(&book), nil
}

func (m memReviews) Create(_ context.Context, review *entity.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.tick()
	review.ID = primitive.NewObjectID()
	review.Helpful = 0
	review.CreatedAt = now
	review.UpdatedAt = now
	if review.ReviewDate.IsZero() {
		review.ReviewDate = now
	}
	m.reviews[review.ID] = *review
	return nil
}

func (m memReviews) Update(_ context.Context, review *entity.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.reviews[review.ID]
	if !ok {
		return repository.ErrReviewNotFound
	}
	current.Book = review.Book
	current.ReviewerName = review.ReviewerName
	current.Rating = review.Rating
	current.ReviewText = review.ReviewText
	current.Verified = review.Verified
	current.UpdatedAt = m.tick()
	m.reviews[review.ID] = current
	return nil
}

func (m memReviews) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.reviews[id]; !ok {
		return repository.ErrReviewNotFound
	}
	delete(m.reviews, id)
	return nil
}

func (m memReviews) DeleteByBookID(_ context.Context, bookID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	for id, r := range m.reviews {
		if r.Book == bookID {
			delete(m.reviews, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m memReviews) IncrementHelpful(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reviews[id]
	if !ok {
		return repository.ErrReviewNotFound
	}
	r.Helpful++
	m.reviews[id] = r
	return nil
}

func (m memReviews) RatingsByBook(_ context.Context, bookID primitive.ObjectID) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ratings := make([]int, 0)
	for _, r := range m.reviews {
		if r.Book == bookID {
			ratings = append(ratings, r.Rating)
		}
	}
	return ratings, nil
}

func (m memReviews) DistinctBookIDs(context.Context) ([]primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[primitive.ObjectID]bool)
	ids := make([]primitive.ObjectID, 0)
	for _, r := range m.reviews {
		if !seen[r.Book] {
			seen[r.Book] = true
			ids = append(ids, r.Book)
		}
	}
	return ids, nil
}

func (m *memStore) isbnTaken(isbn string, except primitive.ObjectID) bool {
	for id, b := range m.books {
		if id != except && b.ISBN == isbn {
			return true
		}
	}
	return false
}

func (m *memStore) reviewCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reviews)
}

// addOrphan кладёт отзыв на несуществующую книгу, как после прерванного каскада
func (m *memStore) addOrphan(bookID primitive.ObjectID, rating int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := primitive.NewObjectID()
	m.reviews[id] = entity.Review{ID: id, Book: bookID, Rating: rating, CreatedAt: m.tick()}
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
