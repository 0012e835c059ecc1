package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultLanguage = "English"

// Book - документ коллекции books.
// AverageRating и NumberOfReviews вычисляются из отзывов и клиентом не задаются.
type Book struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title           string             `json:"title" bson:"title"`
	Author          string             `json:"author" bson:"author"`
	ISBN            string             `json:"isbn" bson:"isbn"`
	PublicationYear int                `json:"publicationYear" bson:"publicationYear"`
	Genre           string             `json:"genre" bson:"genre"`
	Description     string             `json:"description,omitempty" bson:"description,omitempty"`
	Publisher       string             `json:"publisher,omitempty" bson:"publisher,omitempty"`
	Pages           int                `json:"pages,omitempty" bson:"pages,omitempty"`
	Language        string             `json:"language" bson:"language"`
	AverageRating   float64            `json:"averageRating" bson:"averageRating"`
	NumberOfReviews int                `json:"numberOfReviews" bson:"numberOfReviews"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Review - документ коллекции reviews, Book ссылается на books._id
type Review struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Book         primitive.ObjectID `json:"book" bson:"book"`
	ReviewerName string             `json:"reviewerName" bson:"reviewerName"`
	Rating       int                `json:"rating" bson:"rating"` // Оценка от 1 до 5
	ReviewText   string             `json:"reviewText" bson:"reviewText"`
	ReviewDate   time.Time          `json:"reviewDate" bson:"reviewDate"`
	Helpful      int                `json:"helpful" bson:"helpful"`
	Verified     bool               `json:"verified" bson:"verified"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// BookRef - краткая информация о книге, подставляемая в отзыв через $lookup
type BookRef struct {
	ID     primitive.ObjectID `json:"id" bson:"_id"`
	Title  string             `json:"title" bson:"title"`
	Author string             `json:"author" bson:"author"`
}

// ReviewWithBook - отзыв с развёрнутой ссылкой на книгу (ответ API)
type ReviewWithBook struct {
	ID           primitive.ObjectID `json:"id" bson:"_id"`
	Book         BookRef            `json:"book" bson:"book"`
	ReviewerName string             `json:"reviewerName" bson:"reviewerName"`
	Rating       int                `json:"rating" bson:"rating"`
	ReviewText   string             `json:"reviewText" bson:"reviewText"`
	ReviewDate   time.Time          `json:"reviewDate" bson:"reviewDate"`
	Helpful      int                `json:"helpful" bson:"helpful"`
	Verified     bool               `json:"verified" bson:"verified"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// WithBook собирает ответ из отзыва и уже загруженной книги
func (r *Review) WithBook(book *Book) *ReviewWithBook {
	return &ReviewWithBook{
		ID:           r.ID,
		Book:         BookRef{ID: book.ID, Title: book.Title, Author: book.Author},
		ReviewerName: r.ReviewerName,
		Rating:       r.Rating,
		ReviewText:   r.ReviewText,
		ReviewDate:   r.ReviewDate,
		Helpful:      r.Helpful,
		Verified:     r.Verified,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// RatingSummary - агрегат отзывов книги
type RatingSummary struct {
	AverageRating   float64 `json:"averageRating"`
	NumberOfReviews int     `json:"numberOfReviews"`
}

// Типы событий, публикуемых в Kafka
const (
	EventBookCreated       = "BOOK_CREATED"
	EventBookUpdated       = "BOOK_UPDATED"
	EventBookDeleted       = "BOOK_DELETED"
	EventReviewCreated     = "REVIEW_CREATED"
	EventReviewUpdated     = "REVIEW_UPDATED"
	EventReviewDeleted     = "REVIEW_DELETED"
	EventBookRatingUpdated = "BOOK_RATING_UPDATED"
)

type LibraryEvent struct {
	EventType       string    `json:"event_type"`
	BookID          string    `json:"book_id"`
	ReviewID        string    `json:"review_id,omitempty"`
	Rating          int       `json:"rating,omitempty"`
	AverageRating   *float64  `json:"average_rating,omitempty"`
	NumberOfReviews *int      `json:"number_of_reviews,omitempty"`
	ReviewsDeleted  *int64    `json:"reviews_deleted,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// Key возвращает ключ партиционирования: все события одной книги (включая её отзывы)
// попадают в одну партицию и сохраняют порядок
func (e LibraryEvent) Key() string {
	return e.BookID
}
