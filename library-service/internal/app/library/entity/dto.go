package entity

import (
	"math"
	"strings"
)

// BookRequest - тело POST/PUT /api/books. Поля рейтинга намеренно отсутствуют:
// averageRating и numberOfReviews из запроса игнорируются.
type BookRequest struct {
	Title           string `json:"title" validate:"required,min=1,max=200"`
	Author          string `json:"author" validate:"required,min=1,max=100"`
	ISBN            string `json:"isbn" validate:"required,isbnformat"`
	PublicationYear int    `json:"publicationYear" validate:"required,min=1000,notfuture"`
	Genre           string `json:"genre" validate:"required,genre"`
	Description     string `json:"description" validate:"max=1000"`
	Publisher       string `json:"publisher" validate:"max=100"`
	Pages           int    `json:"pages" validate:"omitempty,min=1"`
	Language        string `json:"language" validate:"max=50"`
}

// Normalize обрезает пробелы и подставляет значения по умолчанию
func (r *BookRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Author = strings.TrimSpace(r.Author)
	r.ISBN = strings.TrimSpace(r.ISBN)
	r.Genre = strings.TrimSpace(r.Genre)
	r.Description = strings.TrimSpace(r.Description)
	r.Publisher = strings.TrimSpace(r.Publisher)
	r.Language = strings.TrimSpace(r.Language)
	if r.Language == "" {
		r.Language = DefaultLanguage
	}
}

// ReviewRequest - тело POST/PUT /api/reviews. helpful меняется только через PATCH .../helpful.
type ReviewRequest struct {
	Book         string `json:"book" validate:"required,mongodb"`
	ReviewerName string `json:"reviewerName" validate:"required,min=2,max=100"`
	Rating       int    `json:"rating" validate:"required,min=1,max=5"`
	ReviewText   string `json:"reviewText" validate:"required,min=10,max=2000"`
	Verified     bool   `json:"verified"`
}

func (r *ReviewRequest) Normalize() {
	r.Book = strings.TrimSpace(r.Book)
	r.ReviewerName = strings.TrimSpace(r.ReviewerName)
	r.ReviewText = strings.TrimSpace(r.ReviewText)
}

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	SortAsc  = "asc"
	SortDesc = "desc"
)

// BookListQuery - параметры GET /api/books
type BookListQuery struct {
	Genre  string `form:"genre"`
	Author string `form:"author"`
	Search string `form:"search"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
	SortBy string `form:"sortBy"`
	Order  string `form:"order"`
}

// Normalize приводит пагинацию к допустимым значениям
func (q *BookListQuery) Normalize() {
	q.Genre = strings.TrimSpace(q.Genre)
	q.Author = strings.TrimSpace(q.Author)
	q.Search = strings.TrimSpace(q.Search)
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.Order != SortAsc {
		q.Order = SortDesc
	}
}

// Skip - сколько документов пропустить для текущей страницы.
// При переполнении возвращает math.MaxInt64: страница просто окажется пустой.
func (q *BookListQuery) Skip() int64 {
	page, limit := int64(q.Page-1), int64(q.Limit)
	if page <= 0 || limit <= 0 {
		return 0
	}
	if page > math.MaxInt64/limit {
		return math.MaxInt64
	}
	return page * limit
}

// ReviewListQuery - параметры GET /api/reviews
type ReviewListQuery struct {
	Book   string `form:"book"`
	Rating int    `form:"rating"`
	Sort   string `form:"sort"`
	Order  string `form:"order"`
}

func (q *ReviewListQuery) Normalize() {
	q.Book = strings.TrimSpace(q.Book)
	if q.Order != SortAsc {
		q.Order = SortDesc
	}
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// NewPagination считает количество страниц как ceil(total/limit)
func NewPagination(page, limit int, total int64) Pagination {
	pages := int64(0)
	if limit > 0 {
		pages = (total + int64(limit) - 1) / int64(limit)
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

type BookListResponse struct {
	Books      []Book     `json:"books"`
	Pagination Pagination `json:"pagination"`
}

type DeleteBookResponse struct {
	Message        string `json:"message"`
	ReviewsDeleted int64  `json:"reviewsDeleted"`
}

// FieldErrorResponse - ошибка валидации отдельного поля
type FieldErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse - стандартный ответ об ошибке
type ErrorResponse struct {
	Error   string               `json:"error"`
	Details []FieldErrorResponse `json:"details,omitempty"`
}

// SuccessResponse - стандартный ответ об успехе
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
