package service

import "errors"

var (
	// Классы ошибок, по которым handler выбирает HTTP статус
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")

	ErrBookNotFound   error = &domainError{msg: "Book not found", kind: ErrNotFound}
	ErrReviewNotFound error = &domainError{msg: "Review not found", kind: ErrNotFound}
	ErrDuplicateISBN  error = &domainError{msg: "Book with this ISBN already exists", kind: ErrConflict}
)

// domainError - конкретная ошибка бизнес-логики, относящаяся к одному из классов выше
type domainError struct {
	msg  string
	kind error
}

func (e *domainError) Error() string { return e.msg }

func (e *domainError) Unwrap() error { return e.kind }
