// Package validation проверяет входные данные до обращения к хранилищу.
// Ошибки всех полей собираются в один *Errors, частичного применения нет.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"bookreviews/library-service/internal/app/library/entity"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// isbnPattern - ISBN-10 (последний символ может быть X) или ISBN-13 после удаления дефисов и пробелов.
// Контрольная цифра не проверяется.
var isbnPattern = regexp.MustCompile(`^(?:\d{9}[\dX]|\d{13})$`)

// FieldError - ошибка одного поля; Field совпадает с именем поля в JSON
type FieldError struct {
	Field   string
	Tag     string
	Message string
}

// Errors - все ошибки валидации одного запроса
type Errors struct {
	Fields []FieldError
}

func (e *Errors) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validator - обёртка над go-playground/validator с доменными тегами genre и notfuture
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

func New() *Validator {
	v := &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}

	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Ошибки регистрации возможны только при пустом имени тега
	_ = v.validate.RegisterValidation("genre", func(fl validator.FieldLevel) bool {
		return entity.IsValidGenre(fl.Field().String())
	})
	_ = v.validate.RegisterValidation("isbnformat", func(fl validator.FieldLevel) bool {
		return IsISBN(fl.Field().String())
	})
	_ = v.validate.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() <= int64(v.now().Year())
	})

	return v
}

// Struct проверяет структуру и возвращает *Errors со списком всех нарушений
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	result := &Errors{Fields: make([]FieldError, 0, len(validationErrors))}
	for _, fe := range validationErrors {
		result.Fields = append(result.Fields, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: message(fe),
		})
	}
	return result
}

// ObjectID проверяет, что value - 24-символьный hex идентификатор MongoDB
func ObjectID(field, value string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(value)
	if err != nil {
		return primitive.NilObjectID, &Errors{Fields: []FieldError{{
			Field:   field,
			Tag:     "mongodb",
			Message: "must be a valid id",
		}}}
	}
	return id, nil
}

// IsISBN проверяет формат ISBN-10/13; дефисы и пробелы между группами допускаются
func IsISBN(value string) bool {
	compact := strings.NewReplacer("-", "", " ", "").Replace(strings.ToUpper(value))
	return isbnPattern.MatchString(compact)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "isbnformat":
		return "must be a valid ISBN-10 or ISBN-13"
	case "genre":
		return "must be one of: " + strings.Join(entity.Genres, ", ")
	case "notfuture":
		return "cannot be in the future"
	case "mongodb":
		return "must be a valid id"
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}
