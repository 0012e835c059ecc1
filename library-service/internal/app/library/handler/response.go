package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"bookreviews/library-service/internal/app/library/entity"
	"bookreviews/library-service/internal/app/library/service"
	"bookreviews/library-service/internal/app/library/validation"
	"bookreviews/pkg/logger"

	"github.com/gin-gonic/gin"
)

// respondError переводит ошибку сервиса в HTTP ответ:
// валидация и конфликт - 400, не найдено - 404, остальное - 500 с текстом ошибки
func respondError(c *gin.Context, err error) {
	var verr *validation.Errors

	switch {
	case errors.As(err, &verr):
		details := make([]entity.FieldErrorResponse, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			details = append(details, entity.FieldErrorResponse{Field: f.Field, Message: f.Message})
		}
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Validation failed", Details: details})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: err.Error()})
	default:
		logger.Error().
			Err(err).
			Str("method", c.Request.Method).
			Str("route", c.FullPath()).
			Msg("Request failed")
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: err.Error()})
	}
}

// respondBindError отвечает 400 на тело или query, которые не удалось разобрать.
// Несовпадение типа (например дробный rating) сообщается как ошибка поля.
func respondBindError(c *gin.Context, message string, err error) {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{
			Error: message,
			Details: []entity.FieldErrorResponse{{
				Field:   typeErr.Field,
				Message: "must be of type " + typeErr.Type.String(),
			}},
		})
		return
	}

	c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: message})
}
