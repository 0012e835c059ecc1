package repository

import (
	"errors"
	"regexp"

	"bookreviews/library-service/internal/app/library/entity"
	"bookreviews/pkg/metrics"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// observe запускает таймер операции; возвращённую функцию нужно вызвать через defer с адресом ошибки.
// Доменные ошибки (не найдено, дубликат) не считаются ошибками БД.
func observe(op metrics.DbOperation, collection string) func(*error) {
	timer := metrics.NewDbTimer(metricsService, op, collection)
	return func(errp *error) {
		err := *errp
		if errors.Is(err, ErrBookNotFound) || errors.Is(err, ErrReviewNotFound) || errors.Is(err, ErrDuplicateISBN) {
			err = nil
		}
		timer.Observe(err)
	}
}

// containsFold - регулярное выражение "подстрока без учёта регистра" с экранированием ввода
func containsFold(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

// sortOrder возвращает сортировку по разрешённому полю; _id добавляется для стабильной пагинации
func sortOrder(field, order string, allowed map[string]bool, fallback string) bson.D {
	if !allowed[field] {
		field = fallback
	}
	direction := -1
	if order == entity.SortAsc {
		direction = 1
	}
	return bson.D{{Key: field, Value: direction}, {Key: "_id", Value: direction}}
}

type idDoc struct {
	ID primitive.ObjectID `bson:"_id"`
}
