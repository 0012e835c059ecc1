package metrics

import (
	"time"
)

// =============================================================================
// MongoDB
// =============================================================================

type DbOperation string

const (
	DbOpFind      DbOperation = "find"
	DbOpCount     DbOperation = "count"
	DbOpAggregate DbOperation = "aggregate"
	DbOpInsert    DbOperation = "insert"
	DbOpUpdate    DbOperation = "update"
	DbOpDelete    DbOperation = "delete"
)

type DbTimer struct {
	service    string
	operation  DbOperation
	collection string
	start      time.Time
}

func NewDbTimer(service string, op DbOperation, collection string) *DbTimer {
	return &DbTimer{
		service:    service,
		operation:  op,
		collection: collection,
		start:      time.Now(),
	}
}

// Observe записывает длительность операции и, если err != nil, счётчик ошибок.
// Удобно вызывать через defer с именованным результатом.
func (dt *DbTimer) Observe(err error) {
	DbQueryDuration.WithLabelValues(dt.service, string(dt.operation), dt.collection).
		Observe(time.Since(dt.start).Seconds())
	if err != nil {
		DbErrors.WithLabelValues(dt.service, string(dt.operation), dt.collection).Inc()
	}
}

// =============================================================================
// Redis
// =============================================================================

type RedisOperation string

const (
	RedisOpGet RedisOperation = "get"
	RedisOpSet RedisOperation = "set"
	RedisOpDel RedisOperation = "del"
)

type RedisTimer struct {
	service   string
	operation RedisOperation
	start     time.Time
}

func NewRedisTimer(service string, op RedisOperation) *RedisTimer {
	return &RedisTimer{
		service:   service,
		operation: op,
		start:     time.Now(),
	}
}

func (rt *RedisTimer) ObserveDuration() {
	RedisOperationDuration.WithLabelValues(rt.service, string(rt.operation)).
		Observe(time.Since(rt.start).Seconds())
}

func RecordCacheHit(service, keyPrefix string) {
	RedisCacheHits.WithLabelValues(service, keyPrefix).Inc()
}

func RecordCacheMiss(service, keyPrefix string) {
	RedisCacheMisses.WithLabelValues(service, keyPrefix).Inc()
}

func RecordRedisError(service string, op RedisOperation) {
	RedisErrors.WithLabelValues(service, string(op)).Inc()
}

// =============================================================================
// Kafka
// =============================================================================

type KafkaProduceTimer struct {
	service string
	topic   string
	start   time.Time
}

func NewKafkaProduceTimer(service, topic string) *KafkaProduceTimer {
	return &KafkaProduceTimer{
		service: service,
		topic:   topic,
		start:   time.Now(),
	}
}

func (kt *KafkaProduceTimer) Success() {
	KafkaMessagesProduced.WithLabelValues(kt.service, kt.topic).Inc()
	KafkaProduceDuration.WithLabelValues(kt.service, kt.topic).Observe(time.Since(kt.start).Seconds())
}

func (kt *KafkaProduceTimer) Error() {
	KafkaErrors.WithLabelValues(kt.service, kt.topic, "produce").Inc()
}

// =============================================================================
// Рейтинг
// =============================================================================

func RecordRatingRecompute(err error) {
	if err != nil {
		RatingRecomputations.WithLabelValues("failed").Inc()
		return
	}
	RatingRecomputations.WithLabelValues("success").Inc()
}

func RecordReconcileRun(duration time.Duration, err error) {
	ReconcileDuration.Observe(duration.Seconds())
	if err != nil {
		ReconcileRuns.WithLabelValues("failed").Inc()
		return
	}
	ReconcileRuns.WithLabelValues("success").Inc()
}
