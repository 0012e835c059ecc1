package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bookreviews/library-service/internal/app/library/entity"
	"bookreviews/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	bookKeyPrefix  = "book"
	metricsService = "library-service"
)

func bookKey(id string) string {
	return bookKeyPrefix + ":" + id
}

type RedisBookCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient подключается к Redis и проверяет соединение
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

func NewRedisBookCache(client *redis.Client, ttl time.Duration) *RedisBookCache {
	return &RedisBookCache{client: client, ttl: ttl}
}

func (c *RedisBookCache) GetBook(ctx context.Context, id string) (*entity.Book, error) {
	timer := metrics.NewRedisTimer(metricsService, metrics.RedisOpGet)
	defer timer.ObserveDuration()

	data, err := c.client.Get(ctx, bookKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecordCacheMiss(metricsService, bookKeyPrefix)
			return nil, nil
		}
		metrics.RecordRedisError(metricsService, metrics.RedisOpGet)
		return nil, fmt.Errorf("failed to get book from cache: %w", err)
	}

	var book entity.Book
	if err := json.Unmarshal(data, &book); err != nil {
		return nil, fmt.Errorf("failed to unmarshal book: %w", err)
	}

	metrics.RecordCacheHit(metricsService, bookKeyPrefix)
	return &book, nil
}

func (c *RedisBookCache) SetBook(ctx context.Context, book *entity.Book) error {
	timer := metrics.NewRedisTimer(metricsService, metrics.RedisOpSet)
	defer timer.ObserveDuration()

	data, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("failed to marshal book: %w", err)
	}

	if err := c.client.Set(ctx, bookKey(book.ID.Hex()), data, c.ttl).Err(); err != nil {
		metrics.RecordRedisError(metricsService, metrics.RedisOpSet)
		return fmt.Errorf("failed to set book in cache: %w", err)
	}

	return nil
}

func (c *RedisBookCache) DeleteBook(ctx context.Context, id string) error {
	timer := metrics.NewRedisTimer(metricsService, metrics.RedisOpDel)
	defer timer.ObserveDuration()

	if err := c.client.Del(ctx, bookKey(id)).Err(); err != nil {
		metrics.RecordRedisError(metricsService, metrics.RedisOpDel)
		return fmt.Errorf("failed to delete book from cache: %w", err)
	}
	return nil
}

func (c *RedisBookCache) Close() error {
	return c.client.Close()
}

// NoopBookCache используется при REDIS_ENABLED=false: всегда промах
type NoopBookCache struct{}

func (NoopBookCache) GetBook(context.Context, string) (*entity.Book, error) { return nil, nil }

func (NoopBookCache) SetBook(context.Context, *entity.Book) error { return nil }

func (NoopBookCache) DeleteBook(context.Context, string) error { return nil }

func (NoopBookCache) Close() error { return nil }
