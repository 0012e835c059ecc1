package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"bookreviews/library-service/internal/app/library/config"
	"bookreviews/library-service/internal/app/library/handler"
	"bookreviews/library-service/internal/app/library/infrastructure"
	"bookreviews/library-service/internal/app/library/infrastructure/cache"
	"bookreviews/library-service/internal/app/library/infrastructure/messaging"
	"bookreviews/library-service/internal/app/library/processor"
	"bookreviews/library-service/internal/app/library/repository"
	"bookreviews/library-service/internal/app/library/service"
	"bookreviews/library-service/internal/app/library/validation"
	"bookreviews/pkg/logger"
)

const serviceName = "library-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(serviceName, cfg.Log.Level)

	if cfg.Log.LogstashAddr != "" {
		if err := logger.InitLogstash(cfg.Log.LogstashAddr, serviceName, cfg.Log.Level); err != nil {
			logger.Warn().Err(err).Msg("Failed to connect to Logstash, using stdout only")
		} else {
			logger.Info().Str("logstash_addr", cfg.Log.LogstashAddr).Msg("Connected to Logstash")
		}
	}

	mongoClient, err := connectMongoDB(cfg.MongoDB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(ctx); err != nil {
			logger.Error().Err(err).Msg("Error disconnecting from MongoDB")
		}
	}()
	logger.Info().
		Str("database", cfg.MongoDB.Database).
		Msg("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB.Database)

	bookRepo := repository.NewBookRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	ensureIndexes(bookRepo, reviewRepo)

	bookCache := newBookCache(cfg.Redis)
	defer bookCache.Close()

	publisher := newPublisher(cfg.Kafka)
	defer publisher.Close()

	validator := validation.New()
	aggregator := service.NewRatingAggregator(bookRepo, reviewRepo, bookCache, publisher)
	bookService := service.NewBookService(bookRepo, reviewRepo, bookCache, publisher, validator)
	reviewService := service.NewReviewService(bookRepo, reviewRepo, aggregator, publisher, validator)
	reconciler := service.NewReconciler(bookRepo, reviewRepo, aggregator)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var scheduler *processor.CronScheduler
	if cfg.Reconciler.Schedule != "" {
		scheduler = processor.NewCronScheduler(reconciler)
		// Первичная сверка идёт в фоне, чтобы не задерживать старт HTTP
		go func() {
			if err := scheduler.Start(ctx, cfg.Reconciler.Schedule); err != nil {
				logger.Error().Err(err).Str("schedule", cfg.Reconciler.Schedule).Msg("Failed to start cron scheduler")
			}
		}()
	} else {
		logger.Info().Msg("Rating reconciler disabled")
	}

	router := handler.SetupRoutes(
		handler.NewBookHandler(bookService),
		handler.NewReviewHandler(reviewService),
		mongoHealth{client: mongoClient},
	)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("Starting Library Service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down Library Service...")

	cancel()
	if scheduler != nil {
		scheduler.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Library Service stopped gracefully")
}

func connectMongoDB(cfg config.MongoDBConfig) (*mongo.Client, error) {
	clientOptions := options.Client().
		ApplyURI(cfg.URI).
		SetTimeout(cfg.Timeout)

	var client *mongo.Client
	var err error

	for i := 0; i < 10; i++ {
		client, err = mongo.Connect(context.Background(), clientOptions)
		if err == nil {
			pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
			err = client.Ping(pingCtx, readpref.Primary())
			pingCancel()
			if err == nil {
				return client, nil
			}
			_ = client.Disconnect(context.Background())
		}

		logger.Warn().
			Int("attempt", i+1).
			Err(err).
			Msg("Failed to connect to MongoDB, retrying...")
		time.Sleep(3 * time.Second)
	}

	return nil, err
}

// ensureIndexes не останавливает сервис: без индексов он работает, но уникальность ISBN не гарантируется
func ensureIndexes(repos ...interface{ EnsureIndexes(context.Context) error }) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, r := range repos {
		if err := r.EnsureIndexes(ctx); err != nil {
			logger.Warn().Err(err).Msg("Failed to create indexes")
		}
	}
}

func newBookCache(cfg config.RedisConfig) infrastructure.BookCache {
	if !cfg.Enabled {
		logger.Info().Msg("Redis cache disabled")
		return cache.NoopBookCache{}
	}

	client, err := cache.NewRedisClient(cfg.Address(), cfg.Password, cfg.DB)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to connect to Redis, book cache disabled")
		return cache.NoopBookCache{}
	}

	logger.Info().
		Str("address", cfg.Address()).
		Dur("ttl", cfg.BookTTL).
		Msg("Connected to Redis")
	return cache.NewRedisBookCache(client, cfg.BookTTL)
}

func newPublisher(cfg config.KafkaConfig) infrastructure.MessagePublisher {
	if !cfg.Enabled {
		logger.Info().Msg("Kafka events disabled")
		return messaging.NoopPublisher{}
	}

	logger.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Msg("Initialized Kafka producer")
	return messaging.NewKafkaProducer(cfg.Brokers, cfg.Topic)
}

type mongoHealth struct {
	client *mongo.Client
}

func (h mongoHealth) Ping(ctx context.Context) error {
	return h.client.Ping(ctx, readpref.Primary())
}
