package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookreviews/library-service/internal/app/library/repository"
	"bookreviews/pkg/logger"
	"bookreviews/pkg/metrics"
)

// Reconciler восстанавливает инварианты, которые могли нарушиться из-за
// неатомарных шагов: удаляет отзывы без книги и пересчитывает рейтинг всех книг
type Reconciler struct {
	bookRepo   repository.BookRepository
	reviewRepo repository.ReviewRepository
	aggregator *RatingAggregator
}

func NewReconciler(
	bookRepo repository.BookRepository,
	reviewRepo repository.ReviewRepository,
	aggregator *RatingAggregator,
) *Reconciler {
	return &Reconciler{
		bookRepo:   bookRepo,
		reviewRepo: reviewRepo,
		aggregator: aggregator,
	}
}

func (r *Reconciler) ReconcileAll(ctx context.Context) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordReconcileRun(time.Since(start), err)
	}()

	orphaned, err := r.deleteOrphanedReviews(ctx)
	if err != nil {
		return err
	}

	bookIDs, err := r.bookRepo.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list books: %w", err)
	}

	failed := 0
	for _, id := range bookIDs {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, recomputeErr := r.aggregator.Recompute(ctx, id)
		if recomputeErr == nil || errors.Is(recomputeErr, ErrBookNotFound) {
			continue
		}
		failed++
		logger.Error().Err(recomputeErr).Str("book_id", id.Hex()).Msg("Reconcile: failed to recompute rating")
	}

	logger.Info().
		Int("books", len(bookIDs)).
		Int64("orphaned_reviews_deleted", orphaned).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("Rating reconciliation finished")

	if failed > 0 {
		return fmt.Errorf("failed to recompute %d of %d books", failed, len(bookIDs))
	}
	return nil
}

// deleteOrphanedReviews удаляет отзывы, чья книга удалена (прерванный каскад)
func (r *Reconciler) deleteOrphanedReviews(ctx context.Context) (int64, error) {
	referenced, err := r.reviewRepo.DistinctBookIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list reviewed books: %w", err)
	}

	var total int64
	for _, bookID := range referenced {
		exists, err := r.bookRepo.Exists(ctx, bookID)
		if err != nil {
			return total, fmt.Errorf("failed to check book: %w", err)
		}
		if exists {
			continue
		}

		deleted, err := r.reviewRepo.DeleteByBookID(ctx, bookID)
		if err != nil {
			return total, fmt.Errorf("failed to delete orphaned reviews: %w", err)
		}
		total += deleted
		metrics.ReviewsCascadeDeleted.Add(float64(deleted))
		logger.Warn().Str("book_id", bookID.Hex()).Int64("reviews", deleted).Msg("Deleted orphaned reviews")
	}

	return total, nil
}
