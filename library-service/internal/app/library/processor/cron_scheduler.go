package processor

import (
	"context"

	"bookreviews/library-service/internal/app/library/service"
	"bookreviews/pkg/logger"

	"github.com/robfig/cron/v3"
)

// CronScheduler периодически запускает сверку рейтингов книг
type CronScheduler struct {
	cron       *cron.Cron
	reconciler service.ReconcilerInterface
}

// NewCronScheduler принимает расписание из 6 полей (с секундами) или дескрипторы вида @every 1h
func NewCronScheduler(reconciler service.ReconcilerInterface) *CronScheduler {
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLogger(cron.PrintfLogger(logger.Get())),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(logger.Get()))),
	)

	return &CronScheduler{
		cron:       c,
		reconciler: reconciler,
	}
}

func (s *CronScheduler) Start(ctx context.Context, schedule string) error {
	logger.Info().Str("schedule", schedule).Msg("Starting cron scheduler")

	_, err := s.cron.AddFunc(schedule, func() {
		s.run(ctx, "Cron job triggered: reconciling book ratings")
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	logger.Info().Msg("Cron scheduler started")

	s.run(ctx, "Performing initial rating reconciliation")

	return nil
}

func (s *CronScheduler) run(ctx context.Context, reason string) {
	logger.Info().Msg(reason)

	if err := s.reconciler.ReconcileAll(ctx); err != nil {
		logger.Error().Err(err).Msg("Rating reconciliation failed")
		return
	}
	logger.Info().Msg("Rating reconciliation completed")
}

func (s *CronScheduler) Stop() {
	logger.Info().Msg("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("Cron scheduler stopped")
}

func (s *CronScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}
