package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"system_rent_tracker/internal/app"
)

// TickScheduler triggers the two engine entry points on independent
// cadences. The ticks themselves are idempotent and self-healing, so
// overlapping or missed cron fires are harmless; this wrapper only logs the
// summaries for operator visibility.
type TickScheduler struct {
	cronEngine           *cron.Cron
	generation           *app.CycleGenerationService
	notification         *app.NotificationService
	logger               logrus.FieldLogger
	cronSpecGeneration   string
	cronSpecNotification string
}

func NewTickScheduler(
	generation *app.CycleGenerationService,
	notification *app.NotificationService,
	logger logrus.FieldLogger,
	cronSpecGeneration string, // e.g. "0 6 1 * *" (06:00 on the 1st)
	cronSpecNotification string, // e.g. "0 8 * * *" (08:00 daily)
) *TickScheduler {
	return &TickScheduler{
		cronEngine:           cron.New(cron.WithLocation(time.Local)), // Use server's local time for cron
		generation:           generation,
		notification:         notification,
		logger:               logger,
		cronSpecGeneration:   cronSpecGeneration,
		cronSpecNotification: cronSpecNotification,
	}
}

func (s *TickScheduler) Start() error {
	s.logger.Info("Starting tick scheduler")

	_, err := s.cronEngine.AddFunc(s.cronSpecGeneration, func() {
		s.logger.Info("Cron fired: cycle generation tick")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		summary := s.generation.RunCycleGenerationTick(ctx)
		s.logSummaryErrors("generation", summary.RunID, summary.Errors)
	})
	if err != nil {
		return err
	}

	_, err = s.cronEngine.AddFunc(s.cronSpecNotification, func() {
		s.logger.Info("Cron fired: notification tick")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		summary := s.notification.RunNotificationTick(ctx)
		s.logSummaryErrors("notification", summary.RunID, summary.Errors)
	})
	if err != nil {
		return err
	}

	s.cronEngine.Start()
	s.logger.Info("Tick scheduler started with both jobs")
	return nil
}

func (s *TickScheduler) logSummaryErrors(tick, runID string, errs []string) {
	for _, e := range errs {
		s.logger.WithFields(logrus.Fields{"tick": tick, "run_id": runID}).Error(e)
	}
}

func (s *TickScheduler) Stop() {
	s.logger.Info("Stopping tick scheduler")
	ctx := s.cronEngine.Stop() // Lets the current tick finish.
	<-ctx.Done()
	s.logger.Info("Tick scheduler gracefully stopped")
}
