package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"system_rent_tracker/internal/domain/billing"
	"system_rent_tracker/internal/domain/notify"
	"system_rent_tracker/internal/domain/resource"
)

// NotificationService evaluates which reminders are due and dispatches them.
// Duplicate suppression does not live here: the notification log's unique
// constraint is the guarantee, and this service merely reserves before
// sending and retracts on failure. Concurrent ticks are therefore safe.
type NotificationService struct {
	cycles   billing.Repository
	log      notify.Log
	registry resource.Registry
	resolver OwnerResolver
	notifier notify.Notifier
	renderer *Renderer
	logger   logrus.FieldLogger
	offsets  []notify.Offset
	// lookbackMonths bounds how old a due date may be and still be
	// considered; mirrors the generation lookback.
	lookbackMonths int
	deliverTimeout time.Duration
	defaultChatID  int64
	now            func() time.Time
}

func NewNotificationService(
	cycles billing.Repository,
	log notify.Log,
	registry resource.Registry,
	resolver OwnerResolver,
	notifier notify.Notifier,
	renderer *Renderer,
	logger logrus.FieldLogger,
	offsets []notify.Offset,
	lookbackMonths int,
	deliverTimeout time.Duration,
	defaultChatID int64,
) *NotificationService {
	return &NotificationService{
		cycles:         cycles,
		log:            log,
		registry:       registry,
		resolver:       resolver,
		notifier:       notifier,
		renderer:       renderer,
		logger:         logger,
		offsets:        offsets,
		lookbackMonths: lookbackMonths,
		deliverTimeout: deliverTimeout,
		defaultChatID:  defaultChatID,
		now:            time.Now,
	}
}

// WithClock overrides the wall clock, for tests.
func (s *NotificationService) WithClock(now func() time.Time) *NotificationService {
	s.now = now
	return s
}

// RunNotificationTick finds every (cycle, offset) pair whose trigger time has
// been crossed and is not yet in the notification log, then reserves,
// renders and delivers each in due-date/offset order. Failures retract the
// reservation and are reported in the summary; the method never fails.
func (s *NotificationService) RunNotificationTick(ctx context.Context) NotificationSummary {
	now := s.now()
	summary := NotificationSummary{RunID: uuid.NewString()}
	log := s.logger.WithField("run_id", summary.RunID)
	log.Info("Starting notification tick")

	from := now.AddDate(0, -(s.lookbackMonths + 1), 0)
	to := now.Add(notify.MaxAdvance(s.offsets))
	cycles, err := s.cycles.ListOpenDueWithin(ctx, from, to)
	if err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("listing open cycles: %v", err))
		log.WithError(err).Error("Could not list open cycles; tick aborted")
		return summary
	}
	summary.Evaluated = len(cycles)

	cycleIDs := make([]int64, len(cycles))
	for i, c := range cycles {
		cycleIDs[i] = c.ID
	}
	sent, err := s.log.SentOffsets(ctx, cycleIDs)
	if err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("loading notification log: %v", err))
		log.WithError(err).Error("Could not load notification log; tick aborted")
		return summary
	}

	for _, p := range notify.DueToFire(now, cycles, s.offsets, sent) {
		s.dispatch(ctx, log, p, now, &summary)
	}

	log.WithFields(logrus.Fields{
		"evaluated": summary.Evaluated,
		"sent":      summary.Sent,
		"skipped":   summary.Skipped,
		"failed":    summary.Failed,
		"errors":    len(summary.Errors),
	}).Info("Notification tick complete")
	return summary
}

func (s *NotificationService) dispatch(ctx context.Context, log logrus.FieldLogger, p notify.Pending, now time.Time, summary *NotificationSummary) {
	itemLog := log.WithFields(logrus.Fields{
		"cycle_id":    p.Cycle.ID,
		"resource_id": p.Cycle.ResourceID,
		"offset":      p.Offset.ID,
	})

	res, err := s.registry.GetByID(ctx, p.Cycle.ResourceID)
	if err != nil {
		summary.Failed++
		summary.Errors = append(summary.Errors, fmt.Sprintf("cycle %d offset %s: loading resource: %v", p.Cycle.ID, p.Offset.ID, err))
		itemLog.WithError(err).Error("Could not load resource for reminder")
		return
	}

	ownerID, err := s.resolver.ResolveBillableOwner(ctx, res, p.Cycle.Period)
	if err != nil {
		summary.Failed++
		summary.Errors = append(summary.Errors, fmt.Sprintf("cycle %d offset %s: %v", p.Cycle.ID, p.Offset.ID, err))
		itemLog.WithError(err).Error("Could not resolve billable owner for reminder")
		return
	}

	msg, err := s.renderer.Render(res, p.Cycle, p.Offset, now)
	if err != nil {
		summary.Failed++
		summary.Errors = append(summary.Errors, fmt.Sprintf("cycle %d offset %s: %v", p.Cycle.ID, p.Offset.ID, err))
		itemLog.WithError(err).Error("Could not render reminder message")
		return
	}

	// Reserve before delivering: a conflict means another process claimed
	// this pair, so skip silently. On delivery failure the reservation is
	// retracted and the reminder retried on a later tick.
	reserved, err := s.log.Reserve(ctx, p.Cycle.ID, p.Offset.ID, now)
	if err != nil {
		summary.Failed++
		summary.Errors = append(summary.Errors, fmt.Sprintf("cycle %d offset %s: reserving: %v", p.Cycle.ID, p.Offset.ID, err))
		itemLog.WithError(err).Error("Could not reserve notification slot")
		return
	}
	if !reserved {
		summary.Skipped++
		itemLog.Info("Notification already reserved elsewhere; skipping")
		return
	}

	target := notify.Target{ChatID: s.defaultChatID, OwnerID: ownerID}
	if res.DiscordChannel.Valid {
		target.Channel = res.DiscordChannel.String
	}

	dctx, cancel := context.WithTimeout(ctx, s.deliverTimeout)
	err = s.notifier.Deliver(dctx, target, msg)
	cancel()
	if err != nil {
		if rerr := s.log.Retract(ctx, p.Cycle.ID, p.Offset.ID); rerr != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("cycle %d offset %s: retracting after failed delivery: %v", p.Cycle.ID, p.Offset.ID, rerr))
			itemLog.WithError(rerr).Error("Could not retract reservation after failed delivery")
		}
		summary.Failed++
		summary.Errors = append(summary.Errors, fmt.Sprintf("cycle %d offset %s: delivering: %v", p.Cycle.ID, p.Offset.ID, err))
		itemLog.WithError(err).Error("Delivery failed; reservation retracted for retry")
		return
	}

	summary.Sent++
	itemLog.WithFields(logrus.Fields{"owner_id": ownerID, "kind": string(msg.Kind)}).Info("Reminder delivered")
}
