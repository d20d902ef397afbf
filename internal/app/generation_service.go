package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"system_rent_tracker/internal/domain/billing"
	"system_rent_tracker/internal/domain/resource"
)

// CycleGenerationService materializes missing billing cycles on each tick.
// The tick is fully idempotent and self-healing: it computes the complete
// correct set of cycles as of now, bounded by the configured lookback, so a
// missed or duplicated trigger never loses or duplicates cycles.
type CycleGenerationService struct {
	registry resource.Registry
	cycles   billing.Repository
	logger   logrus.FieldLogger
	// lookbackMonths bounds catch-up: periods older than this many months
	// before the current one are never backfilled. Required configuration.
	lookbackMonths int
	loc            *time.Location
	now            func() time.Time
}

func NewCycleGenerationService(
	registry resource.Registry,
	cycles billing.Repository,
	logger logrus.FieldLogger,
	lookbackMonths int,
	loc *time.Location,
) *CycleGenerationService {
	return &CycleGenerationService{
		registry:       registry,
		cycles:         cycles,
		logger:         logger,
		lookbackMonths: lookbackMonths,
		loc:            loc,
		now:            time.Now,
	}
}

// WithClock overrides the wall clock, for tests.
func (s *CycleGenerationService) WithClock(now func() time.Time) *CycleGenerationService {
	s.now = now
	return s
}

// RunCycleGenerationTick creates every missing cycle for every active
// resource, from the lookback horizon up to and including the current
// period. Per-resource failures are recorded in the summary and do not
// abort the tick; the method itself never fails.
func (s *CycleGenerationService) RunCycleGenerationTick(ctx context.Context) GenerationSummary {
	now := s.now().In(s.loc)
	current := billing.PeriodOf(now)
	summary := GenerationSummary{RunID: uuid.NewString(), Period: current}

	log := s.logger.WithFields(logrus.Fields{"run_id": summary.RunID, "period": current.String()})
	log.Info("Starting cycle generation tick")

	active, err := s.registry.ListActiveWithOwner(ctx)
	if err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("listing active resources: %v", err))
		log.WithError(err).Error("Could not list active resources; tick aborted")
		return summary
	}
	summary.Resources = len(active)

	start := current.AddMonths(-s.lookbackMonths)
	for _, ar := range active {
		res := ar.Resource
		for p := start; !p.After(current); p = p.Next() {
			cycle, created, err := s.cycles.EnsureCycle(ctx, res.ID, p, res.MonthlyCharge, p.DueDate(s.loc))
			if err != nil {
				summary.Errors = append(summary.Errors, fmt.Sprintf("resource %d period %s: %v", res.ID, p, err))
				log.WithError(err).WithFields(logrus.Fields{"resource_id": res.ID, "cycle_period": p.String()}).
					Error("Cycle creation failed; continuing with remaining resources")
				continue
			}
			if created {
				summary.Created++
				log.WithFields(logrus.Fields{
					"resource_id":  res.ID,
					"cycle_id":     cycle.ID,
					"cycle_period": p.String(),
					"charge":       cycle.Charge.String(),
				}).Info("Created billing cycle")
			} else {
				summary.Skipped++
			}
		}
	}

	log.WithFields(logrus.Fields{
		"resources": summary.Resources,
		"created":   summary.Created,
		"skipped":   summary.Skipped,
		"errors":    len(summary.Errors),
	}).Info("Cycle generation tick complete")
	return summary
}
