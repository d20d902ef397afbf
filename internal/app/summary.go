package app

import (
	"system_rent_tracker/internal/domain/billing"
)

// GenerationSummary reports one cycle-generation tick. All failures are
// captured here instead of propagating; the scheduler only logs it.
type GenerationSummary struct {
	RunID     string
	Period    billing.Period
	Resources int
	Created   int
	Skipped   int
	Errors    []string
}

// NotificationSummary reports one notification tick.
type NotificationSummary struct {
	RunID     string
	Evaluated int
	Sent      int
	Skipped   int
	Failed    int
	Errors    []string
}
