package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a billing cycle. Transitions away from
// OPEN happen outside the engine (payment recording, admin write-off); the
// engine only ever creates OPEN cycles and reads status.
type Status string

const (
	StatusOpen Status = "OPEN"
	StatusPaid Status = "PAID"
	StatusVoid Status = "VOID"
)

// Cycle is one rent obligation for one resource in one period.
// The pair (ResourceID, Period) is unique across all cycles ever created;
// the database constraint is the idempotency guarantee, not application code.
type Cycle struct {
	ID         int64
	ResourceID int64
	Period     Period
	// Charge is copied from the resource at creation time. A later price
	// change must not retroactively alter an existing cycle.
	Charge    decimal.Decimal
	DueDate   time.Time
	Status    Status
	CreatedAt time.Time
}

// Open reports whether the cycle is still eligible for reminders.
func (c *Cycle) Open() bool {
	return c.Status == StatusOpen
}
