package billing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Repository defines persistence for billing cycles. Implementations must
// enforce the one-cycle-per-(resource, period) invariant at the storage
// layer; callers never do check-then-write.
type Repository interface {
	// EnsureCycle looks up the cycle for (resourceID, period) and creates it
	// with the given charge and due date when absent. Atomic with respect to
	// concurrent callers: exactly one creates, the rest observe the winner's
	// row and get created == false.
	EnsureCycle(ctx context.Context, resourceID int64, period Period, charge decimal.Decimal, dueDate time.Time) (cycle *Cycle, created bool, err error)

	// ListOpenDueWithin returns OPEN cycles whose due date falls within
	// [from, to], ordered by due date then resource ID. PAID and VOID cycles
	// are excluded.
	ListOpenDueWithin(ctx context.Context, from, to time.Time) ([]*Cycle, error)

	GetByID(ctx context.Context, id int64) (*Cycle, error)

	// MarkPaid records an external payment against a cycle. The engine never
	// calls this itself; it exists for the payment-recording surface.
	MarkPaid(ctx context.Context, id int64, amount decimal.Decimal, paidAt time.Time) error
}
