package notify

import (
	"context"
	"time"
)

// Record is one row of the notification log: proof that the reminder for
// (cycle, offset) has been claimed. UNIQUE (cycle_id, offset_id) in storage
// is the anti-duplicate guarantee.
type Record struct {
	ID       int64
	CycleID  int64
	OffsetID string
	SentAt   time.Time
}

// SentKey identifies a (cycle, offset) pair in the log.
type SentKey struct {
	CycleID  int64
	OffsetID string
}

// Log defines persistence for notification records.
type Log interface {
	// Reserve atomically claims the (cycle, offset) slot before delivery.
	// Returns false when another process already holds the reservation;
	// that is a normal skip, not an error.
	Reserve(ctx context.Context, cycleID int64, offsetID string, sentAt time.Time) (bool, error)

	// Retract releases a reservation after a failed delivery so a later tick
	// can retry. Retracting a reservation that no longer exists is a no-op.
	Retract(ctx context.Context, cycleID int64, offsetID string) error

	// SentOffsets returns the set of already-claimed (cycle, offset) pairs
	// for the given cycles.
	SentOffsets(ctx context.Context, cycleIDs []int64) (map[SentKey]struct{}, error)
}
