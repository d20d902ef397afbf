package app

import (
	"context"
	"fmt"

	"system_rent_tracker/internal/domain/billing"
	"system_rent_tracker/internal/domain/resource"
)

// OwnerResolver decides which owning entity a cycle's reminders address.
// Mid-period ownership changes are a policy question the engine does not
// answer itself; swap the implementation to bill the previous owner, split,
// or prorate.
type OwnerResolver interface {
	ResolveBillableOwner(ctx context.Context, res *resource.Resource, period billing.Period) (int64, error)
}

// CurrentOwnerResolver bills whoever holds the open ownership record at
// evaluation time.
type CurrentOwnerResolver struct {
	registry resource.Registry
}

func NewCurrentOwnerResolver(registry resource.Registry) *CurrentOwnerResolver {
	return &CurrentOwnerResolver{registry: registry}
}

func (r *CurrentOwnerResolver) ResolveBillableOwner(ctx context.Context, res *resource.Resource, _ billing.Period) (int64, error) {
	rec, err := r.registry.OpenOwnership(ctx, res.ID)
	if err != nil {
		return 0, fmt.Errorf("resolving billable owner for resource %d: %w", res.ID, err)
	}
	return rec.OwnerID, nil
}
