package resource

import (
	"context"
)

// Registry defines read access to resources and their ownership records.
// The engine never writes through this interface.
type Registry interface {
	// ListActiveWithOwner returns every resource with RentActive set and a
	// currently-open ownership record, paired with that record's owner.
	ListActiveWithOwner(ctx context.Context) ([]*ActiveResource, error)

	GetByID(ctx context.Context, id int64) (*Resource, error)

	// OpenOwnership returns the resource's open ownership record, if any.
	OpenOwnership(ctx context.Context, resourceID int64) (*OwnershipRecord, error)
}
