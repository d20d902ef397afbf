package resource

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// OwnershipMode classifies who controls a resource.
type OwnershipMode string

const (
	ModeOwned     OwnershipMode = "OWNED"
	ModeLeased    OwnershipMode = "LEASED"
	ModeUnclaimed OwnershipMode = "UNCLAIMED"
)

// Resource is a rentable solar system. The engine reads resources; all
// mutation (claiming, pricing, deactivation) happens through surfaces outside
// this core.
type Resource struct {
	ID   int64
	Name string
	Mode OwnershipMode
	// MonthlyCharge is the configured rent used for newly created cycles.
	MonthlyCharge decimal.Decimal
	RentActive    bool
	// DiscordChannel routes reminder notifications for this resource.
	DiscordChannel sql.NullString
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OwnershipRecord ties a resource to an owning entity for a span of time.
// At most one record per resource may be open (EffectiveTo not set).
type OwnershipRecord struct {
	ID            int64
	ResourceID    int64
	OwnerID       int64
	EffectiveFrom time.Time
	EffectiveTo   sql.NullTime
}

// Open reports whether the record is the resource's current ownership.
func (r *OwnershipRecord) Open() bool {
	return !r.EffectiveTo.Valid
}

// ActiveResource is a resource paired with its current owner, as returned by
// the registry query the cycle generator runs on each tick.
type ActiveResource struct {
	Resource *Resource
	OwnerID  int64
}
