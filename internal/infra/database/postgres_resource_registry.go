package database

import (
	"context"
	"database/sql"
	"fmt"

	"system_rent_tracker/internal/domain/resource"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Custom errors
var ErrResourceNotFound = fmt.Errorf("resource not found")
var ErrOwnershipNotFound = fmt.Errorf("open ownership record not found")

// PostgresResourceRegistry is the read-only registry over the resources and
// ownership_records tables.
type PostgresResourceRegistry struct {
	db *sql.DB
}

func NewPostgresResourceRegistry(db *sql.DB) *PostgresResourceRegistry {
	return &PostgresResourceRegistry{db: db}
}

const resourceColumns = `r.id, r.name, r.ownership_mode, r.monthly_charge, r.rent_active, r.discord_channel, r.created_at, r.updated_at`

func scanResource(row interface{ Scan(...any) error }) (*resource.Resource, error) {
	res := &resource.Resource{}
	err := row.Scan(&res.ID, &res.Name, &res.Mode, &res.MonthlyCharge,
		&res.RentActive, &res.DiscordChannel, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *PostgresResourceRegistry) ListActiveWithOwner(ctx context.Context) ([]*resource.ActiveResource, error) {
	query := `SELECT ` + resourceColumns + `, o.owner_id
               FROM resources r
               JOIN ownership_records o ON o.resource_id = r.id AND o.effective_to IS NULL
               WHERE r.rent_active = TRUE
               ORDER BY r.id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing active resources: %w", err)
	}
	defer rows.Close()

	active := make([]*resource.ActiveResource, 0)
	for rows.Next() {
		res := &resource.Resource{}
		ar := &resource.ActiveResource{Resource: res}
		if err := rows.Scan(&res.ID, &res.Name, &res.Mode, &res.MonthlyCharge,
			&res.RentActive, &res.DiscordChannel, &res.CreatedAt, &res.UpdatedAt, &ar.OwnerID); err != nil {
			return nil, fmt.Errorf("error scanning active resource: %w", err)
		}
		active = append(active, ar)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating active resources: %w", err)
	}
	return active, nil
}

func (r *PostgresResourceRegistry) GetByID(ctx context.Context, id int64) (*resource.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources r WHERE r.id = $1`
	res, err := scanResource(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrResourceNotFound
		}
		return nil, fmt.Errorf("error getting resource by ID: %w", err)
	}
	return res, nil
}

func (r *PostgresResourceRegistry) OpenOwnership(ctx context.Context, resourceID int64) (*resource.OwnershipRecord, error) {
	query := `SELECT id, resource_id, owner_id, effective_from, effective_to
               FROM ownership_records
               WHERE resource_id = $1 AND effective_to IS NULL`
	rec := &resource.OwnershipRecord{}
	err := r.db.QueryRowContext(ctx, query, resourceID).Scan(
		&rec.ID, &rec.ResourceID, &rec.OwnerID, &rec.EffectiveFrom, &rec.EffectiveTo)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOwnershipNotFound
		}
		return nil, fmt.Errorf("error getting open ownership record: %w", err)
	}
	return rec, nil
}
