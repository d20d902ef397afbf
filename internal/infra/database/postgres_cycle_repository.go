package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"system_rent_tracker/internal/domain/billing"
)

// Custom errors
var ErrCycleNotFound = fmt.Errorf("billing cycle not found")

// PostgresCycleRepository persists billing cycles. The billing_cycles table
// carries UNIQUE (resource_id, period); EnsureCycle leans on it instead of
// checking first in application code.
type PostgresCycleRepository struct {
	db *sql.DB
}

func NewPostgresCycleRepository(db *sql.DB) *PostgresCycleRepository {
	return &PostgresCycleRepository{db: db}
}

const cycleColumns = `id, resource_id, period, charge, due_date, status, created_at`

func scanCycle(row interface{ Scan(...any) error }) (*billing.Cycle, error) {
	c := &billing.Cycle{}
	var period time.Time
	err := row.Scan(&c.ID, &c.ResourceID, &period, &c.Charge, &c.DueDate, &c.Status, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.Period = billing.PeriodOf(period)
	return c, nil
}

// EnsureCycle inserts the cycle for (resourceID, period) and, when the row
// already exists, returns it with created == false. The ON CONFLICT path is
// what makes concurrent ticks safe: exactly one caller creates the row.
func (r *PostgresCycleRepository) EnsureCycle(ctx context.Context, resourceID int64, period billing.Period, charge decimal.Decimal, dueDate time.Time) (*billing.Cycle, bool, error) {
	insert := `INSERT INTO billing_cycles (resource_id, period, charge, due_date, status)
               VALUES ($1, $2, $3, $4, $5)
               ON CONFLICT (resource_id, period) DO NOTHING
               RETURNING ` + cycleColumns
	periodDate := period.Start(time.UTC)

	cycle, err := scanCycle(r.db.QueryRowContext(ctx, insert, resourceID, periodDate, charge, dueDate, billing.StatusOpen))
	if err == nil {
		return cycle, true, nil
	}
	if err != sql.ErrNoRows {
		return nil, false, fmt.Errorf("error creating billing cycle: %w", err)
	}

	// Conflict: the winner's row is already there.
	query := `SELECT ` + cycleColumns + ` FROM billing_cycles WHERE resource_id = $1 AND period = $2`
	cycle, err = scanCycle(r.db.QueryRowContext(ctx, query, resourceID, periodDate))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, fmt.Errorf("cycle for resource %d period %s vanished after conflict: %w", resourceID, period, ErrCycleNotFound)
		}
		return nil, false, fmt.Errorf("error reading existing billing cycle: %w", err)
	}
	return cycle, false, nil
}

func (r *PostgresCycleRepository) ListOpenDueWithin(ctx context.Context, from, to time.Time) ([]*billing.Cycle, error) {
	query := `SELECT ` + cycleColumns + `
               FROM billing_cycles
               WHERE status = $1 AND due_date >= $2 AND due_date <= $3
               ORDER BY due_date, resource_id`
	rows, err := r.db.QueryContext(ctx, query, billing.StatusOpen, from, to)
	if err != nil {
		return nil, fmt.Errorf("error listing open cycles: %w", err)
	}
	defer rows.Close()

	cycles := make([]*billing.Cycle, 0)
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning billing cycle: %w", err)
		}
		cycles = append(cycles, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating billing cycles: %w", err)
	}
	return cycles, nil
}

func (r *PostgresCycleRepository) GetByID(ctx context.Context, id int64) (*billing.Cycle, error) {
	query := `SELECT ` + cycleColumns + ` FROM billing_cycles WHERE id = $1`
	cycle, err := scanCycle(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCycleNotFound
		}
		return nil, fmt.Errorf("error getting billing cycle by ID: %w", err)
	}
	return cycle, nil
}

// MarkPaid transitions a cycle to PAID. Called by the external
// payment-recording surface, never by the engine's ticks.
func (r *PostgresCycleRepository) MarkPaid(ctx context.Context, id int64, amount decimal.Decimal, paidAt time.Time) error {
	query := `UPDATE billing_cycles
               SET status = $1, paid_amount = $2, paid_at = $3
               WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, billing.StatusPaid, amount, paidAt, id)
	if err != nil {
		return fmt.Errorf("error marking billing cycle paid: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking mark-paid result: %w", err)
	}
	if affected == 0 {
		return ErrCycleNotFound
	}
	return nil
}
