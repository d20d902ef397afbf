package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq" // For pq.Array and driver registration

	"system_rent_tracker/internal/domain/notify"
)

// PostgresNotificationLog records which (cycle, offset) reminders have been
// claimed. UNIQUE (cycle_id, offset_id) makes Reserve the atomic claim that
// serializes concurrent evaluators.
type PostgresNotificationLog struct {
	db *sql.DB
}

func NewPostgresNotificationLog(db *sql.DB) *PostgresNotificationLog {
	return &PostgresNotificationLog{db: db}
}

func (l *PostgresNotificationLog) Reserve(ctx context.Context, cycleID int64, offsetID string, sentAt time.Time) (bool, error) {
	query := `INSERT INTO notification_log (cycle_id, offset_id, sent_at)
               VALUES ($1, $2, $3)
               ON CONFLICT (cycle_id, offset_id) DO NOTHING`
	result, err := l.db.ExecContext(ctx, query, cycleID, offsetID, sentAt)
	if err != nil {
		return false, fmt.Errorf("error reserving notification slot: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error checking reservation result: %w", err)
	}
	return affected == 1, nil
}

func (l *PostgresNotificationLog) Retract(ctx context.Context, cycleID int64, offsetID string) error {
	query := `DELETE FROM notification_log WHERE cycle_id = $1 AND offset_id = $2`
	if _, err := l.db.ExecContext(ctx, query, cycleID, offsetID); err != nil {
		return fmt.Errorf("error retracting notification reservation: %w", err)
	}
	return nil
}

func (l *PostgresNotificationLog) SentOffsets(ctx context.Context, cycleIDs []int64) (map[notify.SentKey]struct{}, error) {
	sent := make(map[notify.SentKey]struct{})
	if len(cycleIDs) == 0 {
		return sent, nil
	}

	query := `SELECT cycle_id, offset_id FROM notification_log WHERE cycle_id = ANY($1::bigint[])`
	rows, err := l.db.QueryContext(ctx, query, pq.Array(cycleIDs))
	if err != nil {
		return nil, fmt.Errorf("error querying notification log: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key notify.SentKey
		if err := rows.Scan(&key.CycleID, &key.OffsetID); err != nil {
			return nil, fmt.Errorf("error scanning notification log row: %w", err)
		}
		sent[key] = struct{}{}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification log rows: %w", err)
	}
	return sent, nil
}
