package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"system_rent_tracker/internal/domain/notify"
)

func TestReserveClaimsSlot(t *testing.T) {
	db, mock := newMock(t)
	log := NewPostgresNotificationLog(db)

	sentAt := time.Date(2024, time.June, 28, 3, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO notification_log").
		WithArgs(int64(5), "-72h0m0s", sentAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	reserved, err := log.Reserve(context.Background(), 5, "-72h0m0s", sentAt)
	require.NoError(t, err)
	assert.True(t, reserved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ON CONFLICT DO NOTHING affects zero rows when another process holds the
// reservation; that is a skip, not an error.
func TestReserveConflictReportsNotReserved(t *testing.T) {
	db, mock := newMock(t)
	log := NewPostgresNotificationLog(db)

	mock.ExpectExec("INSERT INTO notification_log").
		WillReturnResult(sqlmock.NewResult(0, 0))

	reserved, err := log.Reserve(context.Background(), 5, "-72h0m0s", time.Now())
	require.NoError(t, err)
	assert.False(t, reserved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservePropagatesStorageError(t *testing.T) {
	db, mock := newMock(t)
	log := NewPostgresNotificationLog(db)

	mock.ExpectExec("INSERT INTO notification_log").
		WillReturnError(sql.ErrConnDone)

	_, err := log.Reserve(context.Background(), 5, "0s", time.Now())
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRetract(t *testing.T) {
	db, mock := newMock(t)
	log := NewPostgresNotificationLog(db)

	mock.ExpectExec("DELETE FROM notification_log").
		WithArgs(int64(5), "0s").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, log.Retract(context.Background(), 5, "0s"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRetractMissingReservationIsNoOp(t *testing.T) {
	db, mock := newMock(t)
	log := NewPostgresNotificationLog(db)

	mock.ExpectExec("DELETE FROM notification_log").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, log.Retract(context.Background(), 99, "0s"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSentOffsets(t *testing.T) {
	db, mock := newMock(t)
	log := NewPostgresNotificationLog(db)

	rows := sqlmock.NewRows([]string{"cycle_id", "offset_id"}).
		AddRow(5, "-72h0m0s").
		AddRow(5, "-24h0m0s").
		AddRow(6, "0s")
	mock.ExpectQuery("SELECT cycle_id, offset_id FROM notification_log").
		WillReturnRows(rows)

	sent, err := log.SentOffsets(context.Background(), []int64{5, 6})
	require.NoError(t, err)
	assert.Len(t, sent, 3)
	_, ok := sent[notify.SentKey{CycleID: 5, OffsetID: "-24h0m0s"}]
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSentOffsetsEmptyInput(t *testing.T) {
	db, mock := newMock(t)
	log := NewPostgresNotificationLog(db)

	sent, err := log.SentOffsets(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, sent)
	assert.NoError(t, mock.ExpectationsWereMet(), "no query issued for an empty cycle set")
}
