package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alnumo/IEP-Management-System-sub012/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func sessionRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "subscription_id", "student_id", "therapist_id", "room_id", "session_date", "start_time", "end_time", "duration_minutes", "category", "priority", "status", "reschedule_count", "conflict_flags", "created_at", "updated_at"}).
		AddRow("s-1", "sub-1", "st-1", "th-1", nil, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), "09:00", "09:45", 45, "speech", 5, "scheduled", 0, nil, time.Now(), time.Now())
}

func TestSessionRepositoryListByTherapistRange(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM scheduled_sessions WHERE therapist_id = \\$1").
		WithArgs("th-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sessionRows())

	sessions, err := repo.ListByTherapistRange(context.Background(), "th-1", time.Now(), time.Now())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "s-1", sessions[0].ID)
	assert.Equal(t, models.SessionStatusScheduled, sessions[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryBulkCreateAssignsIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO scheduled_sessions").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO scheduled_sessions").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)

	sessions := []models.ScheduledSession{
		{SubscriptionID: "sub-1", StudentID: "st-1", TherapistID: "th-1", Date: time.Now(), StartTime: "09:00", EndTime: "09:45", DurationMinutes: 45},
		{SubscriptionID: "sub-1", StudentID: "st-1", TherapistID: "th-1", Date: time.Now(), StartTime: "10:00", EndTime: "10:45", DurationMinutes: 45},
	}
	require.NoError(t, repo.BulkCreateWithTx(context.Background(), tx, sessions))
	require.NoError(t, tx.Commit())

	assert.NotEmpty(t, sessions[0].ID)
	assert.NotEmpty(t, sessions[1].ID)
	assert.Equal(t, models.SessionStatusScheduled, sessions[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryBulkCreateNilTx(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	err := repo.BulkCreateWithTx(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestSessionRepositoryReschedule(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE scheduled_sessions SET session_date = \\$1").
		WithArgs(sqlmock.AnyArg(), "10:00", "10:45", sqlmock.AnyArg(), "s-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	require.NoError(t, repo.RescheduleWithTx(context.Background(), tx, "s-1", time.Now(), "10:00", "10:45"))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE scheduled_sessions SET status = \\$1").
		WithArgs(models.SessionStatusPendingConflict, sqlmock.AnyArg(), "s-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	require.NoError(t, repo.UpdateStatusWithTx(context.Background(), tx, "s-1", models.SessionStatusPendingConflict))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}
