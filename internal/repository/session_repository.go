package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Alnumo/IEP-Management-System-sub012/internal/models"
)

const sessionColumns = "id, subscription_id, student_id, therapist_id, room_id, session_date, start_time, end_time, duration_minutes, category, priority, status, reschedule_count, conflict_flags, created_at, updated_at"

// SessionRepository provides persistence for scheduled sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// ListByTherapistRange returns committed sessions for a therapist inside the
// date range. Cancelled and completed sessions no longer block slots.
func (r *SessionRepository) ListByTherapistRange(ctx context.Context, therapistID string, from, to time.Time) ([]models.ScheduledSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM scheduled_sessions WHERE therapist_id = $1 AND session_date BETWEEN $2 AND $3 AND status IN ('scheduled', 'rescheduled', 'pending_conflict') ORDER BY session_date ASC, start_time ASC`, sessionColumns)
	var sessions []models.ScheduledSession
	if err := r.db.SelectContext(ctx, &sessions, query, therapistID, from, to); err != nil {
		return nil, fmt.Errorf("list sessions by therapist: %w", err)
	}
	return sessions, nil
}

// ListByStudentRange returns committed sessions for a student inside the range.
func (r *SessionRepository) ListByStudentRange(ctx context.Context, studentID string, from, to time.Time) ([]models.ScheduledSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM scheduled_sessions WHERE student_id = $1 AND session_date BETWEEN $2 AND $3 AND status IN ('scheduled', 'rescheduled', 'pending_conflict') ORDER BY session_date ASC, start_time ASC`, sessionColumns)
	var sessions []models.ScheduledSession
	if err := r.db.SelectContext(ctx, &sessions, query, studentID, from, to); err != nil {
		return nil, fmt.Errorf("list sessions by student: %w", err)
	}
	return sessions, nil
}

// ListByRoomRange returns committed sessions occupying a room inside the range.
func (r *SessionRepository) ListByRoomRange(ctx context.Context, roomID string, from, to time.Time) ([]models.ScheduledSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM scheduled_sessions WHERE room_id = $1 AND session_date BETWEEN $2 AND $3 AND status IN ('scheduled', 'rescheduled', 'pending_conflict') ORDER BY session_date ASC, start_time ASC`, sessionColumns)
	var sessions []models.ScheduledSession
	if err := r.db.SelectContext(ctx, &sessions, query, roomID, from, to); err != nil {
		return nil, fmt.Errorf("list sessions by room: %w", err)
	}
	return sessions, nil
}

// ListByStudent returns all sessions for a student ordered by date, any status.
func (r *SessionRepository) ListByStudent(ctx context.Context, studentID string) ([]models.ScheduledSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM scheduled_sessions WHERE student_id = $1 ORDER BY session_date ASC, start_time ASC`, sessionColumns)
	var sessions []models.ScheduledSession
	if err := r.db.SelectContext(ctx, &sessions, query, studentID); err != nil {
		return nil, fmt.Errorf("list sessions by student: %w", err)
	}
	return sessions, nil
}

// BulkCreateWithTx inserts sessions using an existing transaction. The unique
// constraint on (therapist_id, session_date, start_time) is the last line of
// defence against two concurrent runs claiming the same slot.
func (r *SessionRepository) BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, sessions []models.ScheduledSession) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	now := time.Now().UTC()
	for i := range sessions {
		payload := sessions[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if payload.Status == "" {
			payload.Status = models.SessionStatusScheduled
		}
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}
		payload.UpdatedAt = now

		if _, err := sqlx.NamedExecContext(ctx, tx, `INSERT INTO scheduled_sessions (id, subscription_id, student_id, therapist_id, room_id, session_date, start_time, end_time, duration_minutes, category, priority, status, reschedule_count, conflict_flags, created_at, updated_at) VALUES (:id, :subscription_id, :student_id, :therapist_id, :room_id, :session_date, :start_time, :end_time, :duration_minutes, :category, :priority, :status, :reschedule_count, :conflict_flags, :created_at, :updated_at)`, &payload); err != nil {
			return fmt.Errorf("bulk insert session: %w", err)
		}
		sessions[i] = payload
	}
	return nil
}

// RescheduleWithTx moves a session to a new slot and bumps its reschedule count.
func (r *SessionRepository) RescheduleWithTx(ctx context.Context, tx *sqlx.Tx, id string, date time.Time, startTime, endTime string) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	const query = `UPDATE scheduled_sessions SET session_date = $1, start_time = $2, end_time = $3, status = 'rescheduled', reschedule_count = reschedule_count + 1, updated_at = $4 WHERE id = $5`
	if _, err := tx.ExecContext(ctx, query, date, startTime, endTime, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("reschedule session: %w", err)
	}
	return nil
}

// UpdateStatusWithTx transitions a session's status. Sessions are never
// hard-deleted.
func (r *SessionRepository) UpdateStatusWithTx(ctx context.Context, tx *sqlx.Tx, id string, status models.SessionStatus) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	const query = `UPDATE scheduled_sessions SET status = $1, updated_at = $2 WHERE id = $3`
	if _, err := tx.ExecContext(ctx, query, status, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update session status: %w", err)
	}
	return nil
}
