package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// SessionStatus tracks the lifecycle of a scheduled therapy session. Sessions
// are never hard-deleted; cancellation and completion are status transitions.
type SessionStatus string

const (
	SessionStatusScheduled   SessionStatus = "scheduled"
	SessionStatusRescheduled SessionStatus = "rescheduled"
	SessionStatusCancelled   SessionStatus = "cancelled"
	SessionStatusCompleted   SessionStatus = "completed"
	// SessionStatusPendingConflict marks a session a freeze could not move to
	// a new slot within the search horizon. It requires manual follow-up.
	SessionStatusPendingConflict SessionStatus = "pending_conflict"
)

// ScheduledSession is a committed unit of therapy work.
type ScheduledSession struct {
	ID              string         `db:"id" json:"id"`
	SubscriptionID  string         `db:"subscription_id" json:"subscription_id"`
	StudentID       string         `db:"student_id" json:"student_id"`
	TherapistID     string         `db:"therapist_id" json:"therapist_id"`
	RoomID          *string        `db:"room_id" json:"room_id,omitempty"`
	Date            time.Time      `db:"session_date" json:"session_date"`
	StartTime       string         `db:"start_time" json:"start_time"`
	EndTime         string         `db:"end_time" json:"end_time"`
	DurationMinutes int            `db:"duration_minutes" json:"duration_minutes"`
	Category        string         `db:"category" json:"category"`
	Priority        int            `db:"priority" json:"priority"`
	Status          SessionStatus  `db:"status" json:"status"`
	RescheduleCount int            `db:"reschedule_count" json:"reschedule_count"`
	ConflictFlags   types.JSONText `db:"conflict_flags" json:"conflict_flags,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// SessionFilter describes query params for listing sessions.
type SessionFilter struct {
	StudentID      string
	TherapistID    string
	SubscriptionID string
	From           time.Time
	To             time.Time
	Statuses       []SessionStatus
}
