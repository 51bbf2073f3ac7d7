package models

import "time"

// SubscriptionStatus tracks the freeze state machine of a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusFrozen    SubscriptionStatus = "frozen"
	SubscriptionStatusCompleted SubscriptionStatus = "completed"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

// Subscription represents a student's therapy program enrolment. The engine
// mutates end_date, freeze counters and status through the freeze coordinator
// only; everything else is owned by administration.
type Subscription struct {
	ID                string             `db:"id" json:"id"`
	StudentID         string             `db:"student_id" json:"student_id"`
	StartDate         time.Time          `db:"start_date" json:"start_date"`
	EndDate           time.Time          `db:"end_date" json:"end_date"`
	OriginalEndDate   time.Time          `db:"original_end_date" json:"original_end_date"`
	FreezeDaysAllowed int                `db:"freeze_days_allowed" json:"freeze_days_allowed"`
	FreezeDaysUsed    int                `db:"freeze_days_used" json:"freeze_days_used"`
	Status            SubscriptionStatus `db:"status" json:"status"`
	TotalSessions     int                `db:"total_sessions" json:"total_sessions"`
	CompletedSessions int                `db:"completed_sessions" json:"completed_sessions"`
	PriceTotal        float64            `db:"price_total" json:"price_total"`
	CreatedAt         time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time          `db:"updated_at" json:"updated_at"`
}

// RemainingFreezeDays returns how many freeze days the subscription can still spend.
func (s *Subscription) RemainingFreezeDays() int {
	remaining := s.FreezeDaysAllowed - s.FreezeDaysUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}
