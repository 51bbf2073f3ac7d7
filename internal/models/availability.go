package models

import "time"

// TherapistAvailability is one recurring weekly window (or a dated time-off
// exception) for a therapist. The engine only reads these rows and derives
// remaining capacity; administration mutates them elsewhere.
type TherapistAvailability struct {
	ID                 string     `db:"id" json:"id"`
	TherapistID        string     `db:"therapist_id" json:"therapist_id"`
	DayOfWeek          int        `db:"day_of_week" json:"day_of_week"`
	StartTime          string     `db:"start_time" json:"start_time"`
	EndTime            string     `db:"end_time" json:"end_time"`
	IsRecurring        bool       `db:"is_recurring" json:"is_recurring"`
	SpecificDate       *time.Time `db:"specific_date" json:"specific_date,omitempty"`
	IsTimeOff          bool       `db:"is_time_off" json:"is_time_off"`
	MaxSessionsPerSlot int        `db:"max_sessions_per_slot" json:"max_sessions_per_slot"`
	CurrentBookings    int        `db:"current_bookings" json:"current_bookings"`
	BufferMinutes      int        `db:"buffer_minutes" json:"buffer_minutes"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}
