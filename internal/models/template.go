package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// TemplateTimeWindow is a preferred clock window inside a schedule template.
type TemplateTimeWindow struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// ScheduleTemplate is a reusable day/time/duration pattern administrators
// define to seed candidate generation. Read-only to the engine.
type ScheduleTemplate struct {
	ID                     string         `db:"id" json:"id"`
	Name                   string         `db:"name" json:"name"`
	NameAr                 string         `db:"name_ar" json:"name_ar"`
	SessionDurationMinutes int            `db:"session_duration_minutes" json:"session_duration_minutes"`
	SessionsPerWeek        int            `db:"sessions_per_week" json:"sessions_per_week"`
	PreferredDays          types.JSONText `db:"preferred_days" json:"preferred_days"`
	PreferredTimes         types.JSONText `db:"preferred_times" json:"preferred_times"`
	AllowWeekends          bool           `db:"allow_weekends" json:"allow_weekends"`
	AllowEvenings          bool           `db:"allow_evenings" json:"allow_evenings"`
	MaxSessionsPerDay      int            `db:"max_sessions_per_day" json:"max_sessions_per_day"`
	PreferredTherapistID   *string        `db:"preferred_therapist_id" json:"preferred_therapist_id,omitempty"`
	CreatedAt              time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time      `db:"updated_at" json:"updated_at"`
}
