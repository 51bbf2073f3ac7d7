package dto

import (
	"github.com/Alnumo/IEP-Management-System-sub012/internal/models"
)

// TimeWindow is a clock window in "HH:MM" form, end exclusive.
type TimeWindow struct {
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime" validate:"required"`
}

// SchedulingRequest asks the engine to turn a subscription into a
// conflict-free calendar of sessions. Dates are "YYYY-MM-DD"; days of week are
// 0 (Sunday) through 6 (Saturday). The request is ephemeral and never persisted.
type SchedulingRequest struct {
	SubscriptionID         string       `json:"subscriptionId" validate:"required"`
	TemplateID             *string      `json:"templateId,omitempty"`
	StartDate              string       `json:"startDate" validate:"required"`
	EndDate                string       `json:"endDate" validate:"required"`
	TotalSessions          int          `json:"totalSessions"`
	SessionDurationMinutes int          `json:"sessionDurationMinutes"`
	SessionsPerWeek        int          `json:"sessionsPerWeek"`
	PreferredDays          []int        `json:"preferredDays,omitempty" validate:"omitempty,dive,min=0,max=6"`
	AvoidDays              []int        `json:"avoidDays,omitempty" validate:"omitempty,dive,min=0,max=6"`
	PreferredTimes         []TimeWindow `json:"preferredTimes,omitempty" validate:"omitempty,dive"`
	AvoidTimes             []TimeWindow `json:"avoidTimes,omitempty" validate:"omitempty,dive"`
	PreferredTherapistID   *string      `json:"preferredTherapistId,omitempty"`
	PriorityLevel          int          `json:"priorityLevel" validate:"omitempty,min=1,max=10"`
	FlexibilityScore       int          `json:"flexibilityScore" validate:"omitempty,min=0,max=100"`
	RequiresConsecutive    bool         `json:"requiresConsecutiveSessions"`
	MaxSessionsPerDay      int          `json:"maxSessionsPerDay" validate:"omitempty,min=0"`
	MaxGapDays             int          `json:"maxGapBetweenSessions" validate:"omitempty,min=0"`
	SessionCategory        string       `json:"sessionCategory,omitempty"`
}

// ValidationResult is the pure outcome of request validation. Errors carry
// bilingual messages; the caller blocks submission when IsValid is false.
type ValidationResult struct {
	IsValid bool                      `json:"isValid"`
	Errors  []models.LocalizedMessage `json:"errors"`
}

// ConflictDetail identifies the resource a candidate collided with.
type ConflictDetail struct {
	Resource   string `json:"resource"`
	ResourceID string `json:"resourceId"`
	Date       string `json:"date"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	SessionID  string `json:"sessionId,omitempty"`
}

// ScheduleSuggestion is a near-miss candidate returned instead of silently
// dropping unscheduled demand.
type ScheduleSuggestion struct {
	Date        string         `json:"date"`
	StartTime   string         `json:"startTime"`
	EndTime     string         `json:"endTime"`
	TherapistID string         `json:"therapistId"`
	Conflict    ConflictDetail `json:"conflict"`
}

// SchedulingResult is the output aggregate of a generation run. Ephemeral:
// the sessions themselves are persisted, the aggregate is not.
type SchedulingResult struct {
	GeneratedSessions   []models.ScheduledSession `json:"generatedSessions"`
	UnscheduledSessions int                       `json:"unscheduledSessions"`
	Conflicts           []ConflictDetail          `json:"conflicts"`
	Suggestions         []ScheduleSuggestion      `json:"suggestions"`
	OptimizationScore   float64                   `json:"optimizationScore"`
	UtilizationScore    float64                   `json:"utilizationScore"`
	PreferenceScore     float64                   `json:"preferenceScore"`
	Warnings            []models.LocalizedMessage `json:"warnings"`
	GenerationTimeMs    int64                     `json:"generationTimeMs"`
}

// CapacityCheckRequest validates a single proposed assignment.
type CapacityCheckRequest struct {
	TherapistID string `json:"therapistId" validate:"required"`
	Date        string `json:"date" validate:"required"`
	StartTime   string `json:"startTime" validate:"required"`
	EndTime     string `json:"endTime" validate:"required"`
}

// CapacityCheckResult reports whether the assignment fits and the therapist's
// post-assignment utilization for observability.
type CapacityCheckResult struct {
	Allowed     bool                     `json:"allowed"`
	Utilization float64                  `json:"utilization"`
	Reason      *models.LocalizedMessage `json:"reason,omitempty"`
}
