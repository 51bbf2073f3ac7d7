package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/Alnumo/IEP-Management-System-sub012/internal/dto"
	"github.com/Alnumo/IEP-Management-System-sub012/internal/models"
)

// AssemblyParams carries the per-run limits and the metadata stamped on every
// session the assembler emits.
type AssemblyParams struct {
	SubscriptionID  string
	StudentID       string
	Category        string
	Priority        int
	TotalSessions   int
	SessionsPerWeek int
	MaxGapDays      int
	MaxSuggestions  int
}

// AssemblyResult is the in-memory outcome of one assembly pass. Sessions carry
// no IDs yet; the repository assigns them at persist time.
type AssemblyResult struct {
	Sessions        []models.ScheduledSession
	Unscheduled     int
	Conflicts       []dto.ConflictDetail
	Suggestions     []dto.ScheduleSuggestion
	MeanScore       float64
	PreferenceScore float64
	Warnings        []models.LocalizedMessage
}

// Assemble walks the ranked candidates and commits greedily until the demand
// is met. A group commits atomically: either every slot in it is free and
// within capacity, or the whole group is skipped. Rejected near-misses become
// bounded suggestions instead of disappearing.
func Assemble(scored []ScoredGroup, detector *ConflictDetector, params AssemblyParams) AssemblyResult {
	var result AssemblyResult
	if params.TotalSessions <= 0 {
		return result
	}
	maxSuggestions := params.MaxSuggestions
	if maxSuggestions <= 0 {
		maxSuggestions = 10
	}

	// Remaining capacity of each availability window, decremented as slots
	// commit. Keyed therapist:date:window-start so two bookings in one window
	// consume the same budget.
	windowBudget := make(map[string]int)
	weekLoad := make(map[string]int)

	var scoreSum, preferenceSum float64

	for _, candidate := range scored {
		if len(result.Sessions) >= params.TotalSessions {
			break
		}
		if len(result.Sessions)+len(candidate.Group.Slots) > params.TotalSessions {
			continue
		}

		conflict := groupConflict(candidate.Group, detector, windowBudget, weekLoad, params.SessionsPerWeek, params.StudentID)
		if conflict != nil {
			if len(result.Suggestions) < maxSuggestions {
				slot := candidate.Group.Slots[0]
				result.Conflicts = append(result.Conflicts, *conflict)
				result.Suggestions = append(result.Suggestions, dto.ScheduleSuggestion{
					Date:        dateKey(slot.Date),
					StartTime:   formatClock(slot.StartMin),
					EndTime:     formatClock(slot.EndMin),
					TherapistID: slot.TherapistID,
					Conflict:    *conflict,
				})
			}
			continue
		}

		for _, slot := range candidate.Group.Slots {
			detector.Commit(slot.Date, slot.StartMin, slot.EndMin, slot.TherapistID, "", params.StudentID)
			windowBudget[windowKey(slot)]--
			weekLoad[weekKey(slot.Date)]++
			result.Sessions = append(result.Sessions, models.ScheduledSession{
				SubscriptionID:  params.SubscriptionID,
				StudentID:       params.StudentID,
				TherapistID:     slot.TherapistID,
				Date:            slot.Date,
				StartTime:       formatClock(slot.StartMin),
				EndTime:         formatClock(slot.EndMin),
				DurationMinutes: slot.EndMin - slot.StartMin,
				Category:        params.Category,
				Priority:        params.Priority,
				Status:          models.SessionStatusScheduled,
			})
			scoreSum += candidate.Score
			preferenceSum += candidate.Preference * 100
		}
	}

	result.Unscheduled = params.TotalSessions - len(result.Sessions)
	if n := len(result.Sessions); n > 0 {
		result.MeanScore = scoreSum / float64(n)
		result.PreferenceScore = preferenceSum / float64(n)
	}
	if gap := maxGap(result.Sessions); params.MaxGapDays > 0 && gap > params.MaxGapDays {
		result.Warnings = append(result.Warnings, models.LocalizedMessage{
			Field: "maxGapBetweenSessions",
			En:    fmt.Sprintf("largest gap between sessions is %d days, exceeding the requested maximum of %d", gap, params.MaxGapDays),
			Ar:    fmt.Sprintf("أكبر فجوة بين الجلسات هي %d يوماً وتتجاوز الحد الأقصى المطلوب %d", gap, params.MaxGapDays),
		})
	}
	return result
}

// groupConflict returns the first reason the group cannot commit, or nil. A
// capacity or weekly-load rejection is reported as a therapist conflict so the
// caller surfaces it the same way as an overlap.
func groupConflict(group CandidateGroup, detector *ConflictDetector, windowBudget map[string]int, weekLoad map[string]int, sessionsPerWeek int, studentID string) *dto.ConflictDetail {
	weekDemand := make(map[string]int)
	windowDemand := make(map[string]int)
	for _, slot := range group.Slots {
		if c := detector.Check(slot.Date, slot.StartMin, slot.EndMin, slot.TherapistID, "", studentID); c != nil {
			return c
		}
		key := windowKey(slot)
		if _, seen := windowBudget[key]; !seen {
			windowBudget[key] = slot.Capacity
		}
		windowDemand[key]++
		if windowDemand[key] > windowBudget[key] {
			return &dto.ConflictDetail{
				Resource:   resourceTherapist,
				ResourceID: slot.TherapistID,
				Date:       dateKey(slot.Date),
				StartTime:  formatClock(slot.StartMin),
				EndTime:    formatClock(slot.EndMin),
			}
		}
		weekDemand[weekKey(slot.Date)]++
	}
	if sessionsPerWeek > 0 {
		for week, demand := range weekDemand {
			if weekLoad[week]+demand > sessionsPerWeek {
				slot := group.Slots[0]
				return &dto.ConflictDetail{
					Resource:   resourceStudent,
					ResourceID: studentID,
					Date:       dateKey(slot.Date),
					StartTime:  formatClock(slot.StartMin),
					EndTime:    formatClock(slot.EndMin),
				}
			}
		}
	}
	return nil
}

func windowKey(slot CandidateSlot) string {
	return slot.TherapistID + ":" + dateKey(slot.Date) + ":" + formatClock(slot.WindowStart)
}

func weekKey(date time.Time) string {
	year, week := date.ISOWeek()
	return fmt.Sprintf("%d-%02d", year, week)
}

// maxGap returns the largest day gap between consecutive committed sessions.
// Sessions arrive in assembly order, so dates are re-sorted first.
func maxGap(sessions []models.ScheduledSession) int {
	if len(sessions) < 2 {
		return 0
	}
	dates := make([]time.Time, len(sessions))
	for i, s := range sessions {
		dates[i] = truncateDate(s.Date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	largest := 0
	for i := 1; i < len(dates); i++ {
		gap := inclusiveDays(dates[i-1], dates[i]) - 2
		if gap > largest {
			largest = gap
		}
	}
	return largest
}
