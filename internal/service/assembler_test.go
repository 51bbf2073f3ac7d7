package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alnumo/IEP-Management-System-sub012/internal/models"
)

func scoredGroups(groups ...CandidateGroup) []ScoredGroup {
	scored := make([]ScoredGroup, len(groups))
	for i, g := range groups {
		scored[i] = ScoredGroup{Group: g, Score: float64(100 - i), Preference: 1}
	}
	return scored
}

func TestAssembleCommitsUpToDemand(t *testing.T) {
	scored := scoredGroups(
		slotGroup("th-1", "2024-06-03", 9*60, 45),
		slotGroup("th-1", "2024-06-05", 9*60, 45),
		slotGroup("th-1", "2024-06-07", 9*60, 45),
	)
	result := Assemble(scored, NewConflictDetector(nil), AssemblyParams{
		SubscriptionID: "sub-1",
		StudentID:      "st-1",
		Category:       "speech",
		TotalSessions:  2,
	})

	require.Len(t, result.Sessions, 2)
	assert.Equal(t, 0, result.Unscheduled)
	for _, session := range result.Sessions {
		assert.Equal(t, "sub-1", session.SubscriptionID)
		assert.Equal(t, "st-1", session.StudentID)
		assert.Equal(t, "speech", session.Category)
		assert.Equal(t, models.SessionStatusScheduled, session.Status)
		assert.Equal(t, 45, session.DurationMinutes)
	}
}

func TestAssembleSkipsConflictsAndSuggests(t *testing.T) {
	detector := NewConflictDetector(nil)
	detector.Commit(day("2024-06-03"), 9*60, 10*60, "th-1", "", "other-student")

	scored := scoredGroups(
		slotGroup("th-1", "2024-06-03", 9*60, 45),
		slotGroup("th-1", "2024-06-04", 9*60, 45),
	)
	result := Assemble(scored, detector, AssemblyParams{
		SubscriptionID: "sub-1",
		StudentID:      "st-1",
		TotalSessions:  1,
	})

	require.Len(t, result.Sessions, 1)
	assert.Equal(t, "2024-06-04", dateKey(result.Sessions[0].Date))
	require.Len(t, result.Suggestions, 1)
	assert.Equal(t, "2024-06-03", result.Suggestions[0].Date)
	assert.Equal(t, "therapist", result.Suggestions[0].Conflict.Resource)
	require.Len(t, result.Conflicts, 1)
}

func TestAssembleWindowCapacityExhausts(t *testing.T) {
	group1 := slotGroup("th-1", "2024-06-03", 9*60, 45)
	group2 := slotGroup("th-1", "2024-06-03", 9*60+45, 45)
	// Both slots share the 09:00 window with capacity 1.
	group2.Slots[0].WindowStart = 9 * 60

	result := Assemble(scoredGroups(group1, group2), NewConflictDetector(nil), AssemblyParams{
		SubscriptionID: "sub-1",
		StudentID:      "st-1",
		TotalSessions:  2,
	})

	assert.Len(t, result.Sessions, 1)
	assert.Equal(t, 1, result.Unscheduled)
}

func TestAssembleGroupCannotOvercommitOneWindow(t *testing.T) {
	// Both halves of the run draw on the same window, which only fits one
	// session, so the pair must be rejected as a whole.
	pair := CandidateGroup{Slots: []CandidateSlot{
		{TherapistID: "th-1", Date: day("2024-06-03"), StartMin: 9 * 60, EndMin: 9*60 + 45, WindowStart: 9 * 60, Capacity: 1},
		{TherapistID: "th-1", Date: day("2024-06-03"), StartMin: 9*60 + 45, EndMin: 10*60 + 30, WindowStart: 9 * 60, Capacity: 1},
	}}

	result := Assemble(scoredGroups(pair), NewConflictDetector(nil), AssemblyParams{
		SubscriptionID: "sub-1",
		StudentID:      "st-1",
		TotalSessions:  2,
	})

	assert.Empty(t, result.Sessions)
	assert.Equal(t, 2, result.Unscheduled)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, "therapist", result.Conflicts[0].Resource)
}

func TestAssembleWeeklyLimit(t *testing.T) {
	scored := scoredGroups(
		slotGroup("th-1", "2024-06-03", 9*60, 45),
		slotGroup("th-1", "2024-06-04", 9*60, 45),
		slotGroup("th-1", "2024-06-05", 9*60, 45),
		slotGroup("th-1", "2024-06-10", 9*60, 45),
	)
	for i := range scored {
		scored[i].Group.Slots[0].Capacity = 4
	}

	result := Assemble(scored, NewConflictDetector(nil), AssemblyParams{
		SubscriptionID:  "sub-1",
		StudentID:       "st-1",
		TotalSessions:   3,
		SessionsPerWeek: 2,
	})

	require.Len(t, result.Sessions, 3)
	weeks := make(map[string]int)
	for _, session := range result.Sessions {
		weeks[weekKey(session.Date)]++
	}
	for _, count := range weeks {
		assert.LessOrEqual(t, count, 2)
	}
}

func TestAssembleConsecutiveGroupIsAtomic(t *testing.T) {
	pair := CandidateGroup{Slots: []CandidateSlot{
		{TherapistID: "th-1", Date: day("2024-06-03"), StartMin: 9 * 60, EndMin: 9*60 + 45, WindowStart: 9 * 60, Capacity: 2},
		{TherapistID: "th-1", Date: day("2024-06-03"), StartMin: 9*60 + 45, EndMin: 10*60 + 30, WindowStart: 9 * 60, Capacity: 2},
	}}
	detector := NewConflictDetector(nil)
	// The second half of the run is taken, so the whole pair must be skipped.
	detector.Commit(day("2024-06-03"), 9*60+45, 10*60+30, "th-1", "", "other-student")

	result := Assemble(scoredGroups(pair), detector, AssemblyParams{
		SubscriptionID: "sub-1",
		StudentID:      "st-1",
		TotalSessions:  2,
	})

	assert.Empty(t, result.Sessions)
	assert.Equal(t, 2, result.Unscheduled)
}

func TestAssembleMaxGapWarning(t *testing.T) {
	scored := scoredGroups(
		slotGroup("th-1", "2024-06-03", 9*60, 45),
		slotGroup("th-1", "2024-06-24", 9*60, 45),
	)
	result := Assemble(scored, NewConflictDetector(nil), AssemblyParams{
		SubscriptionID: "sub-1",
		StudentID:      "st-1",
		TotalSessions:  2,
		MaxGapDays:     7,
	})

	require.Len(t, result.Sessions, 2)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "maxGapBetweenSessions", result.Warnings[0].Field)
	assert.NotEmpty(t, result.Warnings[0].Ar)
}
