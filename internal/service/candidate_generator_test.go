package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIndex(therapistID string, from, to time.Time, open OpenInterval, weekdays ...int) *AvailabilityIndex {
	allowed := make(map[int]bool, len(weekdays))
	for _, d := range weekdays {
		allowed[d] = true
	}
	idx := &AvailabilityIndex{
		TherapistID: therapistID,
		From:        from,
		To:          to,
		Days:        make(map[string][]OpenInterval),
	}
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if len(allowed) == 0 || allowed[int(d.Weekday())] {
			idx.Days[dateKey(d)] = []OpenInterval{open}
		}
	}
	return idx
}

func TestGenerateCandidatesHonoursDayPreferences(t *testing.T) {
	from, to := day("2024-06-02"), day("2024-06-29")
	idx := testIndex("th-1", from, to, OpenInterval{StartMin: 9 * 60, EndMin: 12 * 60, WindowStart: 9 * 60, Capacity: 4})

	groups := GenerateCandidates(GeneratorParams{
		From:            from,
		To:              to,
		TotalSessions:   8,
		DurationMinutes: 45,
		PreferredDays:   []int{1, 3},
		AvoidDays:       []int{5, 6},
	}, []*AvailabilityIndex{idx})

	require.NotEmpty(t, groups)
	for _, group := range groups {
		for _, slot := range group.Slots {
			weekday := int(slot.Date.Weekday())
			assert.Contains(t, []int{1, 3}, weekday)
		}
	}
}

func TestGenerateCandidatesRespectsAvoidTimes(t *testing.T) {
	from := day("2024-06-03")
	idx := testIndex("th-1", from, from, OpenInterval{StartMin: 9 * 60, EndMin: 12 * 60, WindowStart: 9 * 60, Capacity: 4})

	groups := GenerateCandidates(GeneratorParams{
		From:            from,
		To:              from,
		TotalSessions:   4,
		DurationMinutes: 60,
		AvoidTimes:      []clockWindow{{startMin: 10 * 60, endMin: 11 * 60}},
	}, []*AvailabilityIndex{idx})

	for _, group := range groups {
		for _, slot := range group.Slots {
			assert.False(t, overlaps(slot.StartMin, slot.EndMin, 10*60, 11*60),
				"slot %s-%s overlaps the avoided window", formatClock(slot.StartMin), formatClock(slot.EndMin))
		}
	}
}

func TestGenerateCandidatesOverGenerationCap(t *testing.T) {
	from, to := day("2024-06-01"), day("2024-06-30")
	idx := testIndex("th-1", from, to, OpenInterval{StartMin: 8 * 60, EndMin: 18 * 60, WindowStart: 8 * 60, Capacity: 20})

	groups := GenerateCandidates(GeneratorParams{
		From:                 from,
		To:                   to,
		TotalSessions:        4,
		DurationMinutes:      30,
		MaxSessionsPerDay:    20,
		OverGenerationFactor: 3,
	}, []*AvailabilityIndex{idx})

	assert.LessOrEqual(t, len(groups), 12)
}

func TestGenerateCandidatesConsecutiveRuns(t *testing.T) {
	from := day("2024-06-03")
	idx := testIndex("th-1", from, from, OpenInterval{StartMin: 9 * 60, EndMin: 12 * 60, WindowStart: 9 * 60, Capacity: 4})

	groups := GenerateCandidates(GeneratorParams{
		From:                from,
		To:                  from,
		TotalSessions:       4,
		DurationMinutes:     45,
		RequiresConsecutive: true,
		MaxSessionsPerDay:   4,
	}, []*AvailabilityIndex{idx})

	require.NotEmpty(t, groups)
	for _, group := range groups {
		require.Len(t, group.Slots, 2)
		assert.Equal(t, group.Slots[0].EndMin, group.Slots[1].StartMin)
		assert.True(t, group.Slots[0].Date.Equal(group.Slots[1].Date))
	}
}

func TestGenerateCandidatesRejectsDegenerateInput(t *testing.T) {
	assert.Nil(t, GenerateCandidates(GeneratorParams{TotalSessions: 0, DurationMinutes: 45}, nil))
	assert.Nil(t, GenerateCandidates(GeneratorParams{
		From: day("2024-06-30"), To: day("2024-06-01"),
		TotalSessions: 4, DurationMinutes: 45,
	}, nil))
}
