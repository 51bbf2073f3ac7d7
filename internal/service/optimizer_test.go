package service

import (
	"testing"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alnumo/IEP-Management-System-sub012/internal/models"
)

func slotGroup(therapistID, date string, startMin, duration int) CandidateGroup {
	return CandidateGroup{Slots: []CandidateSlot{{
		TherapistID: therapistID,
		Date:        day(date),
		StartMin:    startMin,
		EndMin:      startMin + duration,
		WindowStart: startMin,
		Capacity:    1,
	}}}
}

func TestScoreCandidatesPrefersRequestedDays(t *testing.T) {
	groups := []CandidateGroup{
		slotGroup("th-1", "2024-06-03", 9*60, 45), // Monday
		slotGroup("th-1", "2024-06-04", 9*60, 45), // Tuesday
	}
	scored := ScoreCandidates(groups, ScoringInputs{
		From:          day("2024-06-03"),
		To:            day("2024-06-09"),
		TotalSessions: 1,
		PreferredDays: []int{1},
	})
	require.Len(t, scored, 2)
	assert.Equal(t, time.Monday, scored[0].Group.Slots[0].Date.Weekday())
	assert.Greater(t, scored[0].Score, scored[1].Score)
}

func TestScoreCandidatesPrefersIdleTherapists(t *testing.T) {
	groups := []CandidateGroup{
		slotGroup("busy", "2024-06-03", 9*60, 45),
		slotGroup("idle", "2024-06-03", 9*60, 45),
	}
	scored := ScoreCandidates(groups, ScoringInputs{
		From:          day("2024-06-03"),
		To:            day("2024-06-03"),
		TotalSessions: 1,
		UtilizationByTherapist: map[string]float64{
			"busy": 0.9,
			"idle": 0.1,
		},
	})
	require.Len(t, scored, 2)
	assert.Equal(t, "idle", scored[0].Group.Slots[0].TherapistID)
}

func TestScoreCandidatesScoresAreClamped(t *testing.T) {
	groups := []CandidateGroup{slotGroup("th-1", "2024-06-03", 9*60, 45)}
	scored := ScoreCandidates(groups, ScoringInputs{
		From:          day("2024-06-03"),
		To:            day("2024-06-03"),
		TotalSessions: 1,
		PriorityLevel: 10,
		Rules: []models.OptimizationRule{{
			Field:      models.RuleFieldDayOfWeek,
			Operator:   models.RuleOpEq,
			Value:      types.JSONText(`1`),
			ScoreDelta: 500,
			Active:     true,
		}},
	})
	require.Len(t, scored, 1)
	assert.Equal(t, 100.0, scored[0].Score)
}

func TestScoreCandidatesRuleOperators(t *testing.T) {
	monday := slotGroup("th-1", "2024-06-03", 14*60, 45)

	cases := []struct {
		name    string
		rule    models.OptimizationRule
		applied bool
	}{
		{"eq day", models.OptimizationRule{Field: models.RuleFieldDayOfWeek, Operator: models.RuleOpEq, Value: types.JSONText(`1`), ScoreDelta: 10, Active: true}, true},
		{"gt hour", models.OptimizationRule{Field: models.RuleFieldStartHour, Operator: models.RuleOpGt, Value: types.JSONText(`12`), ScoreDelta: 10, Active: true}, true},
		{"in days", models.OptimizationRule{Field: models.RuleFieldDayOfWeek, Operator: models.RuleOpIn, Value: types.JSONText(`[0, 6]`), ScoreDelta: 10, Active: true}, false},
		{"between hours", models.OptimizationRule{Field: models.RuleFieldStartHour, Operator: models.RuleOpBetween, Value: types.JSONText(`[13, 16]`), ScoreDelta: 10, Active: true}, true},
		{"inactive", models.OptimizationRule{Field: models.RuleFieldDayOfWeek, Operator: models.RuleOpEq, Value: types.JSONText(`1`), ScoreDelta: 10, Active: false}, false},
		{"unknown field", models.OptimizationRule{Field: "moon_phase", Operator: models.RuleOpEq, Value: types.JSONText(`1`), ScoreDelta: 10, Active: true}, false},
		{"malformed value", models.OptimizationRule{Field: models.RuleFieldDayOfWeek, Operator: models.RuleOpEq, Value: types.JSONText(`"one"`), ScoreDelta: 10, Active: true}, false},
	}

	inputs := ScoringInputs{From: day("2024-06-03"), To: day("2024-06-03"), TotalSessions: 1}
	baseline := ScoreCandidates([]CandidateGroup{monday}, inputs)[0].Score

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			withRule := inputs
			withRule.Rules = []models.OptimizationRule{tc.rule}
			score := ScoreCandidates([]CandidateGroup{monday}, withRule)[0].Score
			if tc.applied {
				assert.Equal(t, baseline+10, score)
			} else {
				assert.Equal(t, baseline, score)
			}
		})
	}
}

func TestScoreCandidatesRuleScope(t *testing.T) {
	monday := slotGroup("th-1", "2024-06-03", 9*60, 45)
	rule := models.OptimizationRule{
		Field:      models.RuleFieldDayOfWeek,
		Operator:   models.RuleOpEq,
		Value:      types.JSONText(`1`),
		ScoreDelta: 10,
		Active:     true,
		Scope:      "speech_therapy",
	}
	inputs := ScoringInputs{From: day("2024-06-03"), To: day("2024-06-03"), TotalSessions: 1}
	baseline := ScoreCandidates([]CandidateGroup{monday}, inputs)[0].Score

	cases := []struct {
		name     string
		scope    string
		category string
		applied  bool
	}{
		{"matching category", "speech_therapy", "speech_therapy", true},
		{"other category", "speech_therapy", "occupational_therapy", false},
		{"global scope", models.RuleScopeGlobal, "occupational_therapy", true},
		{"empty scope", "", "occupational_therapy", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			scoped := rule
			scoped.Scope = tc.scope
			withRule := inputs
			withRule.Category = tc.category
			withRule.Rules = []models.OptimizationRule{scoped}
			score := ScoreCandidates([]CandidateGroup{monday}, withRule)[0].Score
			if tc.applied {
				assert.Equal(t, baseline+10, score)
			} else {
				assert.Equal(t, baseline, score)
			}
		})
	}
}

func TestScoreCandidatesDeterministicTieBreak(t *testing.T) {
	groups := []CandidateGroup{
		slotGroup("th-b", "2024-06-03", 9*60, 45),
		slotGroup("th-a", "2024-06-03", 9*60, 45),
	}
	inputs := ScoringInputs{From: day("2024-06-03"), To: day("2024-06-03"), TotalSessions: 1}

	first := ScoreCandidates(groups, inputs)
	second := ScoreCandidates([]CandidateGroup{groups[1], groups[0]}, inputs)

	require.Len(t, first, 2)
	assert.Equal(t, "th-a", first[0].Group.Slots[0].TherapistID)
	assert.Equal(t, first[0].Group.Slots[0].TherapistID, second[0].Group.Slots[0].TherapistID)
}
