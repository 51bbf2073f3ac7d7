package service

import (
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/Alnumo/IEP-Management-System-sub012/internal/models"
)

// Component weights for the multi-criteria score. They sum to 1; the weighted
// sum is scaled to 0-100 before rule deltas apply.
const (
	weightPreference  = 0.30
	weightGap         = 0.25
	weightUtilization = 0.25
	weightPriority    = 0.20
)

// ScoredGroup pairs a candidate group with its score breakdown.
type ScoredGroup struct {
	Group       CandidateGroup
	Score       float64
	Preference  float64
	Gap         float64
	Utilization float64
	Priority    float64
}

// ScoringInputs carries the request context the optimizer scores against.
type ScoringInputs struct {
	From, To               time.Time
	TotalSessions          int
	PreferredDays          []int
	PreferredTimes         []clockWindow
	PriorityLevel          int
	FlexibilityScore       int
	Category               string
	UtilizationByTherapist map[string]float64
	Rules                  []models.OptimizationRule
}

// ScoreCandidates ranks the pool. The result is sorted by score descending
// with a deterministic tiebreak (date, start time, therapist id) so equal-score
// candidates always assemble in the same order. Pure function: no storage.
func ScoreCandidates(groups []CandidateGroup, in ScoringInputs) []ScoredGroup {
	rules := orderRules(in.Rules)

	scored := make([]ScoredGroup, 0, len(groups))
	for _, group := range groups {
		if len(group.Slots) == 0 {
			continue
		}
		slot := group.Slots[0]

		preference := preferenceScore(slot, in)
		gap := gapScore(slot, in)
		utilization := 1 - in.UtilizationByTherapist[slot.TherapistID]
		if utilization < 0 {
			utilization = 0
		}
		priority := float64(in.PriorityLevel) / 10
		if priority > 1 {
			priority = 1
		}

		score := (preference*weightPreference + gap*weightGap + utilization*weightUtilization + priority*weightPriority) * 100
		score += ruleDeltas(slot, in, rules)
		score = math.Max(0, math.Min(100, score))

		scored = append(scored, ScoredGroup{
			Group:       group,
			Score:       score,
			Preference:  preference,
			Gap:         gap,
			Utilization: utilization,
			Priority:    priority,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		sa, sb := a.Group.Slots[0], b.Group.Slots[0]
		if !sa.Date.Equal(sb.Date) {
			return sa.Date.Before(sb.Date)
		}
		if sa.StartMin != sb.StartMin {
			return sa.StartMin < sb.StartMin
		}
		return sa.TherapistID < sb.TherapistID
	})
	return scored
}

// preferenceScore measures distance from the requested day/time: half the
// component for landing on a preferred day, half for starting inside a
// preferred window. Unstated preferences count as satisfied.
func preferenceScore(slot CandidateSlot, in ScoringInputs) float64 {
	day := 1.0
	if len(in.PreferredDays) > 0 {
		day = 0
		weekday := int(slot.Date.Weekday())
		for _, d := range in.PreferredDays {
			if d == weekday {
				day = 1
				break
			}
		}
	}
	window := 1.0
	if len(in.PreferredTimes) > 0 {
		window = 0
		for _, w := range in.PreferredTimes {
			if slot.StartMin >= w.startMin && slot.EndMin <= w.endMin {
				window = 1
				break
			}
		}
	}
	return day*0.5 + window*0.5
}

// gapScore rewards candidates near the ideal evenly-spaced session cadence
// across the requested range.
func gapScore(slot CandidateSlot, in ScoringInputs) float64 {
	rangeDays := inclusiveDays(in.From, in.To)
	if rangeDays <= 0 || in.TotalSessions <= 0 {
		return 1
	}
	spacing := float64(rangeDays) / float64(in.TotalSessions)
	if spacing < 1 {
		spacing = 1
	}
	offset := float64(inclusiveDays(in.From, slot.Date) - 1)
	nearest := math.Round(offset/spacing) * spacing
	distance := math.Abs(offset-nearest) / spacing
	if distance > 1 {
		distance = 1
	}
	return 1 - distance
}

// orderRules sorts defensively by priority descending, creation order
// ascending, so rule application is deterministic regardless of store order.
func orderRules(rules []models.OptimizationRule) []models.OptimizationRule {
	sorted := make([]models.OptimizationRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority > sorted[j].Priority
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	return sorted
}

func ruleDeltas(slot CandidateSlot, in ScoringInputs, rules []models.OptimizationRule) float64 {
	var delta float64
	for _, rule := range rules {
		if !rule.Active {
			continue
		}
		if rule.Scope != "" && rule.Scope != models.RuleScopeGlobal && rule.Scope != in.Category {
			continue
		}
		value, ok := ruleFieldValue(slot, in, rule.Field)
		if !ok {
			continue
		}
		if evalRule(rule, value) {
			delta += rule.ScoreDelta
		}
	}
	return delta
}

func ruleFieldValue(slot CandidateSlot, in ScoringInputs, field string) (float64, bool) {
	switch field {
	case models.RuleFieldDayOfWeek:
		return float64(int(slot.Date.Weekday())), true
	case models.RuleFieldStartHour:
		return float64(slot.StartMin / 60), true
	case models.RuleFieldTherapistUtilization:
		return in.UtilizationByTherapist[slot.TherapistID], true
	case models.RuleFieldPriorityLevel:
		return float64(in.PriorityLevel), true
	case models.RuleFieldFlexibilityScore:
		return float64(in.FlexibilityScore), true
	default:
		return 0, false
	}
}

// evalRule interprets the closed {field, operator, value} variant. Rule values
// are JSON data; nothing is ever evaluated as an expression.
func evalRule(rule models.OptimizationRule, value float64) bool {
	switch rule.Operator {
	case models.RuleOpEq, models.RuleOpNeq, models.RuleOpGt, models.RuleOpGte, models.RuleOpLt, models.RuleOpLte:
		var threshold float64
		if err := json.Unmarshal(rule.Value, &threshold); err != nil {
			return false
		}
		switch rule.Operator {
		case models.RuleOpEq:
			return value == threshold
		case models.RuleOpNeq:
			return value != threshold
		case models.RuleOpGt:
			return value > threshold
		case models.RuleOpGte:
			return value >= threshold
		case models.RuleOpLt:
			return value < threshold
		default:
			return value <= threshold
		}
	case models.RuleOpIn:
		var options []float64
		if err := json.Unmarshal(rule.Value, &options); err != nil {
			return false
		}
		for _, option := range options {
			if value == option {
				return true
			}
		}
		return false
	case models.RuleOpBetween:
		var bounds []float64
		if err := json.Unmarshal(rule.Value, &bounds); err != nil || len(bounds) != 2 {
			return false
		}
		return value >= bounds[0] && value <= bounds[1]
	default:
		return false
	}
}
