package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Rule condition fields the optimizer understands. The set is closed; rules
// referencing anything else are skipped rather than interpreted.
const (
	RuleFieldDayOfWeek            = "day_of_week"
	RuleFieldStartHour            = "start_hour"
	RuleFieldTherapistUtilization = "therapist_utilization"
	RuleFieldPriorityLevel        = "priority_level"
	RuleFieldFlexibilityScore     = "flexibility_score"
)

// RuleScopeGlobal marks a rule that applies regardless of session category.
// Any other scope value must match the run's category exactly.
const RuleScopeGlobal = "global"

// Rule operators. Closed set evaluated by a fixed interpreter; rule values are
// data, never expressions.
const (
	RuleOpEq      = "eq"
	RuleOpNeq     = "neq"
	RuleOpGt      = "gt"
	RuleOpGte     = "gte"
	RuleOpLt      = "lt"
	RuleOpLte     = "lte"
	RuleOpIn      = "in"
	RuleOpBetween = "between"
)

// OptimizationRule is a weighted condition/action pair that adjusts a
// candidate's score when its predicate matches. Read-only input to the
// optimizer; applied in descending priority, ties broken by creation order.
type OptimizationRule struct {
	ID         string         `db:"id" json:"id"`
	Name       string         `db:"name" json:"name"`
	Field      string         `db:"field" json:"field"`
	Operator   string         `db:"operator" json:"operator"`
	Value      types.JSONText `db:"value" json:"value"`
	ScoreDelta float64        `db:"score_delta" json:"score_delta"`
	Priority   int            `db:"priority" json:"priority"`
	Active     bool           `db:"active" json:"active"`
	Scope      string         `db:"scope" json:"scope"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}
