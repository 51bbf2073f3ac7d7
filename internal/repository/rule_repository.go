package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Alnumo/IEP-Management-System-sub012/internal/models"
)

// RuleRepository reads optimization rules.
type RuleRepository struct {
	db *sqlx.DB
}

// NewRuleRepository creates a new rule repository.
func NewRuleRepository(db *sqlx.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

// ListActive returns active rules ordered for deterministic application:
// priority descending, then creation order ascending.
func (r *RuleRepository) ListActive(ctx context.Context) ([]models.OptimizationRule, error) {
	const query = `SELECT id, name, field, operator, value, score_delta, priority, active, scope, created_at FROM optimization_rules WHERE active = TRUE ORDER BY priority DESC, created_at ASC`
	var rules []models.OptimizationRule
	if err := r.db.SelectContext(ctx, &rules, query); err != nil {
		return nil, fmt.Errorf("list active rules: %w", err)
	}
	return rules, nil
}
