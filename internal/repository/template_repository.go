package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Alnumo/IEP-Management-System-sub012/internal/models"
)

const templateColumns = "id, name, name_ar, session_duration_minutes, sessions_per_week, preferred_days, preferred_times, allow_weekends, allow_evenings, max_sessions_per_day, preferred_therapist_id, created_at, updated_at"

// TemplateRepository reads administrator-owned schedule templates.
type TemplateRepository struct {
	db *sqlx.DB
}

// NewTemplateRepository creates a new template repository.
func NewTemplateRepository(db *sqlx.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// FindByID loads a template by id.
func (r *TemplateRepository) FindByID(ctx context.Context, id string) (*models.ScheduleTemplate, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedule_templates WHERE id = $1`, templateColumns)
	var tpl models.ScheduleTemplate
	if err := r.db.GetContext(ctx, &tpl, query, id); err != nil {
		return nil, err
	}
	return &tpl, nil
}
