package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Alnumo/IEP-Management-System-sub012/internal/models"
)

const availabilityColumns = "id, therapist_id, day_of_week, start_time, end_time, is_recurring, specific_date, is_time_off, max_sessions_per_slot, current_bookings, buffer_minutes, created_at, updated_at"

// AvailabilityRepository reads therapist availability and time-off exceptions.
// The engine never writes these rows.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository creates a new availability repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// ListByTherapistRange returns the recurring windows plus any dated exceptions
// that fall inside the range, in one round trip per therapist.
func (r *AvailabilityRepository) ListByTherapistRange(ctx context.Context, therapistID string, from, to time.Time) ([]models.TherapistAvailability, error) {
	query := fmt.Sprintf(`SELECT %s FROM therapist_availability WHERE therapist_id = $1 AND (is_recurring = TRUE OR (specific_date IS NOT NULL AND specific_date BETWEEN $2 AND $3)) ORDER BY day_of_week ASC, start_time ASC`, availabilityColumns)
	var rows []models.TherapistAvailability
	if err := r.db.SelectContext(ctx, &rows, query, therapistID, from, to); err != nil {
		return nil, fmt.Errorf("list availability by therapist: %w", err)
	}
	return rows, nil
}

// ListTherapistIDs returns the distinct therapists that have any availability
// defined, used when a request does not pin a preferred therapist.
func (r *AvailabilityRepository) ListTherapistIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT DISTINCT therapist_id FROM therapist_availability WHERE is_time_off = FALSE ORDER BY therapist_id`); err != nil {
		return nil, fmt.Errorf("list therapist ids: %w", err)
	}
	return ids, nil
}
