package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Alnumo/IEP-Management-System-sub012/internal/models"
)

const subscriptionColumns = "id, student_id, start_date, end_date, original_end_date, freeze_days_allowed, freeze_days_used, status, total_sessions, completed_sessions, price_total, created_at, updated_at"

// SubscriptionRepository provides persistence for subscriptions.
type SubscriptionRepository struct {
	db *sqlx.DB
}

// NewSubscriptionRepository creates a new subscription repository.
func NewSubscriptionRepository(db *sqlx.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// FindByID loads a subscription by id.
func (r *SubscriptionRepository) FindByID(ctx context.Context, id string) (*models.Subscription, error) {
	query := fmt.Sprintf(`SELECT %s FROM subscriptions WHERE id = $1`, subscriptionColumns)
	var sub models.Subscription
	if err := r.db.GetContext(ctx, &sub, query, id); err != nil {
		return nil, err
	}
	return &sub, nil
}

// ApplyFreezeWithTx commits the subscription side of a freeze: the extended
// end date, the spent allowance and the frozen status, in one statement.
func (r *SubscriptionRepository) ApplyFreezeWithTx(ctx context.Context, tx *sqlx.Tx, id string, endDate time.Time, freezeDaysUsed int, status models.SubscriptionStatus) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	const query = `UPDATE subscriptions SET end_date = $1, freeze_days_used = $2, status = $3, updated_at = $4 WHERE id = $5`
	res, err := tx.ExecContext(ctx, query, endDate, freezeDaysUsed, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("apply subscription freeze: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("apply subscription freeze: no row for %s", id)
	}
	return nil
}
