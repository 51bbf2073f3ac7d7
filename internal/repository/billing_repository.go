package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Alnumo/IEP-Management-System-sub012/internal/models"
)

// BillingRepository records pro-rated adjustments. Settlement against the
// payment gateway happens outside the engine.
type BillingRepository struct {
	db *sqlx.DB
}

// NewBillingRepository creates a new billing repository.
func NewBillingRepository(db *sqlx.DB) *BillingRepository {
	return &BillingRepository{db: db}
}

// InsertAdjustmentWithTx appends one adjustment inside the freeze transaction.
func (r *BillingRepository) InsertAdjustmentWithTx(ctx context.Context, tx *sqlx.Tx, adj *models.BillingAdjustment) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	if adj.ID == "" {
		adj.ID = uuid.NewString()
	}
	if adj.CreatedAt.IsZero() {
		adj.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO billing_adjustments (id, subscription_id, kind, amount, days, created_at) VALUES (:id, :subscription_id, :kind, :amount, :days, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, tx, query, adj); err != nil {
		return fmt.Errorf("insert billing adjustment: %w", err)
	}
	return nil
}
