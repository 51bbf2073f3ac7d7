package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Alnumo/IEP-Management-System-sub012/internal/models"
)

// FreezeRecordRepository appends and reads the immutable freeze history.
// Records are never updated or deleted.
type FreezeRecordRepository struct {
	db *sqlx.DB
}

// NewFreezeRecordRepository creates a new freeze record repository.
func NewFreezeRecordRepository(db *sqlx.DB) *FreezeRecordRepository {
	return &FreezeRecordRepository{db: db}
}

// AppendWithTx inserts one record inside the freeze transaction.
func (r *FreezeRecordRepository) AppendWithTx(ctx context.Context, tx *sqlx.Tx, record *models.FreezeRecord) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO freeze_records (id, subscription_id, start_date, end_date, freeze_days, reason, affected_sessions, created_by, created_at) VALUES (:id, :subscription_id, :start_date, :end_date, :freeze_days, :reason, :affected_sessions, :created_by, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, tx, query, record); err != nil {
		return fmt.Errorf("append freeze record: %w", err)
	}
	return nil
}

// ListBySubscription returns the freeze history, newest first.
func (r *FreezeRecordRepository) ListBySubscription(ctx context.Context, subscriptionID string) ([]models.FreezeRecord, error) {
	const query = `SELECT id, subscription_id, start_date, end_date, freeze_days, reason, affected_sessions, created_by, created_at FROM freeze_records WHERE subscription_id = $1 ORDER BY created_at DESC`
	var records []models.FreezeRecord
	if err := r.db.SelectContext(ctx, &records, query, subscriptionID); err != nil {
		return nil, fmt.Errorf("list freeze records: %w", err)
	}
	return records, nil
}
