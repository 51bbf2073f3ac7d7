package models

import "time"

// FreezeRecord is an immutable audit entry appended once per successful freeze
// operation. The history of a subscription is the ordered set of its records.
type FreezeRecord struct {
	ID               string    `db:"id" json:"id"`
	SubscriptionID   string    `db:"subscription_id" json:"subscription_id"`
	StartDate        time.Time `db:"start_date" json:"start_date"`
	EndDate          time.Time `db:"end_date" json:"end_date"`
	FreezeDays       int       `db:"freeze_days" json:"freeze_days"`
	Reason           string    `db:"reason" json:"reason"`
	AffectedSessions int       `db:"affected_sessions" json:"affected_sessions"`
	CreatedBy        string    `db:"created_by" json:"created_by"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// BillingAdjustment is the pro-rated credit recorded for a frozen period.
// Payment-gateway settlement happens outside the engine.
type BillingAdjustment struct {
	ID             string    `db:"id" json:"id"`
	SubscriptionID string    `db:"subscription_id" json:"subscription_id"`
	Kind           string    `db:"kind" json:"kind"`
	Amount         float64   `db:"amount" json:"amount"`
	Days           int       `db:"days" json:"days"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// BillingAdjustmentKindFreezeCredit is the only kind the engine writes.
const BillingAdjustmentKindFreezeCredit = "freeze_credit"
