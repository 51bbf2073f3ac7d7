package dto

// FreezeRequest pauses a subscription for an inclusive date window.
type FreezeRequest struct {
	StartDate string `json:"startDate" validate:"required"`
	EndDate   string `json:"endDate" validate:"required"`
	Reason    string `json:"reason" validate:"required"`
}

// FreezePreview is the read-only dry run of a freeze.
type FreezePreview struct {
	AffectedSessionsCount int    `json:"affectedSessionsCount"`
	NewEndDate            string `json:"newEndDate"`
	ConflictsCount        int    `json:"conflictsCount"`
}

// FreezeResult reports a committed freeze operation.
type FreezeResult struct {
	SubscriptionID    string  `json:"subscriptionId"`
	FreezeDays        int     `json:"freezeDays"`
	FreezeDaysUsed    int     `json:"freezeDaysUsed"`
	NewEndDate        string  `json:"newEndDate"`
	AffectedSessions  int     `json:"affectedSessions"`
	RescheduledCount  int     `json:"rescheduledCount"`
	PendingConflicts  int     `json:"pendingConflicts"`
	FreezeRecordID    string  `json:"freezeRecordId"`
	BillingCredit     float64 `json:"billingCredit"`
	NotificationsSent int     `json:"notificationsSent"`
}
