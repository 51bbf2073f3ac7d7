package models

// Notification event types emitted by the engine. Delivery is an external
// collaborator; the engine only counts dispatched events.
const (
	EventScheduleGenerated  = "schedule_generated"
	EventSubscriptionFrozen = "subscription_frozen"
)

// NotificationEvent is the fire-and-forget payload handed to the dispatcher.
type NotificationEvent struct {
	Type           string         `json:"type"`
	SubscriptionID string         `json:"subscription_id"`
	Payload        map[string]any `json:"payload,omitempty"`
}
