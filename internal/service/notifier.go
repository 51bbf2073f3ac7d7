package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Alnumo/IEP-Management-System-sub012/internal/models"
	"github.com/Alnumo/IEP-Management-System-sub012/pkg/jobs"
)

// Notifier dispatches fire-and-forget engine events. Failures are logged, never
// propagated: a lost notification must not fail a committed schedule or freeze.
type Notifier interface {
	Notify(ctx context.Context, event models.NotificationEvent) bool
}

// QueueNotifier feeds events into the background job queue.
type QueueNotifier struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewQueueNotifier wires the notifier onto a started queue.
func NewQueueNotifier(queue *jobs.Queue, logger *zap.Logger) *QueueNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueNotifier{queue: queue, logger: logger}
}

// Notify enqueues the event and reports whether it was accepted.
func (n *QueueNotifier) Notify(_ context.Context, event models.NotificationEvent) bool {
	if n == nil || n.queue == nil {
		return false
	}
	err := n.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    event.Type,
		Payload: event,
	})
	if err != nil {
		n.logger.Warn("notification dropped",
			zap.String("type", event.Type),
			zap.String("subscription_id", event.SubscriptionID),
			zap.Error(err))
		return false
	}
	return true
}

// NotificationHandler returns the queue handler for engine events. Delivery to
// guardians and therapists is owned by an external collaborator; the engine's
// responsibility ends at structured emission.
func NotificationHandler(logger *zap.Logger) jobs.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(_ context.Context, job jobs.Job) error {
		event, ok := job.Payload.(models.NotificationEvent)
		if !ok {
			logger.Warn("unexpected notification payload", zap.String("job_id", job.ID))
			return nil
		}
		logger.Info("notification dispatched",
			zap.String("type", event.Type),
			zap.String("subscription_id", event.SubscriptionID))
		return nil
	}
}
