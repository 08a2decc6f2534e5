package domain

import "context"

// EventPublisher records domain events for delivery. Implementations write
// through the context's transaction when one is active, so events commit or
// roll back together with the state change that produced them.
type EventPublisher interface {
	// PublishCalculationCompleted records a completed calculation.
	PublishCalculationCompleted(ctx context.Context, event CalculationCompletedEvent) error

	// PublishBatchCalculationCompleted records a completed batch.
	PublishBatchCalculationCompleted(ctx context.Context, event BatchCalculationCompletedEvent) error

	// PublishCalculationsDeleted records a history deletion.
	PublishCalculationsDeleted(ctx context.Context, event CalculationsDeletedEvent) error
}
