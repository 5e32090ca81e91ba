package interfaces

import (
	"context"

	domaintypes "sealbox/internal/domain/types"
)

// DeliveryQueue accepts recovery messages for asynchronous, retried delivery.
// Enqueue is fire-and-forget from the engine's perspective: the queue owns the
// retry policy, and eventual delivery or failure never alters the outcome of
// the decrypt call that produced the message.
type DeliveryQueue interface {
	Enqueue(ctx context.Context, msg domaintypes.RecoveryMessage) error
}
