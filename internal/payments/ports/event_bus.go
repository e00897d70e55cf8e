package ports

import "context"

// EventBus defines the contract for publishing reconciliation outcomes.
type EventBus interface {
	PublishPaymentCaptured(ctx context.Context, orderIDs []string) error
	PublishPaymentFailed(ctx context.Context, orderIDs []string) error
}
