package kafka

import (
	"context"
	"log/slog"
)

// NoopEventBus logs reconciliation events without sending them to Kafka.
// Useful for local dev before wiring Kafka.
type NoopEventBus struct{}

// NewNoopEventBus returns a new no-op event publisher.
func NewNoopEventBus() *NoopEventBus {
	return &NoopEventBus{}
}

func (n *NoopEventBus) PublishPaymentCaptured(_ context.Context, orderIDs []string) error {
	slog.Debug("event::payment_captured", "order_ids", orderIDs)
	return nil
}

func (n *NoopEventBus) PublishPaymentFailed(_ context.Context, orderIDs []string) error {
	slog.Debug("event::payment_failed", "order_ids", orderIDs)
	return nil
}
