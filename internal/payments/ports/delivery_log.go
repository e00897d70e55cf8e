package ports

import (
	"context"
	"time"
)

// Delivery is a record of one verified webhook delivery, kept for
// diagnostics. Deliveries are append-only.
type Delivery struct {
	ID         string
	EventType  string
	Payload    []byte
	Outcome    string
	ReceivedAt time.Time
}

// DeliveryLog records verified webhook deliveries. Recording is
// best-effort: failures must not affect the webhook response.
type DeliveryLog interface {
	Record(ctx context.Context, delivery Delivery) error
}
