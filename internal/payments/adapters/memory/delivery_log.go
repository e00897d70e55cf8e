package memory

import (
	"context"
	"sync"

	"github.com/gocart/payments/internal/payments/ports"
)

// DeliveryLog keeps verified webhook deliveries in memory.
type DeliveryLog struct {
	mu         sync.RWMutex
	deliveries []ports.Delivery
}

// NewDeliveryLog constructs an in-memory delivery log.
func NewDeliveryLog() *DeliveryLog {
	return &DeliveryLog{}
}

// Record stores a delivery. A delivery with an id already recorded is
// ignored, matching the conflict handling of the database-backed log.
func (l *DeliveryLog) Record(_ context.Context, delivery ports.Delivery) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, existing := range l.deliveries {
		if existing.ID == delivery.ID {
			return nil
		}
	}
	l.deliveries = append(l.deliveries, delivery)
	return nil
}

// Deliveries returns a copy of everything recorded so far.
func (l *DeliveryLog) Deliveries() []ports.Delivery {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]ports.Delivery, len(l.deliveries))
	copy(out, l.deliveries)
	return out
}
