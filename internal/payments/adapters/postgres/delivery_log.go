package postgres

import (
	"context"
	"fmt"

	"github.com/gocart/payments/internal/payments/ports"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DeliveryLog struct {
	pool *pgxpool.Pool
}

func NewDeliveryLog(pool *pgxpool.Pool) *DeliveryLog {
	return &DeliveryLog{pool: pool}
}

func (l *DeliveryLog) Record(ctx context.Context, delivery ports.Delivery) error {
	query := `
		INSERT INTO webhook_deliveries (id, event_type, payload, outcome, received_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := l.pool.Exec(ctx, query,
		delivery.ID,
		delivery.EventType,
		delivery.Payload,
		delivery.Outcome,
		delivery.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("insert webhook delivery: %w", err)
	}

	return nil
}
