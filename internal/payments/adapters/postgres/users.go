package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/gocart/payments/internal/payments/ports"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// ClearCart resets the user's cart to empty. Clearing an already-empty
// cart is a plain update, so replays are safe.
func (r *UserRepository) ClearCart(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET cart = '{}'::jsonb, updated_at = $2
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("clear user cart: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ports.ErrNotFound
	}

	return nil
}
