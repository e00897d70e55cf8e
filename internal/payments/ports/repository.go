package ports

import (
	"context"
	"errors"

	"github.com/gocart/payments/internal/payments/domain"
)

// OrderRepository exposes the persistence operations the reconciler and
// the read API need. MarkPaid and Delete report ErrNotFound for missing
// rows; callers decide whether that is fatal.
type OrderRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Order, error)
	MarkPaid(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// UserRepository exposes the single user mutation the reconciler performs.
type UserRepository interface {
	ClearCart(ctx context.Context, id string) error
}

// ListFilter narrows order list queries by paid state and pagination.
type ListFilter struct {
	Paid     *bool
	Page     int
	PageSize int
}

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")
)
