package queries

import (
	"context"

	"github.com/gocart/payments/internal/payments/domain"
	"github.com/gocart/payments/internal/payments/ports"
)

// ListOrdersQuery retrieves orders, optionally filtered by paid state.
type ListOrdersQuery struct {
	Filter ports.ListFilter
}

// ListOrdersQueryHandler executes ListOrdersQuery.
type ListOrdersQueryHandler struct {
	orders ports.OrderRepository
}

// NewListOrdersQueryHandler constructs a ListOrdersQueryHandler.
func NewListOrdersQueryHandler(orders ports.OrderRepository) *ListOrdersQueryHandler {
	return &ListOrdersQueryHandler{orders: orders}
}

// Handle executes the query.
func (h *ListOrdersQueryHandler) Handle(ctx context.Context, query ListOrdersQuery) ([]domain.Order, error) {
	return h.orders.List(ctx, query.Filter)
}
