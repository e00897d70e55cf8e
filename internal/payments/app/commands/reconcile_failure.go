package commands

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gocart/payments/internal/payments/ports"
	"golang.org/x/sync/errgroup"
)

// ReconcileFailureCommand applies a payment.failed notification: every
// named order is deleted outright. Hard deletion mirrors upstream checkout
// behavior; there is no soft-cancel state to transition into.
type ReconcileFailureCommand struct {
	OrderIDs []string
}

func (c ReconcileFailureCommand) Validate() error {
	if len(c.OrderIDs) == 0 {
		return errors.New("order ids are required")
	}
	return nil
}

type FailureHandler interface {
	Handle(ctx context.Context, cmd ReconcileFailureCommand) error
}

type ReconcileFailureCommandHandler struct {
	orders ports.OrderRepository
	events ports.EventBus
}

func NewReconcileFailureCommandHandler(
	orders ports.OrderRepository,
	events ports.EventBus,
) *ReconcileFailureCommandHandler {
	return &ReconcileFailureCommandHandler{
		orders: orders,
		events: events,
	}
}

// Handle deletes the orders concurrently. Deleting an order that is
// already gone is logged and absorbed so redelivered notifications stay
// harmless.
func (h *ReconcileFailureCommandHandler) Handle(ctx context.Context, cmd ReconcileFailureCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, orderID := range cmd.OrderIDs {
		group.Go(func() error {
			err := h.orders.Delete(groupCtx, orderID)
			if errors.Is(err, ports.ErrNotFound) {
				slog.WarnContext(groupCtx, "order already deleted during failure reconciliation", "order_id", orderID)
				return nil
			}
			return err
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	if err := h.events.PublishPaymentFailed(ctx, cmd.OrderIDs); err != nil {
		slog.WarnContext(ctx, "failed to publish payment failed event", "error", err)
	}

	return nil
}
