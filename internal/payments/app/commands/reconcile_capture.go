package commands

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gocart/payments/internal/payments/ports"
	"golang.org/x/sync/errgroup"
)

// ReconcileCaptureCommand applies a payment.captured notification: every
// named order becomes paid and the buyer's cart is emptied.
type ReconcileCaptureCommand struct {
	OrderIDs []string
	UserID   string
}

func (c ReconcileCaptureCommand) Validate() error {
	if len(c.OrderIDs) == 0 {
		return errors.New("order ids are required")
	}
	return nil
}

type CaptureHandler interface {
	Handle(ctx context.Context, cmd ReconcileCaptureCommand) error
}

type ReconcileCaptureCommandHandler struct {
	orders ports.OrderRepository
	users  ports.UserRepository
	events ports.EventBus
}

func NewReconcileCaptureCommandHandler(
	orders ports.OrderRepository,
	users ports.UserRepository,
	events ports.EventBus,
) *ReconcileCaptureCommandHandler {
	return &ReconcileCaptureCommandHandler{
		orders: orders,
		users:  users,
		events: events,
	}
}

// Handle marks all orders paid concurrently; the orders are disjoint rows
// so no ordering is needed between them. Marking an already-paid order is
// a no-op at the store layer, and a missing order is treated as already
// reconciled, which keeps redelivery of the same notification safe.
func (h *ReconcileCaptureCommandHandler) Handle(ctx context.Context, cmd ReconcileCaptureCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, orderID := range cmd.OrderIDs {
		group.Go(func() error {
			err := h.orders.MarkPaid(groupCtx, orderID)
			if errors.Is(err, ports.ErrNotFound) {
				slog.WarnContext(groupCtx, "order missing during capture reconciliation", "order_id", orderID)
				return nil
			}
			return err
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	if cmd.UserID != "" {
		err := h.users.ClearCart(ctx, cmd.UserID)
		if errors.Is(err, ports.ErrNotFound) {
			slog.WarnContext(ctx, "user missing during cart clear", "user_id", cmd.UserID)
		} else if err != nil {
			return err
		}
	}

	if err := h.events.PublishPaymentCaptured(ctx, cmd.OrderIDs); err != nil {
		slog.WarnContext(ctx, "failed to publish payment captured event", "error", err)
	}

	return nil
}
