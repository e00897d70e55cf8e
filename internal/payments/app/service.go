package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gocart/payments/internal/payments/app/commands"
	"github.com/gocart/payments/internal/payments/app/queries"
	"github.com/gocart/payments/internal/payments/domain"
	"github.com/gocart/payments/internal/payments/metrics"
	"github.com/gocart/payments/internal/payments/ports"
)

// Service bundles the reconciliation use cases and the order read API.
type Service struct {
	captureHandler commands.CaptureHandler
	failureHandler commands.FailureHandler
	getOrder       *queries.GetOrderQueryHandler
	listOrders     *queries.ListOrdersQueryHandler
	deliveries     ports.DeliveryLog
	logger         *slog.Logger
}

// NewService wires required dependencies.
func NewService(
	orders ports.OrderRepository,
	users ports.UserRepository,
	events ports.EventBus,
	deliveries ports.DeliveryLog,
	logger *slog.Logger,
	metrics *metrics.Metrics,
) *Service {
	capture := commands.NewReconcileCaptureCommandHandler(orders, users, events)
	failure := commands.NewReconcileFailureCommandHandler(orders, events)

	return &Service{
		captureHandler: commands.NewObservableCaptureHandler(capture, logger, metrics),
		failureHandler: commands.NewObservableFailureHandler(failure, logger, metrics),
		getOrder:       queries.NewGetOrderQueryHandler(orders),
		listOrders:     queries.NewListOrdersQueryHandler(orders),
		deliveries:     deliveries,
		logger:         logger,
	}
}

// ReconcileCaptureInput captures the payload of a captured-payment event.
type ReconcileCaptureInput struct {
	OrderIDs []string
	UserID   string
}

// ReconcileCapture marks the named orders paid and clears the user's cart.
func (s *Service) ReconcileCapture(ctx context.Context, input ReconcileCaptureInput) error {
	cmd := commands.ReconcileCaptureCommand{
		OrderIDs: input.OrderIDs,
		UserID:   input.UserID,
	}
	return s.captureHandler.Handle(ctx, cmd)
}

// ReconcileFailure deletes the named orders.
func (s *Service) ReconcileFailure(ctx context.Context, orderIDs []string) error {
	cmd := commands.ReconcileFailureCommand{OrderIDs: orderIDs}
	return s.failureHandler.Handle(ctx, cmd)
}

// deliveryNamespace seeds name-based delivery ids.
var deliveryNamespace = uuid.MustParse("5c2f9a1e-4b83-4f6a-9d37-8e10c6b2d4a9")

// RecordDelivery appends a verified webhook delivery to the delivery log.
// Recording is best-effort: failures are logged and never surfaced.
// The id is derived from the payload bytes, so a redelivered event maps to
// the row already written for the first attempt.
func (s *Service) RecordDelivery(ctx context.Context, eventType string, payload []byte, outcome string) {
	delivery := ports.Delivery{
		ID:         uuid.NewSHA1(deliveryNamespace, payload).String(),
		EventType:  eventType,
		Payload:    payload,
		Outcome:    outcome,
		ReceivedAt: time.Now().UTC(),
	}

	if err := s.deliveries.Record(ctx, delivery); err != nil {
		s.logger.WarnContext(ctx, "failed to record webhook delivery",
			"error", err,
			"event_type", eventType,
		)
	}
}

// GetOrder retrieves an order by ID.
func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.getOrder.Handle(ctx, queries.GetOrderQuery{OrderID: id})
}

// ListOrders returns orders using a filter.
func (s *Service) ListOrders(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	return s.listOrders.Handle(ctx, queries.ListOrdersQuery{Filter: filter})
}
