package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/gocart/payments/internal/payments/metrics"
	"github.com/gocart/payments/internal/razorpay"
	"github.com/gocart/payments/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ObservableCaptureHandler struct {
	handler CaptureHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableCaptureHandler(handler CaptureHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableCaptureHandler {
	return &ObservableCaptureHandler{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableCaptureHandler) Handle(ctx context.Context, cmd ReconcileCaptureCommand) error {
	ctx, span := telemetry.StartSpan(ctx, "ReconcileCaptureCommand.Handle")
	defer span.End()

	start := time.Now()
	var success bool
	defer func() {
		duration := time.Since(start).Seconds()
		o.metrics.RecordReconcileDuration(ctx, razorpay.EventPaymentCaptured, duration)
		o.metrics.RecordWebhookEvent(ctx, razorpay.EventPaymentCaptured, success)
	}()

	o.logger.InfoContext(ctx, "reconciling captured payment",
		"order_ids", cmd.OrderIDs,
		"user_id", cmd.UserID,
	)

	err := o.handler.Handle(ctx, cmd)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		o.logger.ErrorContext(ctx, "failed to reconcile captured payment",
			"error", err,
			"order_ids", cmd.OrderIDs,
		)
		return err
	}

	telemetry.AddSpanAttributes(span,
		attribute.StringSlice("order.ids", cmd.OrderIDs),
		attribute.String("user.id", cmd.UserID),
	)

	o.logger.InfoContext(ctx, "captured payment reconciled",
		"order_ids", cmd.OrderIDs,
	)

	success = true
	telemetry.SetSpanSuccess(span)

	return nil
}

type ObservableFailureHandler struct {
	handler FailureHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableFailureHandler(handler FailureHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableFailureHandler {
	return &ObservableFailureHandler{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableFailureHandler) Handle(ctx context.Context, cmd ReconcileFailureCommand) error {
	ctx, span := telemetry.StartSpan(ctx, "ReconcileFailureCommand.Handle")
	defer span.End()

	start := time.Now()
	var success bool
	defer func() {
		duration := time.Since(start).Seconds()
		o.metrics.RecordReconcileDuration(ctx, razorpay.EventPaymentFailed, duration)
		o.metrics.RecordWebhookEvent(ctx, razorpay.EventPaymentFailed, success)
	}()

	o.logger.InfoContext(ctx, "reconciling failed payment",
		"order_ids", cmd.OrderIDs,
	)

	err := o.handler.Handle(ctx, cmd)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		o.logger.ErrorContext(ctx, "failed to reconcile failed payment",
			"error", err,
			"order_ids", cmd.OrderIDs,
		)
		return err
	}

	telemetry.AddSpanAttributes(span,
		attribute.StringSlice("order.ids", cmd.OrderIDs),
	)

	o.logger.InfoContext(ctx, "failed payment reconciled",
		"order_ids", cmd.OrderIDs,
	)

	success = true
	telemetry.SetSpanSuccess(span)

	return nil
}
