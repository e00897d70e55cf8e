package adapters

import (
	"context"
	"time"

	"github.com/gocart/payments/internal/kafka"
	"github.com/gocart/payments/internal/payments/ports"
	"github.com/gocart/payments/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ObservableEventBus struct {
	bus     ports.EventBus
	metrics *kafka.Metrics
}

func NewObservableEventBus(bus ports.EventBus, metrics *kafka.Metrics) *ObservableEventBus {
	return &ObservableEventBus{
		bus:     bus,
		metrics: metrics,
	}
}

func (e *ObservableEventBus) PublishPaymentCaptured(ctx context.Context, orderIDs []string) error {
	ctx, span := telemetry.StartSpan(ctx, "EventBus.PublishPaymentCaptured")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.StringSlice("order.ids", orderIDs),
		attribute.String("event.type", "payment.captured"),
		attribute.String("topic", "payment.captured"),
	)

	start := time.Now()
	err := e.bus.PublishPaymentCaptured(ctx, orderIDs)
	duration := time.Since(start).Seconds()

	e.metrics.RecordPublish(ctx, "payment.captured", duration, err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}

func (e *ObservableEventBus) PublishPaymentFailed(ctx context.Context, orderIDs []string) error {
	ctx, span := telemetry.StartSpan(ctx, "EventBus.PublishPaymentFailed")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.StringSlice("order.ids", orderIDs),
		attribute.String("event.type", "payment.failed"),
		attribute.String("topic", "payment.failed"),
	)

	start := time.Now()
	err := e.bus.PublishPaymentFailed(ctx, orderIDs)
	duration := time.Since(start).Seconds()

	e.metrics.RecordPublish(ctx, "payment.failed", duration, err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}
