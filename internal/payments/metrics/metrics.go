package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	webhookEventsTotal metric.Int64Counter
	reconcileDuration  metric.Float64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.webhookEventsTotal, err = meter.Int64Counter(
		"webhook_events_total",
		metric.WithDescription("Total number of webhook events received"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create webhook_events_total counter: %w", err)
	}

	m.reconcileDuration, err = meter.Float64Histogram(
		"reconcile_duration_seconds",
		metric.WithDescription("Duration of order reconciliation operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create reconcile_duration histogram: %w", err)
	}

	return m, nil
}

func (m *Metrics) RecordWebhookEvent(ctx context.Context, eventType string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.webhookEventsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.String("status", status),
	))
}

func (m *Metrics) RecordReconcileDuration(ctx context.Context, eventType string, durationSeconds float64) {
	m.reconcileDuration.Record(ctx, durationSeconds, metric.WithAttributes(
		attribute.String("event_type", eventType),
	))
}
