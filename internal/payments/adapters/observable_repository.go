package adapters

import (
	"context"
	"time"

	"github.com/gocart/payments/internal/database"
	"github.com/gocart/payments/internal/payments/domain"
	"github.com/gocart/payments/internal/payments/ports"
	"github.com/gocart/payments/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ObservableRepository struct {
	repo    ports.OrderRepository
	metrics *database.Metrics
}

func NewObservableRepository(repo ports.OrderRepository, metrics *database.Metrics) *ObservableRepository {
	return &ObservableRepository{
		repo:    repo,
		metrics: metrics,
	}
}

func (r *ObservableRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.GetByID")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", id),
		attribute.String("operation", "get_by_id"),
	)

	start := time.Now()
	order, err := r.repo.GetByID(ctx, id)
	duration := time.Since(start).Seconds()

	r.metrics.RecordQuery(ctx, "get_order_by_id", duration)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, err
	}

	telemetry.SetSpanSuccess(span)
	return order, nil
}

func (r *ObservableRepository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.List")
	defer span.End()

	attrs := []attribute.KeyValue{
		attribute.String("operation", "list"),
		attribute.Int("page", filter.Page),
		attribute.Int("page_size", filter.PageSize),
	}
	if filter.Paid != nil {
		attrs = append(attrs, attribute.Bool("filter.paid", *filter.Paid))
	}
	telemetry.AddSpanAttributes(span, attrs...)

	start := time.Now()
	orders, err := r.repo.List(ctx, filter)
	duration := time.Since(start).Seconds()

	r.metrics.RecordQuery(ctx, "list_orders", duration)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, err
	}

	telemetry.AddSpanAttributes(span, attribute.Int("result.count", len(orders)))
	telemetry.SetSpanSuccess(span)
	return orders, nil
}

func (r *ObservableRepository) MarkPaid(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.MarkPaid")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", id),
		attribute.String("operation", "mark_paid"),
	)

	start := time.Now()
	err := r.repo.MarkPaid(ctx, id)
	duration := time.Since(start).Seconds()

	r.metrics.RecordQuery(ctx, "mark_order_paid", duration)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}

type ObservableUserRepository struct {
	repo    ports.UserRepository
	metrics *database.Metrics
}

func NewObservableUserRepository(repo ports.UserRepository, metrics *database.Metrics) *ObservableUserRepository {
	return &ObservableUserRepository{
		repo:    repo,
		metrics: metrics,
	}
}

func (r *ObservableUserRepository) ClearCart(ctx context.Context, userID string) error {
	ctx, span := telemetry.StartSpan(ctx, "UserRepository.ClearCart")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("user.id", userID),
		attribute.String("operation", "clear_cart"),
	)

	start := time.Now()
	err := r.repo.ClearCart(ctx, userID)
	duration := time.Since(start).Seconds()

	r.metrics.RecordQuery(ctx, "clear_user_cart", duration)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}

func (r *ObservableRepository) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.Delete")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", id),
		attribute.String("operation", "delete"),
	)

	start := time.Now()
	err := r.repo.Delete(ctx, id)
	duration := time.Since(start).Seconds()

	r.metrics.RecordQuery(ctx, "delete_order", duration)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}
