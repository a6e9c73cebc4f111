package app

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/bistro-pos/internal/domain/order"
)

const meterName = "github.com/xenking/bistro-pos/internal/app"

var _ order.Observer = (*orderMetrics)(nil)

// orderMetrics counts persisted order changes.
type orderMetrics struct {
	committed   metric.Int64Counter
	transitions metric.Int64Counter
}

func newOrderMetrics(mp metric.MeterProvider) (*orderMetrics, error) {
	meter := mp.Meter(meterName)
	committed, err := meter.Int64Counter("pos.orders.committed",
		metric.WithDescription("Carts committed as new or edited orders"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "committed counter")
	}
	transitions, err := meter.Int64Counter("pos.orders.transitions",
		metric.WithDescription("Order status transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "transitions counter")
	}
	return &orderMetrics{committed: committed, transitions: transitions}, nil
}

func (m *orderMetrics) OrderCommitted(ctx context.Context, o *order.Order, created bool) {
	m.committed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", o.Status.String()),
		attribute.Bool("created", created),
	))
}

func (m *orderMetrics) OrderTransitioned(ctx context.Context, o *order.Order, from order.Status) {
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", o.Status.String()),
		attribute.String("from", from.String()),
	))
}
