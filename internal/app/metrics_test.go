package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/xenking/bistro-pos/internal/domain/order"
)

// counterValues maps each data point's status attribute to its sum.
func counterValues(t *testing.T, rm metricdata.ResourceMetrics, name string) map[string]int64 {
	t.Helper()
	out := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				status, _ := dp.Attributes.Value(attribute.Key("status"))
				out[status.AsString()] += dp.Value
			}
		}
	}
	return out
}

func TestOrderMetrics(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(ctx) })

	m, err := newOrderMetrics(mp)
	require.NoError(t, err)

	m.OrderCommitted(ctx, &order.Order{ID: 1, Status: order.StatusOpen}, true)
	m.OrderCommitted(ctx, &order.Order{ID: 2, Status: order.StatusPaid}, true)
	m.OrderCommitted(ctx, &order.Order{ID: 1, Status: order.StatusOpen}, false)
	m.OrderTransitioned(ctx, &order.Order{ID: 1, Status: order.StatusPaid}, order.StatusOpen)
	m.OrderTransitioned(ctx, &order.Order{ID: 3, Status: order.StatusCancelled}, order.StatusOpen)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	assert.Equal(t, map[string]int64{"OPEN": 2, "PAID": 1}, counterValues(t, rm, "pos.orders.committed"))
	assert.Equal(t, map[string]int64{"PAID": 1, "CANCELLED": 1}, counterValues(t, rm, "pos.orders.transitions"))
}
