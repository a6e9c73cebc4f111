package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	pgzip "github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/bistro-pos/internal/domain/cart"
	"github.com/xenking/bistro-pos/internal/domain/invoice"
	"github.com/xenking/bistro-pos/internal/domain/order"
	"github.com/xenking/bistro-pos/internal/domain/settings"
	"github.com/xenking/bistro-pos/internal/storage/memory"
)

func orderLine(o *order.Order) string {
	return fmt.Sprintf("Order: %d ", o.ID)
}

func TestArchive(t *testing.T) {
	ctx := context.Background()
	st := memory.NewSeeded()

	now := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	manager := order.NewManager(st, st, settings.NewStore(st),
		order.WithClock(func() time.Time { return now }))
	svc := invoice.NewService(st, manager, time.UTC)

	commit := func(at time.Time, status order.Status) *order.Order {
		t.Helper()
		now = at
		c := cart.New()
		require.NoError(t, c.Add(ctx, st, 4, 2))
		table := int64(1)
		o, err := manager.Commit(ctx, order.CommitRequest{
			TableID: &table,
			Entries: c.Entries(),
			Status:  status,
		})
		require.NoError(t, err)
		return o
	}

	day := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	first := commit(day.Add(9*time.Hour), order.StatusPaid)
	openOrder := commit(day.Add(10*time.Hour), order.StatusOpen)
	second := commit(day.Add(12*time.Hour), order.StatusPaid)
	nextDay := commit(day.AddDate(0, 0, 1).Add(time.Hour), order.StatusPaid)

	var buf bytes.Buffer
	n, err := archive(ctx, svc, invoice.DefaultReceiptWriter(time.UTC), day, 2, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	zr, err := pgzip.NewReader(&buf)
	require.NoError(t, err)
	raw, err := io.ReadAll(zr)
	require.NoError(t, err)
	require.NoError(t, zr.Close())
	text := string(raw)

	assert.Equal(t, 2, strings.Count(text, "===== RECEIPT ====="))
	assert.NotContains(t, text, orderLine(openOrder))
	assert.NotContains(t, text, orderLine(nextDay))
	assert.NotContains(t, text, "NOT YET PAID")

	firstAt := strings.Index(text, orderLine(first))
	secondAt := strings.Index(text, orderLine(second))
	require.GreaterOrEqual(t, firstAt, 0)
	require.GreaterOrEqual(t, secondAt, 0)
	assert.Less(t, firstAt, secondAt)
}

func TestArchiveEmptyDay(t *testing.T) {
	ctx := context.Background()
	st := memory.NewSeeded()
	manager := order.NewManager(st, st, settings.NewStore(st))
	svc := invoice.NewService(st, manager, time.UTC)

	var buf bytes.Buffer
	n, err := archive(ctx, svc, invoice.DefaultReceiptWriter(time.UTC), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 0, &buf)
	require.NoError(t, err)
	assert.Zero(t, n)

	zr, err := pgzip.NewReader(&buf)
	require.NoError(t, err)
	raw, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Empty(t, raw)
}
