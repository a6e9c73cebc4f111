package cart

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/bistro-pos/internal/domain/apperr"
	"github.com/xenking/bistro-pos/internal/domain/menu"
	"github.com/xenking/bistro-pos/internal/domain/totals"
)

// --- Mock implementations ---

type mockMenu struct {
	items map[int64]menu.Item
	err   error
}

func (m *mockMenu) GetItem(_ context.Context, id int64) (*menu.Item, error) {
	if m.err != nil {
		return nil, m.err
	}
	it, ok := m.items[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &it, nil
}

// --- Helpers ---

func newMenu() *mockMenu {
	return &mockMenu{items: map[int64]menu.Item{
		1: {ID: 1, Name: "Pho bo", Price: decimal.NewFromInt(35000), Available: true},
		2: {ID: 2, Name: "Grilled fish", Price: decimal.NewFromInt(120000), Available: true},
		3: {ID: 3, Name: "Iced tea", Price: decimal.NewFromInt(5000), Available: true},
	}}
}

// --- Tests ---

func TestAdd_Merges(t *testing.T) {
	m := newMenu()
	c := New()
	ctx := context.Background()

	require.NoError(t, c.Add(ctx, m, 1, 2))

	// A later price change must not affect the captured price.
	it := m.items[1]
	it.Price = decimal.NewFromInt(40000)
	m.items[1] = it

	require.NoError(t, c.Add(ctx, m, 1, 3))

	require.Equal(t, 1, c.Len())
	e, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, 5, e.Quantity)
	assert.True(t, decimal.NewFromInt(35000).Equal(e.UnitPrice))
}

func TestAdd_Validation(t *testing.T) {
	c := New()
	ctx := context.Background()

	err := c.Add(ctx, newMenu(), 1, 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	err = c.Add(ctx, newMenu(), 99, 1)
	require.ErrorIs(t, err, ErrUnknownItem)
	assert.True(t, apperr.IsValidation(err))
	assert.True(t, c.Empty())
}

func TestAdd_LookupError(t *testing.T) {
	m := newMenu()
	m.err = errors.New("db down")

	err := New().Add(context.Background(), m, 1, 1)
	require.ErrorIs(t, err, m.err)
	assert.False(t, apperr.IsValidation(err))
}

func TestSetQuantity(t *testing.T) {
	c := New()
	ctx := context.Background()
	require.NoError(t, c.Add(ctx, newMenu(), 1, 2))
	require.NoError(t, c.Add(ctx, newMenu(), 2, 1))

	c.SetQuantity(1, 7)
	e, _ := c.Get(1)
	assert.Equal(t, 7, e.Quantity)

	c.SetQuantity(1, 0)
	_, ok := c.Get(1)
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	// Unknown ids are ignored.
	c.SetQuantity(42, 3)
	assert.Equal(t, 1, c.Len())
}

func TestRemove_KeepsOrder(t *testing.T) {
	c := New()
	ctx := context.Background()
	for _, id := range []int64{1, 2, 3} {
		require.NoError(t, c.Add(ctx, newMenu(), id, 1))
	}

	c.Remove(1)
	c.Remove(99)

	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, int64(2), entries[0].ItemID)
	assert.Equal(t, int64(3), entries[1].ItemID)

	c.SetQuantity(3, 4)
	e, _ := c.Get(3)
	assert.Equal(t, 4, e.Quantity)
}

func TestClear(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(context.Background(), newMenu(), 1, 1))
	c.Clear()
	assert.True(t, c.Empty())
	assert.Zero(t, c.Portions())
}

func TestTotals(t *testing.T) {
	c := New()
	ctx := context.Background()
	require.NoError(t, c.Add(ctx, newMenu(), 1, 2))
	require.NoError(t, c.Add(ctx, newMenu(), 2, 1))

	got := c.Totals(totals.DefaultRates)
	assert.True(t, decimal.NewFromInt(190000).Equal(got.Subtotal))
	assert.True(t, decimal.NewFromInt(218500).Equal(got.Total))
	assert.Equal(t, 3, c.Portions())

	e, _ := c.Get(1)
	assert.True(t, decimal.NewFromInt(70000).Equal(e.LineTotal()))
}

func TestPut(t *testing.T) {
	c := New()
	c.Put(Entry{ItemID: 5, Name: "Spring rolls", Quantity: 2, UnitPrice: decimal.NewFromInt(30000)})
	c.Put(Entry{ItemID: 6, Name: "Ignored", Quantity: 0, UnitPrice: decimal.NewFromInt(1)})
	c.Put(Entry{ItemID: 5, Name: "Spring rolls", Quantity: 1, UnitPrice: decimal.NewFromInt(99999)})

	require.Equal(t, 1, c.Len())
	e, _ := c.Get(5)
	assert.Equal(t, 3, e.Quantity)
	assert.True(t, decimal.NewFromInt(30000).Equal(e.UnitPrice))
}
