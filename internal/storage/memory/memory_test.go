package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/bistro-pos/internal/domain/apperr"
	"github.com/xenking/bistro-pos/internal/domain/invoice"
	"github.com/xenking/bistro-pos/internal/domain/order"
	"github.com/xenking/bistro-pos/internal/domain/totals"
	"github.com/xenking/bistro-pos/internal/storage/memory"
)

func newOrder(t *testing.T, table int64, createdAt time.Time) *order.Order {
	t.Helper()
	it, err := order.NewItem(4, "Fresh spring rolls", 2, decimal.NewFromInt(35000))
	require.NoError(t, err)
	return &order.Order{
		TableID:   &table,
		CreatedAt: createdAt,
		Totals:    totals.Calculate([]totals.Line{{Quantity: 2, UnitPrice: decimal.NewFromInt(35000)}}, totals.DefaultRates),
		Status:    order.StatusOpen,
		Items:     []order.Item{it},
	}
}

func TestStore_CreateAssignsIDs(t *testing.T) {
	ctx := context.Background()
	st := memory.NewSeeded()

	o := newOrder(t, 1, time.Now())
	audit := &order.Audit{Action: order.ActionStatusChanged, Note: "PAID"}
	require.NoError(t, st.Create(ctx, o, audit))
	assert.EqualValues(t, 1, o.ID)
	assert.Equal(t, o.ID, o.Items[0].OrderID)
	assert.NotZero(t, o.Items[0].ID)
	assert.Equal(t, o.ID, audit.OrderID)

	audits, err := st.Audits(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, audits, 1)
	assert.Equal(t, "PAID", audits[0].Note)
}

func TestStore_CreateUnknownTable(t *testing.T) {
	st := memory.NewSeeded()

	err := st.Create(context.Background(), newOrder(t, 99, time.Now()), nil)
	var storageErr *apperr.StorageError
	require.ErrorAs(t, err, &storageErr)
}

func TestStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	st := memory.NewSeeded()
	o := newOrder(t, 1, time.Now())
	require.NoError(t, st.Create(ctx, o, nil))

	got, err := st.Get(ctx, o.ID)
	require.NoError(t, err)
	got.Items[0].Quantity = 99
	*got.TableID = 5

	again, err := st.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Items[0].Quantity)
	assert.EqualValues(t, 1, *again.TableID)
}

func TestStore_SetStatusCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	st := memory.NewSeeded()
	o := newOrder(t, 1, time.Now())
	require.NoError(t, st.Create(ctx, o, nil))

	targets := []order.Status{order.StatusPaid, order.StatusCancelled}
	errs := make([]error, 8)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			to := targets[i%len(targets)]
			errs[i] = st.SetStatus(ctx, o.ID, order.StatusOpen, to, order.Audit{Action: order.ActionStatusChanged, Note: to.String()})
		}()
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, order.ErrStatusChanged)
	}
	assert.Equal(t, 1, ok)

	audits, err := st.Audits(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, audits, 1)

	assert.ErrorIs(t, st.SetStatus(ctx, 404, order.StatusOpen, order.StatusPaid, order.Audit{}), apperr.ErrNotFound)
}

func TestStore_ReplaceRequiresOpen(t *testing.T) {
	ctx := context.Background()
	st := memory.NewSeeded()
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	o := newOrder(t, 1, created)
	require.NoError(t, st.Create(ctx, o, nil))

	edit := newOrder(t, 2, time.Now())
	edit.ID = o.ID
	require.NoError(t, st.Replace(ctx, edit, nil))
	assert.Equal(t, created, edit.CreatedAt)

	require.NoError(t, st.SetStatus(ctx, o.ID, order.StatusOpen, order.StatusPaid, order.Audit{Action: order.ActionStatusChanged}))
	assert.ErrorIs(t, st.Replace(ctx, edit, nil), order.ErrStatusChanged)

	edit.ID = 404
	assert.ErrorIs(t, st.Replace(ctx, edit, nil), apperr.ErrNotFound)
}

func TestStore_DeleteTableDetachesOrders(t *testing.T) {
	ctx := context.Background()
	st := memory.NewSeeded()
	o := newOrder(t, 3, time.Now())
	require.NoError(t, st.Create(ctx, o, nil))

	require.NoError(t, st.DeleteTable(ctx, 3))

	sum, err := st.GetSummary(ctx, o.ID)
	require.NoError(t, err)
	assert.Nil(t, sum.TableID)
	assert.Empty(t, sum.TableLabel)
}

func TestStore_SearchAndPaidOrdering(t *testing.T) {
	ctx := context.Background()
	st := memory.NewSeeded()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	first := newOrder(t, 1, base)
	second := newOrder(t, 2, base)
	third := newOrder(t, 1, base.Add(time.Hour))
	third.Note = "Birthday party"
	for _, o := range []*order.Order{first, second, third} {
		require.NoError(t, st.Create(ctx, o, nil))
		require.NoError(t, st.SetStatus(ctx, o.ID, order.StatusOpen, order.StatusPaid, order.Audit{}))
	}

	all, err := st.SearchOrders(ctx, invoice.Query{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{third.ID, second.ID, first.ID}, []int64{all[0].ID, all[1].ID, all[2].ID})

	byNote, err := st.SearchOrders(ctx, invoice.Query{Search: "birthday"})
	require.NoError(t, err)
	require.Len(t, byNote, 1)
	assert.Equal(t, third.ID, byNote[0].ID)

	byLabel, err := st.SearchOrders(ctx, invoice.Query{Search: "table 2"})
	require.NoError(t, err)
	require.Len(t, byLabel, 1)
	assert.Equal(t, second.ID, byLabel[0].ID)

	paid, err := st.PaidOrders(ctx, base, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, paid, 2)
	assert.Equal(t, []int64{first.ID, second.ID}, []int64{paid[0].ID, paid[1].ID})
}
