//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xenking/bistro-pos/db"
	"github.com/xenking/bistro-pos/internal/domain/apperr"
	"github.com/xenking/bistro-pos/internal/domain/cart"
	"github.com/xenking/bistro-pos/internal/domain/invoice"
	"github.com/xenking/bistro-pos/internal/domain/menu"
	"github.com/xenking/bistro-pos/internal/domain/order"
	"github.com/xenking/bistro-pos/internal/domain/revenue"
	"github.com/xenking/bistro-pos/internal/domain/settings"
	"github.com/xenking/bistro-pos/internal/storage/postgres"
)

var pool *pgxpool.Pool

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "pos",
				"POSTGRES_PASSWORD": "pos",
				"POSTGRES_DB":       "pos",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("start postgres: %v", err)
	}
	defer func() {
		if err := c.Terminate(context.Background()); err != nil {
			log.Printf("terminate postgres: %v", err)
		}
	}()

	host, err := c.Host(ctx)
	if err != nil {
		log.Fatalf("host: %v", err)
	}
	port, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		log.Fatalf("mapped port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://pos:pos@%s:%s/pos?sslmode=disable", host, port.Port())
	pool, err = postgres.NewPool(ctx, dsn)
	if err != nil {
		log.Fatalf("pool: %v", err)
	}
	defer pool.Close()

	// Twice: the schema must be idempotent.
	for range 2 {
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}

	seed, err := db.ParseSeed(db.SeedMenu)
	if err != nil {
		log.Fatalf("parse seed: %v", err)
	}
	if _, err := postgres.Seed(ctx, pool, seed); err != nil {
		log.Fatalf("seed: %v", err)
	}

	return m.Run()
}

// --- Helpers ---

type fixture struct {
	menu     *postgres.MenuRepository
	orders   *postgres.OrderRepository
	settings *settings.Store
	manager  *order.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		menu:     postgres.NewMenuRepository(pool),
		orders:   postgres.NewOrderRepository(pool),
		settings: settings.NewStore(postgres.NewSettingsRepository(pool)),
	}
	f.manager = order.NewManager(f.orders, f.menu, f.settings)
	return f
}

func (f *fixture) itemByName(t *testing.T, name string) menu.Item {
	t.Helper()

	items, err := f.menu.ListItems(context.Background(), menu.ItemFilter{Search: name})
	require.NoError(t, err)
	for _, it := range items {
		if it.Name == name {
			return it
		}
	}
	t.Fatalf("menu item %q not found", name)
	return menu.Item{}
}

func (f *fixture) tableByLabel(t *testing.T, label string) menu.Table {
	t.Helper()

	tables, err := f.menu.ListTables(context.Background())
	require.NoError(t, err)
	for _, tb := range tables {
		if tb.Label == label {
			return tb
		}
	}
	t.Fatalf("table %q not found", label)
	return menu.Table{}
}

func (f *fixture) commit(t *testing.T, table menu.Table, status order.Status, lines map[string]int) *order.Order {
	t.Helper()

	ctx := context.Background()
	c := cart.New()
	for name, qty := range lines {
		it := f.itemByName(t, name)
		require.NoError(t, c.Add(ctx, f.menu, it.ID, qty))
	}
	o, err := f.manager.Commit(ctx, order.CommitRequest{
		TableID: &table.ID,
		Entries: c.Entries(),
		Status:  status,
	})
	require.NoError(t, err)
	return o
}

// --- Tests ---

func TestSeed_Idempotent(t *testing.T) {
	seed, err := db.ParseSeed(db.SeedMenu)
	require.NoError(t, err)

	stats, err := postgres.Seed(context.Background(), pool, seed)
	require.NoError(t, err)
	assert.Equal(t, postgres.SeedStats{}, stats)
}

func TestSettings_DefaultRatesSeeded(t *testing.T) {
	f := newFixture(t)

	rates, err := f.settings.Rates(context.Background())
	require.NoError(t, err)
	assert.True(t, rates.Tax.Equal(decimal.RequireFromString("0.10")))
	assert.True(t, rates.Service.Equal(decimal.RequireFromString("0.05")))
}

func TestMenu_CategoryLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c := &menu.Category{Name: "Specials"}
	require.NoError(t, f.menu.CreateCategory(ctx, c))
	require.NotZero(t, c.ID)

	err := f.menu.CreateCategory(ctx, &menu.Category{Name: "Specials"})
	require.ErrorIs(t, err, menu.ErrDuplicateName)

	it := &menu.Item{Name: "Chef soup", CategoryID: &c.ID, Price: decimal.NewFromInt(60000), Available: true}
	require.NoError(t, f.menu.CreateItem(ctx, it))

	require.NoError(t, f.menu.DeleteCategory(ctx, c.ID))

	got, err := f.menu.GetItem(ctx, it.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)

	_, err = f.menu.GetItem(ctx, 1<<40)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestMenu_UnknownCategoryIsValidation(t *testing.T) {
	f := newFixture(t)

	missing := int64(1 << 40)
	err := f.menu.CreateItem(context.Background(), &menu.Item{Name: "Ghost", CategoryID: &missing, Price: decimal.Zero})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestOrders_CommitAndGet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	table := f.tableByLabel(t, "Table 3")

	o := f.commit(t, table, order.StatusOpen, map[string]int{"Grilled fish": 1, "Fresh spring rolls": 2})

	got, err := f.manager.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusOpen, got.Status)
	assert.Equal(t, "190000", got.Totals.Subtotal.String())
	assert.Equal(t, "19000", got.Totals.Tax.String())
	assert.Equal(t, "9500", got.Totals.Service.String())
	assert.Equal(t, "218500", got.Totals.Total.String())
	assert.Len(t, got.Items, 2)
	assert.Equal(t, 3, got.Portions())
	assert.WithinDuration(t, o.CreatedAt, got.CreatedAt, time.Millisecond)
}

func TestOrders_ReplaceSwapsItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	table := f.tableByLabel(t, "Table 4")

	o := f.commit(t, table, order.StatusOpen, map[string]int{"Beef pho": 2})

	re, err := f.manager.Reopen(ctx, o.ID)
	require.NoError(t, err)

	c := cart.New()
	for _, e := range re.Entries() {
		c.Put(e)
	}
	c.SetQuantity(f.itemByName(t, "Beef pho").ID, 1)
	require.NoError(t, c.Add(ctx, f.menu, f.itemByName(t, "Iced tea").ID, 3))

	edited, err := f.manager.Commit(ctx, order.CommitRequest{
		TableID:         &table.ID,
		Entries:         c.Entries(),
		ExistingOrderID: &o.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, o.ID, edited.ID)

	got, err := f.manager.Get(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "60000", got.Totals.Subtotal.String())
	assert.WithinDuration(t, o.CreatedAt, got.CreatedAt, time.Millisecond)
}

func TestOrders_ItemInUseCannotBeDeleted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	it := &menu.Item{Name: "Temporary dish", Price: decimal.NewFromInt(10000), Available: true}
	require.NoError(t, f.menu.CreateItem(ctx, it))
	f.commit(t, f.tableByLabel(t, "Table 1"), order.StatusOpen, map[string]int{"Temporary dish": 1})

	err := f.menu.DeleteItem(ctx, it.ID)
	require.ErrorIs(t, err, menu.ErrItemInUse)
}

func TestOrders_TransitionsWriteAudit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	table := f.tableByLabel(t, "Table 2")

	o := f.commit(t, table, order.StatusOpen, map[string]int{"Iced milk coffee": 2})

	_, err := f.manager.MarkPaid(ctx, o.ID)
	require.NoError(t, err)

	_, err = f.manager.Cancel(ctx, o.ID)
	var transition *order.InvalidTransitionError
	require.True(t, errors.As(err, &transition))
	assert.Equal(t, order.StatusPaid, transition.From)

	audits, err := f.manager.Audits(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, audits, 1)
	assert.Equal(t, order.ActionStatusChanged, audits[0].Action)
	assert.Contains(t, audits[0].Note, "PAID")
}

func TestOrders_ConcurrentTransitions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	o := f.commit(t, f.tableByLabel(t, "Table 5"), order.StatusOpen, map[string]int{"Fresh coconut": 1})

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		errs   []error
		starts = make(chan struct{})
	)
	for _, fn := range []func(context.Context, int64) (*order.Order, error){f.manager.Cancel, f.manager.MarkPaid} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-starts
			_, err := fn(ctx, o.ID)
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}()
	}
	close(starts)
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	assert.Equal(t, 1, failed)

	audits, err := f.manager.Audits(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, audits, 1)
}

func TestInvoices_SearchAndRevenue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	terrace := f.tableByLabel(t, "Terrace 1")

	paid := f.commit(t, terrace, order.StatusPaid, map[string]int{"Grilled fish": 2})
	open := f.commit(t, terrace, order.StatusOpen, map[string]int{"Iced tea": 1})

	invoices := invoice.NewService(f.orders, f.manager, time.Local)
	rows, err := invoices.List(ctx, invoice.Filter{Search: "terrace"})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 2)
	assert.Equal(t, open.ID, rows[0].ID)
	assert.Equal(t, "Terrace 1", rows[0].TableLabel)

	rows, err = invoices.List(ctx, invoice.Filter{Search: "terrace", Status: string(order.StatusPaid)})
	require.NoError(t, err)
	for _, r := range rows {
		assert.Equal(t, order.StatusPaid, r.Status)
	}

	rows, err = invoices.List(ctx, invoice.Filter{Search: "100%"})
	require.NoError(t, err)
	assert.Empty(t, rows)

	agg := revenue.NewAggregator(f.orders, time.Local)
	report, err := agg.ByDate(ctx, time.Now())
	require.NoError(t, err)

	var found bool
	for _, s := range report.Orders {
		assert.Equal(t, order.StatusPaid, s.Status)
		found = found || s.ID == paid.ID
	}
	assert.True(t, found)
	assert.True(t, report.Summary.Totals.Balanced())
}
