package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/bistro-pos/internal/domain/apperr"
	"github.com/xenking/bistro-pos/internal/domain/invoice"
	"github.com/xenking/bistro-pos/internal/domain/order"
	"github.com/xenking/bistro-pos/internal/domain/revenue"
)

const tracerName = "github.com/xenking/bistro-pos/internal/storage/postgres"

const (
	insertOrderSQL = `INSERT INTO orders (table_id, created_at, subtotal, tax, service, total, status, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, '')) RETURNING id`

	insertOrderItemSQL = `INSERT INTO order_items (order_id, item_id, item_name, unit_price, quantity, line_total)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`

	insertAuditSQL = `INSERT INTO order_audit (action, order_id, created_at, note)
		VALUES ($1, $2, $3, $4) RETURNING id`

	lockOrderSQL = `SELECT status FROM orders WHERE id = $1 FOR UPDATE`

	updateOrderSQL = `UPDATE orders
		SET table_id = $2, subtotal = $3, tax = $4, service = $5, total = $6, status = $7, note = NULLIF($8, '')
		WHERE id = $1
		RETURNING created_at`

	deleteOrderItemsSQL = `DELETE FROM order_items WHERE order_id = $1`

	updateOrderStatusSQL = `UPDATE orders SET status = $3 WHERE id = $1 AND status = $2`

	getOrderSQL = `SELECT id, table_id, created_at, subtotal, tax, service, total, status, COALESCE(note, '')
		FROM orders WHERE id = $1`

	getOrderItemsSQL = `SELECT id, order_id, item_id, item_name, unit_price, quantity, line_total
		FROM order_items WHERE order_id = $1 ORDER BY id`

	listAuditsSQL = `SELECT id, action, order_id, created_at, COALESCE(note, '')
		FROM order_audit WHERE order_id = $1 ORDER BY id`

	summarySelect = `SELECT o.id, o.table_id, COALESCE(t.label, ''), o.created_at,
			o.subtotal, o.tax, o.service, o.total, o.status, COALESCE(o.note, '')
		FROM orders o
		LEFT JOIN dining_tables t ON t.id = o.table_id`

	searchOrdersSQL = summarySelect + `
		WHERE ($1::timestamptz IS NULL OR o.created_at >= $1)
		  AND ($2::timestamptz IS NULL OR o.created_at < $2)
		  AND ($3::text = '' OR o.status = $3)
		  AND ($4::text = '' OR t.label ILIKE $4 OR o.note ILIKE $4 OR CAST(o.id AS TEXT) LIKE $4)
		ORDER BY o.created_at DESC, o.id DESC`

	getSummarySQL = summarySelect + ` WHERE o.id = $1`

	paidOrdersSQL = summarySelect + `
		WHERE o.status = 'PAID' AND o.created_at >= $1 AND o.created_at < $2
		ORDER BY o.created_at, o.id`
)

var (
	_ order.Repository   = (*OrderRepository)(nil)
	_ invoice.Repository = (*OrderRepository)(nil)
	_ revenue.Repository = (*OrderRepository)(nil)
)

// OrderRepository implements the order, invoice and revenue repositories
// backed by PostgreSQL.
type OrderRepository struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

// OrderOption configures an OrderRepository.
type OrderOption func(*OrderRepository)

// WithTracerProvider sets the provider for transaction spans.
func WithTracerProvider(tp trace.TracerProvider) OrderOption {
	return func(r *OrderRepository) { r.tracer = tp.Tracer(tracerName) }
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool, opts ...OrderOption) *OrderRepository {
	r := &OrderRepository{
		pool:   pool,
		tracer: otel.GetTracerProvider().Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// inTx runs fn in a transaction wrapped in a span named op.
func (r *OrderRepository) inTx(ctx context.Context, op string, orderID int64, fn func(ctx context.Context, tx pgx.Tx) error) error {
	ctx, span := r.tracer.Start(ctx, "postgres."+op, trace.WithAttributes(
		attribute.Int64("order.id", orderID),
	))
	defer span.End()

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, tx)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// Create inserts the order, its items and the optional audit row in one
// transaction.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order, audit *order.Audit) error {
	return r.inTx(ctx, "CreateOrder", 0, func(ctx context.Context, tx pgx.Tx) error {
		err := tx.QueryRow(ctx, insertOrderSQL,
			o.TableID, o.CreatedAt,
			o.Totals.Subtotal, o.Totals.Tax, o.Totals.Service, o.Totals.Total,
			string(o.Status), o.Note,
		).Scan(&o.ID)
		if err != nil {
			return apperr.Storage("insert order", err)
		}
		if err := insertItems(ctx, tx, o); err != nil {
			return err
		}
		if audit != nil {
			audit.OrderID = o.ID
			return insertAudit(ctx, tx, audit)
		}
		return nil
	})
}

// Replace locks the order row, checks it is still OPEN, updates it and
// swaps its whole item set. Any failure rolls everything back.
func (r *OrderRepository) Replace(ctx context.Context, o *order.Order, audit *order.Audit) error {
	return r.inTx(ctx, "ReplaceOrder", o.ID, func(ctx context.Context, tx pgx.Tx) error {
		var status string
		if err := tx.QueryRow(ctx, lockOrderSQL, o.ID).Scan(&status); err != nil {
			return notFound("lock order", err)
		}
		if order.Status(status) != order.StatusOpen {
			return order.ErrStatusChanged
		}

		err := tx.QueryRow(ctx, updateOrderSQL,
			o.ID, o.TableID,
			o.Totals.Subtotal, o.Totals.Tax, o.Totals.Service, o.Totals.Total,
			string(o.Status), o.Note,
		).Scan(&o.CreatedAt)
		if err != nil {
			return apperr.Storage("update order", err)
		}
		if _, err := tx.Exec(ctx, deleteOrderItemsSQL, o.ID); err != nil {
			return apperr.Storage("delete order items", err)
		}
		if err := insertItems(ctx, tx, o); err != nil {
			return err
		}
		if audit != nil {
			audit.OrderID = o.ID
			return insertAudit(ctx, tx, audit)
		}
		return nil
	})
}

// SetStatus performs a compare-and-set on the status column and appends the
// audit row in the same transaction.
func (r *OrderRepository) SetStatus(ctx context.Context, id int64, from, to order.Status, audit order.Audit) error {
	return r.inTx(ctx, "SetOrderStatus", id, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, updateOrderStatusSQL, id, string(from), string(to))
		if err != nil {
			return apperr.Storage("update order status", err)
		}
		if tag.RowsAffected() == 0 {
			var current string
			if err := tx.QueryRow(ctx, lockOrderSQL, id).Scan(&current); err != nil {
				return notFound("lock order", err)
			}
			return order.ErrStatusChanged
		}
		audit.OrderID = id
		return insertAudit(ctx, tx, &audit)
	})
}

// Get reads the order row and its items from one snapshot.
func (r *OrderRepository) Get(ctx context.Context, id int64) (*order.Order, error) {
	var o order.Order
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	}, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, getOrderSQL, id)
		if err != nil {
			return apperr.Storage("get order", err)
		}
		o, err = pgx.CollectExactlyOneRow(rows, scanOrder)
		if err != nil {
			return notFound("get order", err)
		}

		rows, err = tx.Query(ctx, getOrderItemsSQL, id)
		if err != nil {
			return apperr.Storage("get order items", err)
		}
		o.Items, err = pgx.CollectRows(rows, scanOrderItem)
		if err != nil {
			return apperr.Storage("get order items", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) Audits(ctx context.Context, id int64) ([]order.Audit, error) {
	rows, err := r.pool.Query(ctx, listAuditsSQL, id)
	if err != nil {
		return nil, apperr.Storage("list audits", err)
	}
	as, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Audit, error) {
		var a order.Audit
		err := row.Scan(&a.ID, &a.Action, &a.OrderID, &a.CreatedAt, &a.Note)
		return a, err
	})
	if err != nil {
		return nil, apperr.Storage("list audits", err)
	}
	return as, nil
}

func (r *OrderRepository) SearchOrders(ctx context.Context, q invoice.Query) ([]order.Summary, error) {
	rows, err := r.pool.Query(ctx, searchOrdersSQL,
		nullTime(q.From), nullTime(q.To), string(q.Status), likePattern(q.Search),
	)
	if err != nil {
		return nil, apperr.Storage("search orders", err)
	}
	out, err := pgx.CollectRows(rows, scanSummary)
	if err != nil {
		return nil, apperr.Storage("search orders", err)
	}
	return out, nil
}

func (r *OrderRepository) GetSummary(ctx context.Context, id int64) (*order.Summary, error) {
	rows, err := r.pool.Query(ctx, getSummarySQL, id)
	if err != nil {
		return nil, apperr.Storage("get order summary", err)
	}
	s, err := pgx.CollectExactlyOneRow(rows, scanSummary)
	if err != nil {
		return nil, notFound("get order summary", err)
	}
	return &s, nil
}

func (r *OrderRepository) PaidOrders(ctx context.Context, from, to time.Time) ([]order.Summary, error) {
	rows, err := r.pool.Query(ctx, paidOrdersSQL, from, to)
	if err != nil {
		return nil, apperr.Storage("list paid orders", err)
	}
	out, err := pgx.CollectRows(rows, scanSummary)
	if err != nil {
		return nil, apperr.Storage("list paid orders", err)
	}
	return out, nil
}

func insertItems(ctx context.Context, tx pgx.Tx, o *order.Order) error {
	for i := range o.Items {
		it := &o.Items[i]
		err := tx.QueryRow(ctx, insertOrderItemSQL,
			o.ID, it.MenuItemID, it.Name, it.UnitPrice, it.Quantity, it.LineTotal,
		).Scan(&it.ID)
		if err != nil {
			return apperr.Storage("insert order item", err)
		}
		it.OrderID = o.ID
	}
	return nil
}

func insertAudit(ctx context.Context, tx pgx.Tx, a *order.Audit) error {
	err := tx.QueryRow(ctx, insertAuditSQL, a.Action, a.OrderID, a.CreatedAt, a.Note).Scan(&a.ID)
	if err != nil {
		return apperr.Storage("insert order audit", err)
	}
	return nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		status string
	)
	err := row.Scan(&o.ID, &o.TableID, &o.CreatedAt,
		&o.Totals.Subtotal, &o.Totals.Tax, &o.Totals.Service, &o.Totals.Total,
		&status, &o.Note,
	)
	o.Status = order.Status(status)
	return o, err
}

func scanOrderItem(row pgx.CollectableRow) (order.Item, error) {
	var it order.Item
	err := row.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Name, &it.UnitPrice, &it.Quantity, &it.LineTotal)
	return it, err
}

func scanSummary(row pgx.CollectableRow) (order.Summary, error) {
	var (
		s      order.Summary
		status string
	)
	err := row.Scan(&s.ID, &s.TableID, &s.TableLabel, &s.CreatedAt,
		&s.Totals.Subtotal, &s.Totals.Tax, &s.Totals.Service, &s.Totals.Total,
		&status, &s.Note,
	)
	s.Status = order.Status(status)
	return s, err
}
