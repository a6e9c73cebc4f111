package order

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/bistro-pos/internal/domain/apperr"
	"github.com/xenking/bistro-pos/internal/domain/cart"
	"github.com/xenking/bistro-pos/internal/domain/menu"
	"github.com/xenking/bistro-pos/internal/domain/totals"
)

// TableLookup resolves dining tables referenced by a commit.
type TableLookup interface {
	GetTable(ctx context.Context, id int64) (*menu.Table, error)
}

// RateSource provides the rates applied at commit time.
type RateSource interface {
	Rates(ctx context.Context) (totals.Rates, error)
}

// Observer is notified after order changes are persisted.
type Observer interface {
	OrderCommitted(ctx context.Context, o *Order, created bool)
	OrderTransitioned(ctx context.Context, o *Order, from Status)
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithObserver registers an Observer.
func WithObserver(o Observer) Option {
	return func(m *Manager) { m.observers = append(m.observers, o) }
}

// Manager owns the order lifecycle: committing carts and changing status.
type Manager struct {
	orders    Repository
	tables    TableLookup
	rates     RateSource
	observers []Observer
	now       func() time.Time
}

// NewManager creates a Manager.
func NewManager(orders Repository, tables TableLookup, rates RateSource, opts ...Option) *Manager {
	m := &Manager{
		orders: orders,
		tables: tables,
		rates:  rates,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CommitRequest holds the input of Commit.
type CommitRequest struct {
	TableID *int64
	Entries []cart.Entry
	// Status is OPEN or PAID. Empty means OPEN.
	Status Status
	Note   string
	// ExistingOrderID switches Commit to edit mode.
	ExistingOrderID *int64
}

// Commit persists req as a new order, or replaces the items and totals of
// an existing OPEN order when ExistingOrderID is set.
func (m *Manager) Commit(ctx context.Context, req CommitRequest) (*Order, error) {
	status := req.Status
	if status == "" {
		status = StatusOpen
	}
	if status != StatusOpen && status != StatusPaid {
		return nil, ErrCommitStatus
	}
	if req.TableID == nil {
		return nil, ErrNoTable
	}
	if len(req.Entries) == 0 {
		return nil, ErrEmptyCart
	}
	if _, err := m.tables.GetTable(ctx, *req.TableID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, ErrUnknownTable
		}
		return nil, errors.Wrap(err, "get table")
	}

	items := make([]Item, len(req.Entries))
	lines := make([]totals.Line, len(req.Entries))
	for i, e := range req.Entries {
		it, err := NewItem(e.ItemID, e.Name, e.Quantity, e.UnitPrice)
		if err != nil {
			return nil, err
		}
		items[i] = it
		lines[i] = totals.Line{Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}

	rates, err := m.rates.Rates(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "get rates")
	}

	tableID := *req.TableID
	o := &Order{
		TableID: &tableID,
		Totals:  totals.Calculate(lines, rates),
		Status:  status,
		Note:    strings.TrimSpace(req.Note),
		Items:   items,
	}
	if err := o.Verify(); err != nil {
		zctx.From(ctx).Error("Computed order is inconsistent", zap.Error(err))
		return nil, err
	}

	now := m.now()
	var audit *Audit
	if status != StatusOpen {
		audit = newAudit(0, status, now)
	}

	created := req.ExistingOrderID == nil
	if created {
		o.CreatedAt = now
		if err := m.orders.Create(ctx, o, audit); err != nil {
			return nil, errors.Wrap(err, "create order")
		}
	} else {
		if err := m.replace(ctx, *req.ExistingOrderID, o, audit); err != nil {
			return nil, err
		}
	}

	zctx.From(ctx).Info("Order committed",
		zap.Int64("order_id", o.ID),
		zap.Int64("table_id", tableID),
		zap.String("status", o.Status.String()),
		zap.String("total", o.Totals.Total.String()),
		zap.Bool("created", created),
	)
	for _, obs := range m.observers {
		obs.OrderCommitted(ctx, o, created)
	}
	if audit != nil {
		m.notifyTransition(ctx, o, StatusOpen)
	}
	return o, nil
}

func (m *Manager) replace(ctx context.Context, id int64, o *Order, audit *Audit) error {
	current, err := m.orders.Get(ctx, id)
	if err != nil {
		return errors.Wrapf(err, "get order %d", id)
	}
	if current.Status != StatusOpen {
		return &InvalidTransitionError{OrderID: id, Action: "edit", From: current.Status}
	}

	o.ID = id
	o.CreatedAt = current.CreatedAt
	if audit != nil {
		audit.OrderID = id
	}
	if err := m.orders.Replace(ctx, o, audit); err != nil {
		if errors.Is(err, ErrStatusChanged) {
			return m.conflict(ctx, id, "edit")
		}
		return errors.Wrapf(err, "replace order %d", id)
	}
	return nil
}

// CommitSession commits the session cart and resets the session on success.
func (m *Manager) CommitSession(ctx context.Context, s *Session, status Status, note string) (*Order, error) {
	o, err := m.Commit(ctx, CommitRequest{
		TableID:         s.TableID,
		Entries:         s.Cart.Entries(),
		Status:          status,
		Note:            note,
		ExistingOrderID: s.EditingOrderID,
	})
	if err != nil {
		return nil, err
	}
	s.Reset()
	return o, nil
}

// Cancel moves an OPEN order to CANCELLED.
func (m *Manager) Cancel(ctx context.Context, id int64) (*Order, error) {
	o, err := m.orders.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %d", id)
	}
	if o.Status != StatusOpen {
		return nil, &InvalidTransitionError{OrderID: id, Action: "cancel", From: o.Status}
	}
	if err := m.transition(ctx, o, StatusCancelled, "cancel"); err != nil {
		return nil, err
	}
	return o, nil
}

// MarkPaid moves an OPEN order to PAID. Paying a PAID order is a no-op.
func (m *Manager) MarkPaid(ctx context.Context, id int64) (*Order, error) {
	o, err := m.orders.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %d", id)
	}
	switch o.Status {
	case StatusPaid:
		return o, nil
	case StatusCancelled:
		return nil, &InvalidTransitionError{OrderID: id, Action: "mark paid", From: o.Status}
	}
	if err := m.transition(ctx, o, StatusPaid, "mark paid"); err != nil {
		return nil, err
	}
	return o, nil
}

func (m *Manager) transition(ctx context.Context, o *Order, to Status, action string) error {
	from := o.Status
	if err := m.orders.SetStatus(ctx, o.ID, from, to, *newAudit(o.ID, to, m.now())); err != nil {
		if errors.Is(err, ErrStatusChanged) {
			return m.conflict(ctx, o.ID, action)
		}
		return errors.Wrapf(err, "set order %d status", o.ID)
	}
	o.Status = to

	zctx.From(ctx).Info("Order status changed",
		zap.Int64("order_id", o.ID),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)
	m.notifyTransition(ctx, o, from)
	return nil
}

// conflict reloads order id after a lost status race and reports the
// transition error against the stored status.
func (m *Manager) conflict(ctx context.Context, id int64, action string) error {
	current, err := m.orders.Get(ctx, id)
	if err != nil {
		return errors.Wrapf(err, "get order %d", id)
	}
	return &InvalidTransitionError{OrderID: id, Action: action, From: current.Status}
}

func (m *Manager) notifyTransition(ctx context.Context, o *Order, from Status) {
	for _, obs := range m.observers {
		obs.OrderTransitioned(ctx, o, from)
	}
}

// Reopened is an OPEN order loaded back for editing.
type Reopened struct {
	OrderID int64
	TableID *int64
	Items   []Item
}

// Entries converts the reopened items to cart entries.
func (r *Reopened) Entries() []cart.Entry {
	out := make([]cart.Entry, len(r.Items))
	for i, it := range r.Items {
		out[i] = cart.Entry{
			ItemID:    it.MenuItemID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		}
	}
	return out
}

// Reopen returns the table and items of an OPEN order.
func (m *Manager) Reopen(ctx context.Context, id int64) (*Reopened, error) {
	o, err := m.orders.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %d", id)
	}
	if o.Status != StatusOpen {
		return nil, &InvalidTransitionError{OrderID: id, Action: "reopen", From: o.Status}
	}
	return &Reopened{OrderID: o.ID, TableID: o.TableID, Items: o.Items}, nil
}

// ReopenIntoSession replaces the session cart with the items of OPEN order
// id and points the session at it, so the next commit edits that order.
func (m *Manager) ReopenIntoSession(ctx context.Context, s *Session, id int64) (*Reopened, error) {
	r, err := m.Reopen(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Cart.Clear()
	for _, e := range r.Entries() {
		s.Cart.Put(e)
	}
	s.TableID = r.TableID
	s.EditingOrderID = &r.OrderID
	return r, nil
}

// Get returns order id after checking its totals against its items.
func (m *Manager) Get(ctx context.Context, id int64) (*Order, error) {
	o, err := m.orders.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %d", id)
	}
	if err := o.Verify(); err != nil {
		zctx.From(ctx).Error("Stored order is inconsistent", zap.Error(err))
		return nil, err
	}
	return o, nil
}

// Audits returns the status history of order id.
func (m *Manager) Audits(ctx context.Context, id int64) ([]Audit, error) {
	as, err := m.orders.Audits(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %d audits", id)
	}
	return as, nil
}

func newAudit(orderID int64, to Status, at time.Time) *Audit {
	return &Audit{
		Action:    ActionStatusChanged,
		OrderID:   orderID,
		CreatedAt: at,
		Note:      to.String(),
	}
}
