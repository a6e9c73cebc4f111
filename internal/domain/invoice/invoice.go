// Package invoice lists and shows committed orders and exports receipts.
package invoice

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/bistro-pos/internal/domain/order"
)

// StatusAny disables status filtering.
const StatusAny = "any"

// Query is the storage-level order search. Zero times are unbounded; the
// range is [From, To). An empty Status matches every status.
type Query struct {
	From   time.Time
	To     time.Time
	Status order.Status
	Search string
}

// Repository searches persisted orders.
type Repository interface {
	// SearchOrders returns matching orders, newest first with ties broken
	// by id descending. Search matches table label, note or order id as a
	// case-insensitive substring.
	SearchOrders(ctx context.Context, q Query) ([]order.Summary, error)
	// GetSummary returns one order row with its table label.
	GetSummary(ctx context.Context, id int64) (*order.Summary, error)
}

// Lifecycle is the subset of order.Manager the invoice service drives.
type Lifecycle interface {
	Get(ctx context.Context, id int64) (*order.Order, error)
	Cancel(ctx context.Context, id int64) (*order.Order, error)
	MarkPaid(ctx context.Context, id int64) (*order.Order, error)
	Reopen(ctx context.Context, id int64) (*order.Reopened, error)
}

var _ Lifecycle = (*order.Manager)(nil)

// Filter selects orders by creation date, status and free text.
type Filter struct {
	// From and To are calendar dates, both inclusive. Time of day is ignored.
	From *time.Time
	To   *time.Time
	// Status is an order status or StatusAny. Empty means any.
	Status string
	Search string
}

// Detail is one order with its table label and items.
type Detail struct {
	order.Summary
	Items []order.Item
}

// Portions returns the sum of item quantities.
func (d *Detail) Portions() int {
	n := 0
	for _, it := range d.Items {
		n += it.Quantity
	}
	return n
}

// Service answers invoice queries and forwards state changes to the order
// lifecycle.
type Service struct {
	repo   Repository
	orders Lifecycle
	loc    *time.Location
}

// NewService creates an invoice Service. Dates are interpreted in loc.
func NewService(repo Repository, orders Lifecycle, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{repo: repo, orders: orders, loc: loc}
}

// List returns the orders matching f.
func (s *Service) List(ctx context.Context, f Filter) ([]order.Summary, error) {
	q := Query{Search: strings.TrimSpace(f.Search)}
	if st := strings.TrimSpace(f.Status); st != "" && !strings.EqualFold(st, StatusAny) {
		status, err := order.ParseStatus(st)
		if err != nil {
			return nil, err
		}
		q.Status = status
	}
	if f.From != nil {
		q.From = startOfDay(*f.From, s.loc)
	}
	if f.To != nil {
		q.To = startOfDay(*f.To, s.loc).AddDate(0, 0, 1)
	}

	out, err := s.repo.SearchOrders(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "search orders")
	}
	return out, nil
}

// Detail returns order id with its items.
func (s *Service) Detail(ctx context.Context, id int64) (*Detail, error) {
	sum, err := s.repo.GetSummary(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %d", id)
	}
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sum.Status = o.Status
	sum.Totals = o.Totals
	return &Detail{Summary: *sum, Items: o.Items}, nil
}

func (s *Service) Cancel(ctx context.Context, id int64) (*order.Order, error) {
	return s.orders.Cancel(ctx, id)
}

func (s *Service) MarkPaid(ctx context.Context, id int64) (*order.Order, error) {
	return s.orders.MarkPaid(ctx, id)
}

func (s *Service) Reopen(ctx context.Context, id int64) (*order.Reopened, error) {
	return s.orders.Reopen(ctx, id)
}

// Export loads order id for a receipt. With pay set an unpaid order is
// marked PAID first. Cancelled orders are never exported.
func (s *Service) Export(ctx context.Context, id int64, pay bool) (*Detail, error) {
	d, err := s.Detail(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Status == order.StatusCancelled {
		return nil, &order.InvalidTransitionError{OrderID: id, Action: "export", From: d.Status}
	}
	if pay && d.Status != order.StatusPaid {
		if _, err := s.orders.MarkPaid(ctx, id); err != nil {
			return nil, err
		}
		return s.Detail(ctx, id)
	}
	return d, nil
}

// Location returns the time zone used for calendar dates.
func (s *Service) Location() *time.Location { return s.loc }

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
