package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/bistro-pos/internal/domain/apperr"
	"github.com/xenking/bistro-pos/internal/domain/totals"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusOpen      Status = "OPEN"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
)

// ParseStatus parses s case-insensitively.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", apperr.Validation("status", fmt.Sprintf("unknown status %q", s))
	}
	return st, nil
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

func (s Status) String() string { return string(s) }

// ActionStatusChanged is the audit action written on every status change.
const ActionStatusChanged = "STATUS_CHANGED"

// Item is a committed order line. Name and UnitPrice are copies of the menu
// item taken at commit time.
type Item struct {
	ID         int64
	OrderID    int64
	MenuItemID int64
	Name       string
	UnitPrice  decimal.Decimal
	Quantity   int
	LineTotal  decimal.Decimal
}

// NewItem builds an order line and derives its line total.
func NewItem(menuItemID int64, name string, quantity int, unitPrice decimal.Decimal) (Item, error) {
	if quantity <= 0 {
		return Item{}, apperr.Validation("quantity", fmt.Sprintf("must be greater than 0 for item %d", menuItemID))
	}
	if unitPrice.IsNegative() {
		return Item{}, apperr.Validation("unit_price", fmt.Sprintf("must not be negative for item %d", menuItemID))
	}
	return Item{
		MenuItemID: menuItemID,
		Name:       name,
		UnitPrice:  unitPrice,
		Quantity:   quantity,
		LineTotal:  totals.LineTotal(quantity, unitPrice),
	}, nil
}

// Order is a persisted order with its items.
type Order struct {
	ID        int64
	TableID   *int64
	CreatedAt time.Time
	Totals    totals.Totals
	Status    Status
	Note      string
	Items     []Item
}

// Portions returns the sum of item quantities.
func (o *Order) Portions() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// Verify checks that line totals, subtotal and total agree with the items.
func (o *Order) Verify() error {
	sum := decimal.Zero
	for _, it := range o.Items {
		want := totals.LineTotal(it.Quantity, it.UnitPrice)
		if !it.LineTotal.Equal(want) {
			return &apperr.ConsistencyError{
				OrderID: o.ID,
				Detail:  fmt.Sprintf("item %d line total %s != %s", it.MenuItemID, it.LineTotal, want),
			}
		}
		sum = sum.Add(it.LineTotal)
	}
	if !o.Totals.Subtotal.Equal(sum) {
		return &apperr.ConsistencyError{
			OrderID: o.ID,
			Detail:  fmt.Sprintf("subtotal %s != sum of items %s", o.Totals.Subtotal, sum),
		}
	}
	if !o.Totals.Balanced() {
		return &apperr.ConsistencyError{
			OrderID: o.ID,
			Detail:  fmt.Sprintf("total %s != subtotal + tax + service", o.Totals.Total),
		}
	}
	return nil
}

// Summary is an order row without items, joined with its table label.
type Summary struct {
	ID         int64
	TableID    *int64
	TableLabel string
	CreatedAt  time.Time
	Totals     totals.Totals
	Status     Status
	Note       string
}

// Audit is an append-only record of a status change.
type Audit struct {
	ID        int64
	Action    string
	OrderID   int64
	CreatedAt time.Time
	Note      string
}

// Sentinel errors for commit validation.
var (
	ErrNoTable       = apperr.Validation("table_id", "no table selected")
	ErrUnknownTable  = apperr.Validation("table_id", "unknown table")
	ErrEmptyCart     = apperr.Validation("cart", "empty cart")
	ErrCommitStatus  = apperr.Validation("status", "must be OPEN or PAID")
	ErrStatusChanged = errors.New("order status changed concurrently")
)

// InvalidTransitionError reports an illegal status change. The order is
// left untouched.
type InvalidTransitionError struct {
	OrderID int64
	Action  string
	From    Status
}

func (e *InvalidTransitionError) Error() string {
	var reason string
	switch e.From {
	case StatusPaid:
		reason = "order already paid"
	case StatusCancelled:
		reason = "order already cancelled"
	default:
		reason = fmt.Sprintf("order is %s", e.From)
	}
	return fmt.Sprintf("order %d: cannot %s: %s", e.OrderID, e.Action, reason)
}

// Repository persists orders. Every method that writes more than one row
// must do so in a single transaction.
type Repository interface {
	// Create inserts o and its items and assigns their IDs. A non-nil audit
	// is written in the same transaction with its OrderID set to o.ID.
	Create(ctx context.Context, o *Order, audit *Audit) error
	// Replace updates table, totals, status and note of an OPEN order and
	// replaces its whole item set. It returns ErrStatusChanged when the
	// stored order is no longer OPEN and apperr.ErrNotFound when it is gone.
	Replace(ctx context.Context, o *Order, audit *Audit) error
	// SetStatus moves order id from one status to another and appends audit.
	// It returns ErrStatusChanged when the stored status is not from.
	SetStatus(ctx context.Context, id int64, from, to Status, audit Audit) error
	// Get returns the order with its items in insertion order.
	Get(ctx context.Context, id int64) (*Order, error)
	// Audits returns the audit trail of order id, oldest first.
	Audits(ctx context.Context, id int64) ([]Audit, error)
}
