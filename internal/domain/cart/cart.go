// Package cart implements the mutable set of line items composed before an
// order is committed.
package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/bistro-pos/internal/domain/apperr"
	"github.com/xenking/bistro-pos/internal/domain/menu"
	"github.com/xenking/bistro-pos/internal/domain/totals"
)

var (
	ErrInvalidQuantity = apperr.Validation("quantity", "must be greater than 0")
	ErrUnknownItem     = apperr.Validation("item_id", "unknown menu item")
)

// MenuLookup resolves menu items when they are added.
type MenuLookup interface {
	GetItem(ctx context.Context, id int64) (*menu.Item, error)
}

// Entry is one cart line. Name and UnitPrice are captured when the item is
// first added.
type Entry struct {
	ItemID    int64
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// LineTotal returns Quantity * UnitPrice.
func (e Entry) LineTotal() decimal.Decimal {
	return totals.LineTotal(e.Quantity, e.UnitPrice)
}

// Cart keeps entries in insertion order. Every entry has Quantity >= 1.
// A Cart is not safe for concurrent use.
type Cart struct {
	entries []Entry
	index   map[int64]int
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{index: make(map[int64]int)}
}

// Add looks up itemID and adds quantity of it. Adding an item already in
// the cart sums the quantities and keeps the original price.
func (c *Cart) Add(ctx context.Context, lookup MenuLookup, itemID int64, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if i, ok := c.index[itemID]; ok {
		c.entries[i].Quantity += quantity
		return nil
	}
	it, err := lookup.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return ErrUnknownItem
		}
		return errors.Wrapf(err, "lookup menu item %d", itemID)
	}
	c.Put(Entry{ItemID: it.ID, Name: it.Name, Quantity: quantity, UnitPrice: it.Price})
	return nil
}

// Put appends e as captured, or merges it into an existing entry. It is used
// to rebuild a cart from a committed order. Entries with Quantity <= 0 are
// ignored.
func (c *Cart) Put(e Entry) {
	if e.Quantity <= 0 {
		return
	}
	if i, ok := c.index[e.ItemID]; ok {
		c.entries[i].Quantity += e.Quantity
		return
	}
	c.index[e.ItemID] = len(c.entries)
	c.entries = append(c.entries, e)
}

// SetQuantity overwrites the quantity of itemID, removing the entry when
// quantity <= 0. Unknown ids are ignored.
func (c *Cart) SetQuantity(itemID int64, quantity int) {
	i, ok := c.index[itemID]
	if !ok {
		return
	}
	if quantity <= 0 {
		c.Remove(itemID)
		return
	}
	c.entries[i].Quantity = quantity
}

// Remove deletes the entry for itemID if present.
func (c *Cart) Remove(itemID int64) {
	i, ok := c.index[itemID]
	if !ok {
		return
	}
	c.entries = append(c.entries[:i], c.entries[i+1:]...)
	delete(c.index, itemID)
	for j := i; j < len(c.entries); j++ {
		c.index[c.entries[j].ItemID] = j
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.entries = nil
	c.index = make(map[int64]int)
}

// Entries returns a copy of the entries in insertion order.
func (c *Cart) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Get returns the entry for itemID.
func (c *Cart) Get(itemID int64) (Entry, bool) {
	i, ok := c.index[itemID]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

func (c *Cart) Len() int { return len(c.entries) }

func (c *Cart) Empty() bool { return len(c.entries) == 0 }

// Portions returns the sum of quantities.
func (c *Cart) Portions() int {
	n := 0
	for _, e := range c.entries {
		n += e.Quantity
	}
	return n
}

// Totals derives the cart totals under rates.
func (c *Cart) Totals(rates totals.Rates) totals.Totals {
	lines := make([]totals.Line, len(c.entries))
	for i, e := range c.entries {
		lines[i] = totals.Line{Quantity: e.Quantity, UnitPrice: e.UnitPrice}
	}
	return totals.Calculate(lines, rates)
}
