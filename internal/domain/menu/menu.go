// Package menu holds the catalogue records the orders refer to: menu items,
// categories and dining tables.
package menu

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/bistro-pos/internal/domain/apperr"
)

var (
	// ErrDuplicateName is returned when a category name or table label is taken.
	ErrDuplicateName = errors.New("name already exists")
	// ErrItemInUse is returned when deleting a menu item referenced by an order.
	ErrItemInUse = errors.New("menu item is referenced by existing orders")
)

// Item is a sellable menu entry.
type Item struct {
	ID          int64
	Name        string
	CategoryID  *int64
	Price       decimal.Decimal
	Available   bool
	Description string
}

// NewItem validates and normalizes the fields of a menu item.
func NewItem(name string, categoryID *int64, price decimal.Decimal, available bool, description string) (Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Item{}, apperr.Validation("name", "must not be empty")
	}
	if price.IsNegative() {
		return Item{}, apperr.Validation("price", "must not be negative")
	}
	return Item{
		Name:        name,
		CategoryID:  categoryID,
		Price:       price.Round(2),
		Available:   available,
		Description: strings.TrimSpace(description),
	}, nil
}

// Category groups menu items. Names are unique.
type Category struct {
	ID   int64
	Name string
}

// NewCategory validates a category name.
func NewCategory(name string) (Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, apperr.Validation("name", "must not be empty")
	}
	return Category{Name: name}, nil
}

// Table is a dining table. Labels are unique.
type Table struct {
	ID    int64
	Label string
	Seats int
}

// NewTable validates a dining table.
func NewTable(label string, seats int) (Table, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return Table{}, apperr.Validation("label", "must not be empty")
	}
	if seats < 1 {
		return Table{}, apperr.Validation("seats", "must be at least 1")
	}
	return Table{Label: label, Seats: seats}, nil
}

// ItemFilter narrows ListItems. Zero values match everything.
type ItemFilter struct {
	CategoryID *int64
	Search     string
}

// Repository persists menu records.
type Repository interface {
	ListItems(ctx context.Context, f ItemFilter) ([]Item, error)
	GetItem(ctx context.Context, id int64) (*Item, error)
	CreateItem(ctx context.Context, it *Item) error
	UpdateItem(ctx context.Context, it *Item) error
	// DeleteItem fails with ErrItemInUse while an order item references id.
	DeleteItem(ctx context.Context, id int64) error

	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, c *Category) error
	UpdateCategory(ctx context.Context, c *Category) error
	// DeleteCategory detaches all items of the category before removing it.
	DeleteCategory(ctx context.Context, id int64) error

	ListTables(ctx context.Context) ([]Table, error)
	GetTable(ctx context.Context, id int64) (*Table, error)
	CreateTable(ctx context.Context, t *Table) error
	// DeleteTable leaves orders of the table in place with no table.
	DeleteTable(ctx context.Context, id int64) error
}
