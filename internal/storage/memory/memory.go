// Package memory is an in-process implementation of every POS repository.
// Each write holds a single lock for its whole duration, so multi-row
// changes are atomic.
package memory

import (
	"sync"

	"github.com/xenking/bistro-pos/internal/domain/invoice"
	"github.com/xenking/bistro-pos/internal/domain/menu"
	"github.com/xenking/bistro-pos/internal/domain/order"
	"github.com/xenking/bistro-pos/internal/domain/revenue"
	"github.com/xenking/bistro-pos/internal/domain/settings"
)

var (
	_ menu.Repository     = (*Store)(nil)
	_ order.Repository    = (*Store)(nil)
	_ invoice.Repository  = (*Store)(nil)
	_ revenue.Repository  = (*Store)(nil)
	_ settings.Repository = (*Store)(nil)
)

type sequence struct {
	category, item, table, order, orderItem, audit int64
}

// Store keeps all records in maps guarded by mu.
type Store struct {
	mu sync.RWMutex

	categories map[int64]menu.Category
	items      map[int64]menu.Item
	tables     map[int64]menu.Table
	orders     map[int64]*order.Order
	audits     []order.Audit
	settings   map[string]string

	seq sequence
}

// New returns an empty store with the default rate settings.
func New() *Store {
	return &Store{
		categories: make(map[int64]menu.Category),
		items:      make(map[int64]menu.Item),
		tables:     make(map[int64]menu.Table),
		orders:     make(map[int64]*order.Order),
		settings: map[string]string{
			settings.KeyTaxRate:     "0.10",
			settings.KeyServiceRate: "0.05",
		},
	}
}
