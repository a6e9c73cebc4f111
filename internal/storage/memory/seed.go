package memory

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/xenking/bistro-pos/internal/domain/menu"
)

// NewSeeded returns a store holding a small demo catalogue.
func NewSeeded() *Store {
	s := New()

	for _, name := range []string{"Mains", "Starters", "Drinks"} {
		s.seq.category++
		s.categories[s.seq.category] = menu.Category{ID: s.seq.category, Name: name}
	}
	for i := 1; i <= 6; i++ {
		s.seq.table++
		seats := 4
		if i > 4 {
			seats = 8
		}
		s.tables[s.seq.table] = menu.Table{ID: s.seq.table, Label: "Table " + strconv.Itoa(i), Seats: seats}
	}

	demo := []struct {
		name     string
		category int64
		price    int64
	}{
		{"Beef pho", 1, 45000},
		{"Broken rice with pork chop", 1, 40000},
		{"Grilled fish", 1, 120000},
		{"Fresh spring rolls", 2, 35000},
		{"Fried spring rolls", 2, 35000},
		{"Iced tea", 3, 5000},
		{"Iced milk coffee", 3, 25000},
		{"Fresh coconut", 3, 30000},
	}
	for _, d := range demo {
		s.seq.item++
		cat := d.category
		s.items[s.seq.item] = menu.Item{
			ID:         s.seq.item,
			Name:       d.name,
			CategoryID: &cat,
			Price:      decimal.NewFromInt(d.price),
			Available:  true,
		}
	}
	return s
}
