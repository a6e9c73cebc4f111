package db

import (
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Seed is the catalogue document stored in seed/menu.json.
type Seed struct {
	Categories []string    `json:"categories"`
	Tables     []SeedTable `json:"tables"`
	Items      []SeedItem  `json:"items"`
}

type SeedTable struct {
	Label string `json:"label"`
	Seats int    `json:"seats"`
}

type SeedItem struct {
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	// Available defaults to true when omitted.
	Available *bool `json:"available"`
}

// IsAvailable reports the availability flag, defaulting to true.
func (i SeedItem) IsAvailable() bool {
	return i.Available == nil || *i.Available
}

// ParseSeed decodes a catalogue document.
func ParseSeed(data []byte) (*Seed, error) {
	var s Seed
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "parse seed JSON")
	}
	for _, it := range s.Items {
		if it.Name == "" {
			return nil, errors.New("seed item without name")
		}
		if it.Price.IsNegative() {
			return nil, errors.Errorf("seed item %q: negative price", it.Name)
		}
	}
	return &s, nil
}
