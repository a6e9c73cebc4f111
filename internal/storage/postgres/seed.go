package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/bistro-pos/db"
)

const (
	seedCategorySQL = `INSERT INTO categories (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`

	seedTableSQL = `INSERT INTO dining_tables (label, seats) VALUES ($1, $2) ON CONFLICT (label) DO NOTHING`

	seedItemSQL = `INSERT INTO menu_items (name, category_id, price, is_available, description)
		SELECT $1, (SELECT id FROM categories WHERE name = $2), $3, $4, $5
		WHERE NOT EXISTS (SELECT 1 FROM menu_items WHERE name = $1)`
)

// SeedStats counts the rows inserted by Seed.
type SeedStats struct {
	Categories int64
	Tables     int64
	Items      int64
}

// Seed loads the catalogue into the database in one transaction. Existing
// rows with the same name or label are left untouched, so Seed can run
// repeatedly.
func Seed(ctx context.Context, pool *pgxpool.Pool, s *db.Seed) (SeedStats, error) {
	var stats SeedStats
	err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		for _, name := range s.Categories {
			tag, err := tx.Exec(ctx, seedCategorySQL, name)
			if err != nil {
				return errors.Wrapf(err, "seed category %q", name)
			}
			stats.Categories += tag.RowsAffected()
		}
		for _, t := range s.Tables {
			seats := t.Seats
			if seats <= 0 {
				seats = 4
			}
			tag, err := tx.Exec(ctx, seedTableSQL, t.Label, seats)
			if err != nil {
				return errors.Wrapf(err, "seed table %q", t.Label)
			}
			stats.Tables += tag.RowsAffected()
		}
		for _, it := range s.Items {
			tag, err := tx.Exec(ctx, seedItemSQL,
				it.Name, it.Category, it.Price.Round(2), it.IsAvailable(), it.Description,
			)
			if err != nil {
				return errors.Wrapf(err, "seed item %q", it.Name)
			}
			stats.Items += tag.RowsAffected()
		}
		return nil
	})
	if err != nil {
		return SeedStats{}, err
	}
	return stats, nil
}
