package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"

	"github.com/xenking/bistro-pos/db"
	"github.com/xenking/bistro-pos/internal/storage/postgres"
)

func main() {
	var (
		databaseURL string
		menuFile    string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&menuFile, "menu-file", "", "path to a menu JSON file (defaults to the embedded catalogue)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, menuFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func loadSeed(menuFile string) (*db.Seed, error) {
	data := db.SeedMenu
	if menuFile != "" {
		slog.Info("reading menu file", slog.String("path", menuFile))

		var err error
		if data, err = os.ReadFile(menuFile); err != nil {
			return nil, errors.Wrap(err, "read menu file")
		}
	}
	return db.ParseSeed(data)
}

func run(ctx context.Context, databaseURL, menuFile string) error {
	seed, err := loadSeed(menuFile)
	if err != nil {
		return err
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	stats, err := postgres.Seed(ctx, pool, seed)
	if err != nil {
		return errors.Wrap(err, "seed catalogue")
	}

	slog.Info("catalogue seeded",
		slog.Int64("categories", stats.Categories),
		slog.Int64("tables", stats.Tables),
		slog.Int64("items", stats.Items),
		slog.Int("skipped_items", len(seed.Items)-int(stats.Items)),
	)

	return nil
}
