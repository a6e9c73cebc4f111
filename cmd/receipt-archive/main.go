// Command receipt-archive writes the receipts of every PAID order of one
// day into a single gzip-compressed text file.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/bistro-pos/internal/domain/invoice"
	"github.com/xenking/bistro-pos/internal/domain/order"
	"github.com/xenking/bistro-pos/internal/domain/revenue"
	"github.com/xenking/bistro-pos/internal/domain/settings"
	"github.com/xenking/bistro-pos/internal/storage/postgres"
)

func main() {
	var (
		databaseURL string
		date        string
		timezone    string
		out         string
		workers     int
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&date, "date", "", "day to archive as YYYY-MM-DD (defaults to today)")
	flag.StringVar(&timezone, "timezone", "Local", "IANA time zone of --date")
	flag.StringVar(&out, "out", "", "output file (defaults to receipts-<date>.txt.gz)")
	flag.IntVar(&workers, "workers", 4, "number of concurrent receipt renderers")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		slog.Error("invalid timezone", slog.String("timezone", timezone), slog.String("error", err.Error()))
		os.Exit(1)
	}
	day := time.Now().In(loc)
	if date != "" {
		if day, err = revenue.ParseDate(date, loc); err != nil {
			slog.Error("invalid date", slog.String("date", date), slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
	if out == "" {
		out = "receipts-" + day.Format(revenue.DateLayout) + ".txt.gz"
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, loc, day, out, workers); err != nil {
		slog.Error("archive failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, databaseURL string, loc *time.Location, day time.Time, out string, workers int) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	orders := postgres.NewOrderRepository(pool)
	manager := order.NewManager(orders, postgres.NewMenuRepository(pool),
		settings.NewStore(postgres.NewSettingsRepository(pool)))
	svc := invoice.NewService(orders, manager, loc)

	f, err := os.Create(out)
	if err != nil {
		return errors.Wrap(err, "create output file")
	}

	n, err := archive(ctx, svc, invoice.DefaultReceiptWriter(loc), day, workers, f)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = errors.Wrap(closeErr, "close output file")
	}
	if err != nil {
		_ = os.Remove(out)
		return err
	}

	slog.Info("archive written",
		slog.String("path", out),
		slog.String("date", day.Format(revenue.DateLayout)),
		slog.Int("receipts", n),
	)
	return nil
}
