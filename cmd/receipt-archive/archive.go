package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/bistro-pos/internal/domain/invoice"
	"github.com/xenking/bistro-pos/internal/domain/order"
)

const gzipBlockSize = 1 << 20

// archive renders the receipt of every PAID order created on day and writes
// them, oldest first, as one gzip stream to w. It returns the number of
// receipts written.
func archive(ctx context.Context, svc *invoice.Service, rw *invoice.ReceiptWriter, day time.Time, workers int, w io.Writer) (int, error) {
	if workers < 1 {
		workers = 1
	}

	paid, err := svc.List(ctx, invoice.Filter{From: &day, To: &day, Status: order.StatusPaid.String()})
	if err != nil {
		return 0, errors.Wrap(err, "list paid orders")
	}

	slog.Info("rendering receipts", slog.Int("orders", len(paid)), slog.Int("workers", workers))

	receipts := make([]string, len(paid))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, s := range paid {
		// List is newest first.
		idx := len(paid) - 1 - i
		g.Go(func() error {
			d, err := svc.Detail(gCtx, s.ID)
			if err != nil {
				return errors.Wrapf(err, "load order %d", s.ID)
			}
			receipts[idx] = rw.Render(d)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	gz, err := pgzip.NewWriterLevel(w, pgzip.BestCompression)
	if err != nil {
		return 0, errors.Wrap(err, "create gzip writer")
	}
	if err := gz.SetConcurrency(gzipBlockSize, workers); err != nil {
		return 0, errors.Wrap(err, "configure gzip writer")
	}
	for _, r := range receipts {
		if _, err := io.WriteString(gz, r+"\n"); err != nil {
			_ = gz.Close()
			return 0, errors.Wrap(err, "write receipt")
		}
	}
	if err := gz.Close(); err != nil {
		return 0, errors.Wrap(err, "flush gzip stream")
	}
	return len(receipts), nil
}
