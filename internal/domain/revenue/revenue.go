// Package revenue aggregates PAID orders into daily and monthly reports.
package revenue

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/bistro-pos/internal/domain/apperr"
	"github.com/xenking/bistro-pos/internal/domain/order"
	"github.com/xenking/bistro-pos/internal/domain/totals"
)

// DateLayout is the calendar date format accepted by ParseDate.
const DateLayout = time.DateOnly

var (
	ErrInvalidMonth  = apperr.Validation("month", "must be between 1 and 12")
	ErrInvalidYear   = apperr.Validation("year", "must be between 1 and 9999")
	ErrMalformedDate = apperr.Validation("date", "must be formatted as YYYY-MM-DD")
)

// Repository lists PAID orders.
type Repository interface {
	// PaidOrders returns PAID orders created in [from, to), oldest first
	// with ties broken by id ascending.
	PaidOrders(ctx context.Context, from, to time.Time) ([]order.Summary, error)
}

// Cache stores rendered reports. Implementations must treat a miss as
// (false, nil).
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// DaySummary is the aggregate of one calendar date.
type DaySummary struct {
	Date   time.Time     `json:"date"`
	Orders int           `json:"orders"`
	Totals totals.Totals `json:"totals"`
}

func (d *DaySummary) add(s order.Summary) {
	d.Orders++
	d.Totals = d.Totals.Add(s.Totals)
}

// DailyReport is the revenue of a single date.
type DailyReport struct {
	Summary DaySummary      `json:"summary"`
	Orders  []order.Summary `json:"orders"`
}

// MonthlyReport has one row per date with at least one PAID order and a
// grand total over all rows.
type MonthlyReport struct {
	Year  int          `json:"year"`
	Month time.Month   `json:"month"`
	Days  []DaySummary `json:"days"`
	Total DaySummary   `json:"total"`
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithCache caches reports in c for ttl.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(a *Aggregator) {
		a.cache = c
		a.ttl = ttl
	}
}

// Aggregator builds revenue reports.
type Aggregator struct {
	repo  Repository
	loc   *time.Location
	cache Cache
	ttl   time.Duration
}

var _ order.Observer = (*Aggregator)(nil)

// NewAggregator creates an Aggregator grouping dates in loc.
func NewAggregator(repo Repository, loc *time.Location, opts ...Option) *Aggregator {
	if loc == nil {
		loc = time.Local
	}
	a := &Aggregator{repo: repo, loc: loc}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ParseDate parses a YYYY-MM-DD date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, ErrMalformedDate
	}
	return t, nil
}

// ByDate returns the revenue of the calendar date of day. A date without
// PAID orders yields a zero report.
func (a *Aggregator) ByDate(ctx context.Context, day time.Time) (*DailyReport, error) {
	from := a.startOfDay(day)
	key := dailyKey(from)

	var cached DailyReport
	if a.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	orders, err := a.repo.PaidOrders(ctx, from, from.AddDate(0, 0, 1))
	if err != nil {
		return nil, errors.Wrapf(err, "list paid orders for %s", from.Format(DateLayout))
	}

	r := &DailyReport{
		Summary: DaySummary{Date: from, Totals: totals.Zero()},
		Orders:  make([]order.Summary, 0, len(orders)),
	}
	for _, o := range orders {
		r.Summary.add(o)
		r.Orders = append(r.Orders, o)
	}

	a.cacheSet(ctx, key, r)
	return r, nil
}

// ByMonth returns per-day revenue rows of a month plus their grand total.
func (a *Aggregator) ByMonth(ctx context.Context, year, month int) (*MonthlyReport, error) {
	if month < 1 || month > 12 {
		return nil, ErrInvalidMonth
	}
	if year < 1 || year > 9999 {
		return nil, ErrInvalidYear
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, a.loc)
	key := monthlyKey(from)

	var cached MonthlyReport
	if a.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	orders, err := a.repo.PaidOrders(ctx, from, from.AddDate(0, 1, 0))
	if err != nil {
		return nil, errors.Wrapf(err, "list paid orders for %s", from.Format("2006-01"))
	}

	r := &MonthlyReport{
		Year:  year,
		Month: time.Month(month),
		Days:  []DaySummary{},
		Total: DaySummary{Totals: totals.Zero()},
	}
	for _, o := range orders {
		day := a.startOfDay(o.CreatedAt)
		if n := len(r.Days); n == 0 || !r.Days[n-1].Date.Equal(day) {
			r.Days = append(r.Days, DaySummary{Date: day, Totals: totals.Zero()})
		}
		r.Days[len(r.Days)-1].add(o)
	}
	for _, d := range r.Days {
		r.Total.Orders += d.Orders
		r.Total.Totals = r.Total.Totals.Add(d.Totals)
	}

	a.cacheSet(ctx, key, r)
	return r, nil
}

// OrderCommitted implements order.Observer.
func (a *Aggregator) OrderCommitted(context.Context, *order.Order, bool) {}

// OrderTransitioned drops cached reports covering an order that became PAID.
func (a *Aggregator) OrderTransitioned(ctx context.Context, o *order.Order, _ order.Status) {
	if a.cache == nil || o.Status != order.StatusPaid {
		return
	}
	day := a.startOfDay(o.CreatedAt)
	if err := a.cache.Delete(ctx, dailyKey(day), monthlyKey(day)); err != nil {
		zctx.From(ctx).Warn("Revenue cache invalidation failed",
			zap.Int64("order_id", o.ID),
			zap.Error(err),
		)
	}
}

func (a *Aggregator) startOfDay(t time.Time) time.Time {
	y, m, d := t.In(a.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, a.loc)
}

func (a *Aggregator) cacheGet(ctx context.Context, key string, dst any) bool {
	if a.cache == nil {
		return false
	}
	ok, err := a.cache.Get(ctx, key, dst)
	if err != nil {
		zctx.From(ctx).Warn("Revenue cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return ok
}

func (a *Aggregator) cacheSet(ctx context.Context, key string, v any) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Set(ctx, key, v, a.ttl); err != nil {
		zctx.From(ctx).Warn("Revenue cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func dailyKey(day time.Time) string {
	return "revenue:daily:" + day.Format(DateLayout)
}

func monthlyKey(day time.Time) string {
	return fmt.Sprintf("revenue:monthly:%04d-%02d", day.Year(), int(day.Month()))
}
