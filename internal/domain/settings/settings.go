// Package settings reads and writes key/value configuration stored with the
// orders, most importantly the tax and service rates.
package settings

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/bistro-pos/internal/domain/apperr"
	"github.com/xenking/bistro-pos/internal/domain/totals"
)

// Well-known setting keys.
const (
	KeyTaxRate     = "tax_rate"
	KeyServiceRate = "service_rate"
)

// Repository persists raw setting values.
type Repository interface {
	// GetSetting returns the stored value and whether the key exists.
	GetSetting(ctx context.Context, key string) (string, bool, error)
	// SetSetting upserts key.
	SetSetting(ctx context.Context, key, value string) error
}

// Value is a setting value with its numeric interpretation, if any.
type Value struct {
	Raw     string
	Number  decimal.Decimal
	Numeric bool
}

// String returns the raw value.
func (v Value) String() string { return v.Raw }

func coerce(raw string) Value {
	n, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return Value{Raw: raw}
	}
	return Value{Raw: raw, Number: n, Numeric: true}
}

// Store provides typed access to settings.
type Store struct {
	repo Repository
}

// NewStore creates a Store backed by repo.
func NewStore(repo Repository) *Store {
	return &Store{repo: repo}
}

// Get returns the value for key, or def when the key is absent. The value
// is coerced to a number when it parses as one.
func (s *Store) Get(ctx context.Context, key, def string) (Value, error) {
	raw, ok, err := s.repo.GetSetting(ctx, key)
	if err != nil {
		return Value{}, errors.Wrapf(err, "get setting %q", key)
	}
	if !ok {
		raw = def
	}
	return coerce(raw), nil
}

// Set upserts key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return apperr.Validation("key", "must not be empty")
	}
	if err := s.repo.SetSetting(ctx, key, value); err != nil {
		return errors.Wrapf(err, "set setting %q", key)
	}
	return nil
}

// Rates returns the current tax and service rates. Stored values that are
// not valid rates are replaced by the defaults and written back.
func (s *Store) Rates(ctx context.Context) (totals.Rates, error) {
	tax, err := s.rate(ctx, KeyTaxRate, totals.DefaultRates.Tax)
	if err != nil {
		return totals.Rates{}, err
	}
	service, err := s.rate(ctx, KeyServiceRate, totals.DefaultRates.Service)
	if err != nil {
		return totals.Rates{}, err
	}
	return totals.Rates{Tax: tax, Service: service}, nil
}

func (s *Store) rate(ctx context.Context, key string, def decimal.Decimal) (decimal.Decimal, error) {
	raw, ok, err := s.repo.GetSetting(ctx, key)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "get setting %q", key)
	}
	if !ok {
		return def, nil
	}
	return s.resolve(ctx, key, raw, def, false)
}

// UpdateRates stores new rates from user input. Input that does not parse
// as a non-negative fraction is replaced by the default for that rate.
func (s *Store) UpdateRates(ctx context.Context, taxInput, serviceInput string) (totals.Rates, error) {
	tax, err := s.resolve(ctx, KeyTaxRate, taxInput, totals.DefaultRates.Tax, true)
	if err != nil {
		return totals.Rates{}, err
	}
	service, err := s.resolve(ctx, KeyServiceRate, serviceInput, totals.DefaultRates.Service, true)
	if err != nil {
		return totals.Rates{}, err
	}
	return totals.Rates{Tax: tax, Service: service}, nil
}

// resolve parses raw as a rate. On failure def is persisted under key and
// returned. When always is set the parsed value is persisted as well.
func (s *Store) resolve(ctx context.Context, key, raw string, def decimal.Decimal, always bool) (decimal.Decimal, error) {
	v, err := totals.ParseRate(raw)
	if err != nil {
		zctx.From(ctx).Warn("Invalid rate, using default",
			zap.String("key", key),
			zap.String("value", raw),
			zap.String("default", def.String()),
		)
		v = def
		always = true
	}
	if always {
		if err := s.Set(ctx, key, v.String()); err != nil {
			return decimal.Zero, err
		}
	}
	return v, nil
}
