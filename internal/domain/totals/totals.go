// Package totals derives order totals from line items and rate settings.
package totals

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits kept for stored amounts.
const Scale = 2

// DefaultRates are applied when settings are missing or malformed.
var DefaultRates = Rates{
	Tax:     decimal.RequireFromString("0.10"),
	Service: decimal.RequireFromString("0.05"),
}

// Rates holds the tax and service charge fractions applied to a subtotal.
type Rates struct {
	Tax     decimal.Decimal
	Service decimal.Decimal
}

// Line is one priced entry contributing to a subtotal.
type Line struct {
	Quantity  int
	UnitPrice decimal.Decimal
}

// Totals is the derived monetary breakdown of an order.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Service  decimal.Decimal
	Total    decimal.Decimal
}

// LineTotal returns quantity * unit price rounded to Scale.
func LineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(Scale)
}

// Calculate derives the totals for lines under rates. Each component is
// floored at zero and Total is the exact sum of the rounded components.
func Calculate(lines []Line, rates Rates) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(LineTotal(l.Quantity, l.UnitPrice))
	}
	subtotal = nonNegative(subtotal)

	tax := nonNegative(subtotal.Mul(rates.Tax)).Round(Scale)
	service := nonNegative(subtotal.Mul(rates.Service)).Round(Scale)

	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Service:  service,
		Total:    nonNegative(subtotal.Add(tax).Add(service)),
	}
}

// Add returns the component-wise sum of t and o.
func (t Totals) Add(o Totals) Totals {
	return Totals{
		Subtotal: t.Subtotal.Add(o.Subtotal),
		Tax:      t.Tax.Add(o.Tax),
		Service:  t.Service.Add(o.Service),
		Total:    t.Total.Add(o.Total),
	}
}

// Balanced reports whether Total equals Subtotal + Tax + Service.
func (t Totals) Balanced() bool {
	return t.Total.Equal(t.Subtotal.Add(t.Tax).Add(t.Service))
}

// Zero is the Totals value with all components zero.
func Zero() Totals {
	return Totals{
		Subtotal: decimal.Zero,
		Tax:      decimal.Zero,
		Service:  decimal.Zero,
		Total:    decimal.Zero,
	}
}

// ErrNegativeRate is returned by ParseRate for rates below zero.
var ErrNegativeRate = errors.New("rate must not be negative")

// ParseRate parses a rate fraction such as "0.10".
func ParseRate(s string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse rate %q", s)
	}
	if v.IsNegative() {
		return decimal.Zero, ErrNegativeRate
	}
	return v, nil
}

func nonNegative(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}
