// Package money renders monetary amounts for display and parses them back.
//
// Amounts are shown as whole units with "." as the thousands separator
// followed by the currency code, e.g. "125.000 VND".
package money

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when a Formatter is created without a currency.
const DefaultCurrency = "VND"

// ErrEmpty is returned by Parse for blank input.
var ErrEmpty = errors.New("empty amount")

// Group renders the integer part of v with "." thousands separators.
// Fractional digits are truncated.
func Group(v decimal.Decimal) string {
	digits := v.Truncate(0).Abs().String()

	var b strings.Builder
	if v.Truncate(0).IsNegative() {
		b.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte('.')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Format renders v as "<grouped integer> <currency>".
func Format(v decimal.Decimal, currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Group(v) + " " + currency
}

// Parse converts a formatted amount back to a number. Any trailing unit
// text after the first whitespace is ignored and both "." and "," are
// treated as group separators.
func Parse(s string) (decimal.Decimal, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return decimal.Zero, ErrEmpty
	}
	raw := strings.NewReplacer(".", "", ",", "").Replace(fields[0])
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse amount %q", s)
	}
	return v, nil
}

// Formatter binds a currency code to Format.
type Formatter struct {
	Currency string
}

// Format renders v with the formatter's currency.
func (f Formatter) Format(v decimal.Decimal) string {
	return Format(v, f.Currency)
}
