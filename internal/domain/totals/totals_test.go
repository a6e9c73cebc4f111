package totals

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCalculate(t *testing.T) {
	lines := []Line{
		{Quantity: 2, UnitPrice: dec("35000")},
		{Quantity: 1, UnitPrice: dec("120000")},
	}

	got := Calculate(lines, DefaultRates)

	assert.True(t, dec("190000").Equal(got.Subtotal), "subtotal %s", got.Subtotal)
	assert.True(t, dec("19000").Equal(got.Tax), "tax %s", got.Tax)
	assert.True(t, dec("9500").Equal(got.Service), "service %s", got.Service)
	assert.True(t, dec("218500").Equal(got.Total), "total %s", got.Total)
	assert.True(t, got.Balanced())
}

func TestCalculate_Empty(t *testing.T) {
	got := Calculate(nil, DefaultRates)
	assert.True(t, got.Subtotal.IsZero())
	assert.True(t, got.Total.IsZero())
}

func TestCalculate_RoundsComponents(t *testing.T) {
	rates := Rates{Tax: dec("0.0825"), Service: dec("0.033")}
	got := Calculate([]Line{{Quantity: 3, UnitPrice: dec("10.99")}}, rates)

	assert.True(t, dec("32.97").Equal(got.Subtotal))
	assert.True(t, dec("2.72").Equal(got.Tax))
	assert.True(t, dec("1.09").Equal(got.Service))
	assert.True(t, dec("36.78").Equal(got.Total))
	assert.True(t, got.Balanced())
}

func TestCalculate_NegativeRatesFloorAtZero(t *testing.T) {
	got := Calculate([]Line{{Quantity: 1, UnitPrice: dec("100")}}, Rates{Tax: dec("-0.5"), Service: dec("-1")})

	assert.True(t, got.Tax.IsZero())
	assert.True(t, got.Service.IsZero())
	assert.True(t, dec("100").Equal(got.Total))
}

func TestLineTotal(t *testing.T) {
	assert.True(t, dec("70000").Equal(LineTotal(2, dec("35000"))))
	assert.True(t, dec("0").Equal(LineTotal(0, dec("35000"))))
}

func TestAdd(t *testing.T) {
	a := Calculate([]Line{{Quantity: 1, UnitPrice: dec("100")}}, DefaultRates)
	b := Calculate([]Line{{Quantity: 2, UnitPrice: dec("50")}}, DefaultRates)

	sum := Zero().Add(a).Add(b)
	assert.True(t, dec("200").Equal(sum.Subtotal))
	assert.True(t, dec("230").Equal(sum.Total))
}

func TestParseRate(t *testing.T) {
	v, err := ParseRate(" 0.08 ")
	require.NoError(t, err)
	assert.True(t, dec("0.08").Equal(v))

	_, err = ParseRate("ten percent")
	require.Error(t, err)

	_, err = ParseRate("-0.1")
	require.ErrorIs(t, err, ErrNegativeRate)
}
