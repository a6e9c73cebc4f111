package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0 VND"},
		{"999", "999 VND"},
		{"1000", "1.000 VND"},
		{"125000", "125.000 VND"},
		{"1500000", "1.500.000 VND"},
		{"218500.75", "218.500 VND"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(decimal.RequireFromString(tt.in), "VND"))
		})
	}
}

func TestFormat_DefaultCurrency(t *testing.T) {
	assert.Equal(t, "15.000 VND", Format(decimal.NewFromInt(15000), ""))
	assert.Equal(t, "15.000 USD", Formatter{Currency: "USD"}.Format(decimal.NewFromInt(15000)))
}

func TestRoundTrip(t *testing.T) {
	for _, x := range []int64{0, 1000, 15000, 250000, 1500000} {
		v := decimal.NewFromInt(x)
		s := Format(v, "VND")

		parsed, err := Parse(s)
		require.NoError(t, err)
		assert.True(t, v.Equal(parsed), "parse(format(%d)) = %s", x, parsed)
		assert.Equal(t, s, Format(parsed, "VND"))
	}
}

func TestParse(t *testing.T) {
	v, err := Parse("1,250,000 VND")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1250000).Equal(v))

	v, err = Parse("  35.000")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(35000).Equal(v))
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse("")
	require.ErrorIs(t, err, ErrEmpty)

	_, err = Parse("abc VND")
	require.Error(t, err)
}
