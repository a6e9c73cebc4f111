package invoice

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/bistro-pos/internal/domain/order"
	"github.com/xenking/bistro-pos/internal/domain/totals"
)

func testDetail(status order.Status) *Detail {
	table := int64(5)
	items := []order.Item{
		{MenuItemID: 4, Name: "Fresh spring rolls", Quantity: 2, UnitPrice: decimal.NewFromInt(35000), LineTotal: decimal.NewFromInt(70000)},
		{MenuItemID: 12, Name: "Slow braised pork belly in caramel sauce", Quantity: 1, UnitPrice: decimal.NewFromInt(120000), LineTotal: decimal.NewFromInt(120000)},
	}
	return &Detail{
		Summary: order.Summary{
			ID:         7,
			TableID:    &table,
			TableLabel: "Terrace 5",
			CreatedAt:  time.Date(2026, 3, 14, 19, 30, 5, 0, time.UTC),
			Totals: totals.Calculate([]totals.Line{
				{Quantity: 2, UnitPrice: decimal.NewFromInt(35000)},
				{Quantity: 1, UnitPrice: decimal.NewFromInt(120000)},
			}, totals.DefaultRates),
			Status: status,
		},
		Items: items,
	}
}

func TestReceipt_Layout(t *testing.T) {
	got := DefaultReceiptWriter(time.UTC).Render(testDetail(order.StatusOpen))

	want := strings.Join([]string{
		"===== RECEIPT =====",
		"Order: 7   Table: Terrace 5",
		"Status: OPEN",
		"Time: 2026-03-14 19:30:05",
		strings.Repeat("-", 50),
		"  ID Name                      Qty       Unit     Amount",
		strings.Repeat("-", 50),
		"   4 Fresh spring rolls          2     35.000     70.000",
		"  12 Slow braised pork bell...   1    120.000    120.000",
		strings.Repeat("-", 50),
		"Subtotal:                                   190.000",
		"Tax:                                         19.000",
		"Service:                                      9.500",
		strings.Repeat("=", 50),
		"TOTAL:                                      218.500",
		strings.Repeat("=", 50),
		"** PROVISIONAL - NOT YET PAID **",
		"Items: 2 kinds, 3 portions",
		"Thank you and see you again!",
		"",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestReceipt_Paid(t *testing.T) {
	got := DefaultReceiptWriter(time.UTC).Render(testDetail(order.StatusPaid))
	assert.NotContains(t, got, "NOT YET PAID")
	assert.Contains(t, got, "Status: PAID")
}

func TestReceipt_TableFallback(t *testing.T) {
	d := testDetail(order.StatusPaid)
	d.TableLabel = ""
	assert.Contains(t, DefaultReceiptWriter(time.UTC).Render(d), "Table: Table 5")

	d.TableID = nil
	assert.Contains(t, DefaultReceiptWriter(time.UTC).Render(d), "Table: -")
}

func TestTruncateName(t *testing.T) {
	assert.Equal(t, "Exactly twenty-five chars", truncateName("Exactly twenty-five chars"))
	long := truncateName("Bánh xèo with shrimp and pork belly")
	assert.Equal(t, 25, len([]rune(long)))
	assert.True(t, strings.HasSuffix(long, "..."))
	require.Equal(t, "Bánh xèo with shrimp a...", long)
}
