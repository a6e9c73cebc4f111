package invoice

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/bistro-pos/internal/domain/money"
	"github.com/xenking/bistro-pos/internal/domain/order"
)

const (
	receiptWidth   = 50
	receiptNameMax = 25
)

// ReceiptWriter renders plain-text receipts.
type ReceiptWriter struct {
	Title    string
	Closing  string
	Location *time.Location
}

// DefaultReceiptWriter returns a ReceiptWriter with the standard texts.
func DefaultReceiptWriter(loc *time.Location) *ReceiptWriter {
	return &ReceiptWriter{
		Title:    "RECEIPT",
		Closing:  "Thank you and see you again!",
		Location: loc,
	}
}

// Write renders d to w.
func (rw *ReceiptWriter) Write(w io.Writer, d *Detail) error {
	loc := rw.Location
	if loc == nil {
		loc = time.Local
	}
	b := bufio.NewWriter(w)
	line := func(format string, args ...any) {
		fmt.Fprintf(b, format, args...)
		b.WriteByte('\n')
	}
	dash := strings.Repeat("-", receiptWidth)
	equals := strings.Repeat("=", receiptWidth)

	line("===== %s =====", rw.Title)
	line("Order: %d   Table: %s", d.ID, tableLabel(d.Summary))
	line("Status: %s", d.Status)
	line("Time: %s", d.CreatedAt.In(loc).Format(time.DateTime))
	line("%s", dash)
	line("%4s %-25s %3s %10s %10s", "ID", "Name", "Qty", "Unit", "Amount")
	line("%s", dash)
	for _, it := range d.Items {
		line("%4d %-25s %3d %10s %10s",
			it.MenuItemID, truncateName(it.Name), it.Quantity,
			money.Group(it.UnitPrice), money.Group(it.LineTotal))
	}
	line("%s", dash)
	amount(line, "Subtotal:", d.Totals.Subtotal)
	amount(line, "Tax:", d.Totals.Tax)
	amount(line, "Service:", d.Totals.Service)
	line("%s", equals)
	amount(line, "TOTAL:", d.Totals.Total)
	line("%s", equals)
	if d.Status != order.StatusPaid {
		line("** PROVISIONAL - NOT YET PAID **")
	}
	line("Items: %d kinds, %d portions", len(d.Items), d.Portions())
	line("%s", rw.Closing)

	return b.Flush()
}

// Render returns the receipt of d as a string.
func (rw *ReceiptWriter) Render(d *Detail) string {
	var sb strings.Builder
	_ = rw.Write(&sb, d)
	return sb.String()
}

func amount(line func(string, ...any), label string, v decimal.Decimal) {
	line("%-40s %10s", label, money.Group(v))
}

func tableLabel(s order.Summary) string {
	switch {
	case s.TableLabel != "":
		return s.TableLabel
	case s.TableID != nil:
		return fmt.Sprintf("Table %d", *s.TableID)
	default:
		return "-"
	}
}

func truncateName(name string) string {
	r := []rune(name)
	if len(r) <= receiptNameMax {
		return name
	}
	return string(r[:receiptNameMax-3]) + "..."
}
