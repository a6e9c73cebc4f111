package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/bistro-pos/internal/domain/cart"
	"github.com/xenking/bistro-pos/internal/domain/menu"
	"github.com/xenking/bistro-pos/internal/domain/order"
	"github.com/xenking/bistro-pos/internal/domain/revenue"
	"github.com/xenking/bistro-pos/internal/domain/totals"
)

const maxBodySize = 1 << 20

// badRequestError marks malformed requests: undecodable bodies and path
// parameters.
type badRequestError struct {
	err error
}

func (e *badRequestError) Error() string { return e.err.Error() }

func (e *badRequestError) Unwrap() error { return e.err }

func badRequest(err error) error {
	return &badRequestError{err: err}
}

// fieldDecoders maps a JSON key to the function consuming its value.
type fieldDecoders map[string]func(d *jx.Decoder) error

// decodeBody reads a JSON object from r. Keys without a decoder are
// skipped and an empty body decodes as {}.
func decodeBody(w http.ResponseWriter, r *http.Request, fields fieldDecoders) error {
	if r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0 {
		return nil
	}
	d := jx.Decode(http.MaxBytesReader(w, r.Body, maxBodySize), 4096)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		fn, ok := fields[key]
		if !ok {
			return d.Skip()
		}
		if err := fn(d); err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
	if err != nil {
		return badRequest(errors.Wrap(err, "decode body"))
	}
	return nil
}

func decodeString(dst *string) func(d *jx.Decoder) error {
	return func(d *jx.Decoder) error {
		switch d.Next() {
		case jx.Null:
			return d.Null()
		case jx.Number:
			n, err := d.Num()
			if err != nil {
				return err
			}
			*dst = n.String()
			return nil
		default:
			v, err := d.Str()
			if err != nil {
				return err
			}
			*dst = v
			return nil
		}
	}
}

func decodeInt(dst *int) func(d *jx.Decoder) error {
	return func(d *jx.Decoder) error {
		v, err := d.Int()
		if err != nil {
			return err
		}
		*dst = v
		return nil
	}
}

func decodeBool(dst *bool) func(d *jx.Decoder) error {
	return func(d *jx.Decoder) error {
		v, err := d.Bool()
		if err != nil {
			return err
		}
		*dst = v
		return nil
	}
}

// decodeOptID reads an id that may be null.
func decodeOptID(dst **int64) func(d *jx.Decoder) error {
	return func(d *jx.Decoder) error {
		if d.Next() == jx.Null {
			*dst = nil
			return d.Null()
		}
		v, err := d.Int64()
		if err != nil {
			return err
		}
		*dst = &v
		return nil
	}
}

// decodeDecimal accepts both JSON numbers and numeric strings.
func decodeDecimal(dst *decimal.Decimal) func(d *jx.Decoder) error {
	return func(d *jx.Decoder) error {
		var raw string
		if err := decodeString(&raw)(d); err != nil {
			return err
		}
		v, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return errors.Wrapf(err, "parse decimal %q", raw)
		}
		*dst = v
		return nil
	}
}

func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest(errors.Errorf("invalid id %q", raw))
	}
	return id, nil
}

// --- Encoders ---

func writeJSON(w http.ResponseWriter, status int, f func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	f(e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func encodeMoney(e *jx.Encoder, v decimal.Decimal) {
	e.Str(v.StringFixed(totals.Scale))
}

func encodeOptID(e *jx.Encoder, id *int64) {
	if id == nil {
		e.Null()
		return
	}
	e.Int64(*id)
}

func (h *Handler) encodeTotals(e *jx.Encoder, t totals.Totals) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("subtotal", func(e *jx.Encoder) { encodeMoney(e, t.Subtotal) })
		e.Field("tax", func(e *jx.Encoder) { encodeMoney(e, t.Tax) })
		e.Field("service", func(e *jx.Encoder) { encodeMoney(e, t.Service) })
		e.Field("total", func(e *jx.Encoder) { encodeMoney(e, t.Total) })
		e.Field("display", func(e *jx.Encoder) { e.Str(h.money.Format(t.Total)) })
	})
}

func encodeRates(e *jx.Encoder, r totals.Rates) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("tax_rate", func(e *jx.Encoder) { e.Str(r.Tax.String()) })
		e.Field("service_rate", func(e *jx.Encoder) { e.Str(r.Service.String()) })
	})
}

func encodeMenuItem(e *jx.Encoder, it menu.Item) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int64(it.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
		e.Field("category_id", func(e *jx.Encoder) { encodeOptID(e, it.CategoryID) })
		e.Field("price", func(e *jx.Encoder) { encodeMoney(e, it.Price) })
		e.Field("available", func(e *jx.Encoder) { e.Bool(it.Available) })
		e.Field("description", func(e *jx.Encoder) { e.Str(it.Description) })
	})
}

func encodeCategory(e *jx.Encoder, c menu.Category) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int64(c.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(c.Name) })
	})
}

func encodeTable(e *jx.Encoder, t menu.Table) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int64(t.ID) })
		e.Field("label", func(e *jx.Encoder) { e.Str(t.Label) })
		e.Field("seats", func(e *jx.Encoder) { e.Int(t.Seats) })
	})
}

func encodeCartEntry(e *jx.Encoder, c cart.Entry) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("item_id", func(e *jx.Encoder) { e.Int64(c.ItemID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(c.Name) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(c.Quantity) })
		e.Field("unit_price", func(e *jx.Encoder) { encodeMoney(e, c.UnitPrice) })
		e.Field("line_total", func(e *jx.Encoder) { encodeMoney(e, c.LineTotal()) })
	})
}

func encodeOrderItem(e *jx.Encoder, it order.Item) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int64(it.ID) })
		e.Field("item_id", func(e *jx.Encoder) { e.Int64(it.MenuItemID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
		e.Field("unit_price", func(e *jx.Encoder) { encodeMoney(e, it.UnitPrice) })
		e.Field("line_total", func(e *jx.Encoder) { encodeMoney(e, it.LineTotal) })
	})
}

func (h *Handler) encodeOrder(e *jx.Encoder, o *order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int64(o.ID) })
		e.Field("table_id", func(e *jx.Encoder) { encodeOptID(e, o.TableID) })
		e.Field("created_at", func(e *jx.Encoder) { e.Str(o.CreatedAt.In(h.loc).Format(time.RFC3339)) })
		e.Field("status", func(e *jx.Encoder) { e.Str(o.Status.String()) })
		e.Field("note", func(e *jx.Encoder) { e.Str(o.Note) })
		e.Field("totals", func(e *jx.Encoder) { h.encodeTotals(e, o.Totals) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, it := range o.Items {
					encodeOrderItem(e, it)
				}
			})
		})
	})
}

func (h *Handler) summaryFields(e *jx.Encoder, s order.Summary) {
	e.Field("id", func(e *jx.Encoder) { e.Int64(s.ID) })
	e.Field("table_id", func(e *jx.Encoder) { encodeOptID(e, s.TableID) })
	e.Field("table_label", func(e *jx.Encoder) { e.Str(s.TableLabel) })
	e.Field("created_at", func(e *jx.Encoder) { e.Str(s.CreatedAt.In(h.loc).Format(time.RFC3339)) })
	e.Field("status", func(e *jx.Encoder) { e.Str(s.Status.String()) })
	e.Field("note", func(e *jx.Encoder) { e.Str(s.Note) })
	e.Field("totals", func(e *jx.Encoder) { h.encodeTotals(e, s.Totals) })
}

func (h *Handler) encodeSummary(e *jx.Encoder, s order.Summary) {
	e.Obj(func(e *jx.Encoder) { h.summaryFields(e, s) })
}

func (h *Handler) encodeAudit(e *jx.Encoder, a order.Audit) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int64(a.ID) })
		e.Field("action", func(e *jx.Encoder) { e.Str(a.Action) })
		e.Field("created_at", func(e *jx.Encoder) { e.Str(a.CreatedAt.In(h.loc).Format(time.RFC3339)) })
		e.Field("note", func(e *jx.Encoder) { e.Str(a.Note) })
	})
}

func (h *Handler) encodeDay(e *jx.Encoder, d revenue.DaySummary) {
	e.Obj(func(e *jx.Encoder) {
		if !d.Date.IsZero() {
			e.Field("date", func(e *jx.Encoder) { e.Str(d.Date.In(h.loc).Format(revenue.DateLayout)) })
		}
		e.Field("orders", func(e *jx.Encoder) { e.Int(d.Orders) })
		e.Field("totals", func(e *jx.Encoder) { h.encodeTotals(e, d.Totals) })
	})
}
