package handler

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/bistro-pos/internal/domain/invoice"
	"github.com/xenking/bistro-pos/internal/domain/order"
	"github.com/xenking/bistro-pos/internal/domain/revenue"
)

func (h *Handler) optDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := revenue.ParseDate(raw, h.loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := h.optDate(q.Get("from"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	to, err := h.optDate(q.Get("to"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	rows, err := h.invoices.List(r.Context(), invoice.Filter{
		From:   from,
		To:     to,
		Status: q.Get("status"),
		Search: q.Get("q"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, s := range rows {
				h.encodeSummary(e, s)
			}
		})
	})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.invoices.Detail(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	audits, err := h.orders.Audits(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			h.summaryFields(e, d.Summary)
			e.Field("portions", func(e *jx.Encoder) { e.Int(d.Portions()) })
			e.Field("items", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, it := range d.Items {
						encodeOrderItem(e, it)
					}
				})
			})
			e.Field("audit", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, a := range audits {
						h.encodeAudit(e, a)
					}
				})
			})
		})
	})
}

func (h *Handler) transitionOrder(w http.ResponseWriter, r *http.Request, fn func(context.Context, int64) (*order.Order, error)) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := fn(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeOrder(e, o) })
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	h.transitionOrder(w, r, h.invoices.Cancel)
}

func (h *Handler) payOrder(w http.ResponseWriter, r *http.Request) {
	h.transitionOrder(w, r, h.invoices.MarkPaid)
}

// exportReceipt renders the receipt of an order as plain text. With
// pay=true an OPEN order is marked PAID first.
func (h *Handler) exportReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	pay := false
	if raw := r.URL.Query().Get("pay"); raw != "" {
		pay, err = strconv.ParseBool(raw)
		if err != nil {
			writeError(w, r, badRequest(errors.Errorf("invalid pay %q", raw)))
			return
		}
	}

	d, err := h.invoices.Export(r.Context(), id, pay)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := h.receipts.Write(&buf, d); err != nil {
		writeError(w, r, errors.Wrap(err, "render receipt"))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", "inline; filename=receipt-"+strconv.FormatInt(id, 10)+".txt")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
