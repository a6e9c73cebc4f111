package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/bistro-pos/internal/domain/apperr"
	"github.com/xenking/bistro-pos/internal/domain/order"
)

// writeSession encodes the session with totals at the current rates.
// h.mu must be held.
func (h *Handler) writeSession(w http.ResponseWriter, r *http.Request, status int) {
	rates, err := h.settings.Rates(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	s := h.session
	t := s.Cart.Totals(rates)
	entries := s.Cart.Entries()

	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("table_id", func(e *jx.Encoder) { encodeOptID(e, s.TableID) })
			e.Field("editing_order_id", func(e *jx.Encoder) { encodeOptID(e, s.EditingOrderID) })
			e.Field("items", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, c := range entries {
						encodeCartEntry(e, c)
					}
				})
			})
			e.Field("portions", func(e *jx.Encoder) { e.Int(s.Cart.Portions()) })
			e.Field("rates", func(e *jx.Encoder) { encodeRates(e, rates) })
			e.Field("totals", func(e *jx.Encoder) { h.encodeTotals(e, t) })
		})
	})
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.writeSession(w, r, http.StatusOK)
}

func (h *Handler) selectTable(w http.ResponseWriter, r *http.Request) {
	var id *int64
	if err := decodeBody(w, r, fieldDecoders{"table_id": decodeOptID(&id)}); err != nil {
		writeError(w, r, err)
		return
	}
	if id == nil {
		writeError(w, r, order.ErrNoTable)
		return
	}
	if _, err := h.menu.Table(r.Context(), *id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			err = order.ErrUnknownTable
		}
		writeError(w, r, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.session.SelectTable(*id)
	h.writeSession(w, r, http.StatusOK)
}

func (h *Handler) addSessionItem(w http.ResponseWriter, r *http.Request) {
	var (
		itemID   int64
		quantity = 1
	)
	err := decodeBody(w, r, fieldDecoders{
		"item_id": func(d *jx.Decoder) error {
			v, err := d.Int64()
			itemID = v
			return err
		},
		"quantity": decodeInt(&quantity),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.session.Cart.Add(r.Context(), h.items, itemID, quantity); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeSession(w, r, http.StatusOK)
}

func (h *Handler) setSessionItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var quantity int
	if err := decodeBody(w, r, fieldDecoders{"quantity": decodeInt(&quantity)}); err != nil {
		writeError(w, r, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.session.Cart.SetQuantity(id, quantity)
	h.writeSession(w, r, http.StatusOK)
}

func (h *Handler) removeSessionItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.session.Cart.Remove(id)
	h.writeSession(w, r, http.StatusOK)
}

func (h *Handler) resetSession(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.session.Reset()
	h.writeSession(w, r, http.StatusOK)
}

func (h *Handler) commitSession(w http.ResponseWriter, r *http.Request) {
	var statusRaw, note string
	err := decodeBody(w, r, fieldDecoders{
		"status": decodeString(&statusRaw),
		"note":   decodeString(&note),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	var status order.Status
	if statusRaw != "" {
		status, err = order.ParseStatus(statusRaw)
		if err != nil {
			writeError(w, r, err)
			return
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	o, err := h.orders.CommitSession(r.Context(), h.session, status, note)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { h.encodeOrder(e, o) })
}

func (h *Handler) reopenIntoSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := h.orders.ReopenIntoSession(r.Context(), h.session, id); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeSession(w, r, http.StatusOK)
}
