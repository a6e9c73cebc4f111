package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-faster/jx"

	"github.com/xenking/bistro-pos/internal/domain/revenue"
)

func (h *Handler) dailyRevenue(w http.ResponseWriter, r *http.Request) {
	day := time.Now().In(h.loc)
	if raw := r.URL.Query().Get("date"); raw != "" {
		t, err := revenue.ParseDate(raw, h.loc)
		if err != nil {
			writeError(w, r, err)
			return
		}
		day = t
	}

	rep, err := h.revenue.ByDate(r.Context(), day)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("summary", func(e *jx.Encoder) { h.encodeDay(e, rep.Summary) })
			e.Field("orders", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, s := range rep.Orders {
						h.encodeSummary(e, s)
					}
				})
			})
		})
	})
}

func (h *Handler) monthlyRevenue(w http.ResponseWriter, r *http.Request) {
	now := time.Now().In(h.loc)
	year, month := now.Year(), int(now.Month())
	q := r.URL.Query()
	if raw := q.Get("year"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, revenue.ErrInvalidYear)
			return
		}
		year = v
	}
	if raw := q.Get("month"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, revenue.ErrInvalidMonth)
			return
		}
		month = v
	}

	rep, err := h.revenue.ByMonth(r.Context(), year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("year", func(e *jx.Encoder) { e.Int(rep.Year) })
			e.Field("month", func(e *jx.Encoder) { e.Int(int(rep.Month)) })
			e.Field("days", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, d := range rep.Days {
						h.encodeDay(e, d)
					}
				})
			})
			e.Field("total", func(e *jx.Encoder) { h.encodeDay(e, rep.Total) })
		})
	})
}
